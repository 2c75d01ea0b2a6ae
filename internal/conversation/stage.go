package conversation

// Stage identifies one labeled step of a conversation: sender role,
// recipient role and template family.
type Stage string

const (
	// Registration phase: invitation and reply.
	StageA1 Stage = "A1"
	StageA2 Stage = "A2"

	// Contract phase.
	StageB3 Stage = "B3"
	StageB4 Stage = "B4"
	StageB5 Stage = "B5"
	// StageB5Spec is the B5 variant used when B and C collapse into one entity.
	StageB5Spec Stage = "B5_SPEC"
	StageB6     Stage = "B6"

	// Settlement phase.
	StageC7  Stage = "C7"
	StageC8  Stage = "C8"
	StageC9  Stage = "C9"
	StageC10 Stage = "C10"
)

var knownStages = map[Stage]bool{
	StageA1:     true,
	StageA2:     true,
	StageB3:     true,
	StageB4:     true,
	StageB5:     true,
	StageB5Spec: true,
	StageB6:     true,
	StageC7:     true,
	StageC8:     true,
	StageC9:     true,
	StageC10:    true,
}

// IsKnown reports whether s belongs to the fixed stage vocabulary.
func (s Stage) IsKnown() bool {
	return knownStages[s]
}

// Classification is the project topology deciding which stage sequence applies.
type Classification string

const (
	Unclassified Classification = "unclassified"
	// BCD runs the full four-stage conversation across three distinct parties.
	BCD Classification = "BCD"
	// CCD collapses B and C into one entity; two stages with the B5 variant template.
	CCD Classification = "CCD"
	// BD has no C party; two standard stages.
	BD Classification = "BD"
)

// ParseClassification maps a stored string to a Classification,
// defaulting to Unclassified for anything unknown.
func ParseClassification(value string) Classification {
	switch Classification(value) {
	case BCD, CCD, BD:
		return Classification(value)
	default:
		return Unclassified
	}
}
