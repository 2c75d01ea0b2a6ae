package conversation

// aliasPool is the fixed pool of rotating sending identities for the
// PR counterparty, assigned round-robin across successive projects.
var aliasPool = []string{"A", "B", "C"}

// AliasRotationPolicy advances the rotating mail alias. Queried once per
// registration, seeded from the most recent prior project, and stored
// immutably on the new project.
type AliasRotationPolicy struct{}

// Next returns the alias following previous in the A→B→C→A rotation.
// An empty or unknown previous alias starts the rotation over.
func (AliasRotationPolicy) Next(previous string) string {
	for i, alias := range aliasPool {
		if alias == previous {
			return aliasPool[(i+1)%len(aliasPool)]
		}
	}
	return aliasPool[0]
}

// ccStages are the stages that receive the compliance CC when the policy
// applies to a chain.
var ccStages = map[Stage]bool{
	StageB5:     true,
	StageB5Spec: true,
	StageB6:     true,
	StageC9:     true,
}

// CCPolicy injects compliance recipients into B5/B6/C9 descriptors when
// the D participant is the rotating PR identity and the project's mail
// alias is one of the designated aliases.
type CCPolicy struct {
	Addresses []string
	Aliases   []string
}

// Applies reports whether the policy is active for the given D
// participant and project alias.
func (p CCPolicy) Applies(d Participant, alias string) bool {
	if len(p.Addresses) == 0 || !d.IsPR {
		return false
	}
	for _, a := range p.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

// CCFor returns the CC list for one stage, or nil when the stage is
// outside the policy's scope.
func (p CCPolicy) CCFor(stage Stage, active bool) []string {
	if !active || !ccStages[stage] {
		return nil
	}
	cc := make([]string, len(p.Addresses))
	copy(cc, p.Addresses)
	return cc
}
