// Package phone normalizes directory contact numbers.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Directory entries are mainland contacts unless prefixed otherwise.
const defaultRegion = "CN"

// NormalizeE164 formats input as E.164. Unparseable or invalid numbers
// come back trimmed but otherwise untouched; signature blocks render
// whatever the directory holds.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
