// Package entities holds the row shapes shared between the stores, the
// domain packages and the HTTP layer.
package entities

import "strings"

// ReferenceMedicine is one row of the medicines reference table.
type ReferenceMedicine struct {
	Name             string  `json:"name"`
	GenericName      *string `json:"generic_name"`
	TherapeuticClass *string `json:"therapeutic_class"`
}

// Class returns the therapeutic class and whether it is set
func (m *ReferenceMedicine) Class() (string, bool) {
	if m == nil || m.TherapeuticClass == nil {
		return "", false
	}
	return *m.TherapeuticClass, true
}

// MatchesName reports whether the row would be returned by
// `name ILIKE '%term%'`. term must already be lower-cased.
func (m *ReferenceMedicine) MatchesName(term string) bool {
	return strings.Contains(strings.ToLower(m.Name), term)
}
