// ABOUTME: Import de-duplication keyed on the source's stable contact identifier
// ABOUTME: Built once per import from stored people and grown as the batch is assembled
package contacts

import (
	"strings"

	"github.com/harperreed/contactshq/models"
)

type Matcher struct {
	byExternalID map[string]*models.Person
}

// NewMatcher indexes people that came from an import.
func NewMatcher(people []*models.Person) *Matcher {
	m := &Matcher{byExternalID: make(map[string]*models.Person, len(people))}
	for _, p := range people {
		m.Add(p)
	}
	return m
}

// FindMatch looks up a previously imported person by source identifier.
func (m *Matcher) FindMatch(externalID string) (*models.Person, bool) {
	key := normalizeID(externalID)
	if key == "" {
		return nil, false
	}
	p, ok := m.byExternalID[key]
	return p, ok
}

// Add records a person so later contacts in the same import match it.
func (m *Matcher) Add(p *models.Person) {
	if key := normalizeID(p.ExternalID); key != "" {
		m.byExternalID[key] = p
	}
}

func (m *Matcher) Len() int {
	return len(m.byExternalID)
}

func normalizeID(id string) string {
	return strings.TrimSpace(id)
}
