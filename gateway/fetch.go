// ABOUTME: Fetch options for the gateway: filter predicates and sort orders
// ABOUTME: Name sorting and search are locale-aware via golang.org/x/text
package gateway

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/search"

	"github.com/harperreed/contactshq/models"
)

// Predicate reports whether a person belongs in a fetch result.
type Predicate func(*models.Person) bool

type SortKey int

const (
	SortNone SortKey = iota
	SortGivenName
	SortFamilyName
	SortCreatedAt
)

// ParseSortKey maps a CLI or tool argument to a SortKey. Unknown or empty input
// sorts by given name, the list view's default.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return SortNone
	case "family", "family_name":
		return SortFamilyName
	case "created", "created_at":
		return SortCreatedAt
	default:
		return SortGivenName
	}
}

type FetchOptions struct {
	Filter Predicate
	Sort   SortKey
}

// All matches every person.
func All() Predicate {
	return nil
}

// GivenNameContains matches people whose given name contains q, ignoring case and
// diacritics. An empty query matches everyone.
func GivenNameContains(q string) Predicate {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	matcher := search.New(language.Und, search.IgnoreCase, search.IgnoreDiacritics)
	pattern := matcher.CompileString(q)
	return func(p *models.Person) bool {
		start, _ := pattern.IndexString(p.GivenName)
		return start >= 0
	}
}

// HasExternalID matches the person imported from the given source record.
func HasExternalID(id string) Predicate {
	return func(p *models.Person) bool {
		return id != "" && p.ExternalID == id
	}
}

// InGroup matches people tagged with group.
func InGroup(group string) Predicate {
	return func(p *models.Person) bool {
		for _, g := range p.Groups {
			if g == group {
				return true
			}
		}
		return false
	}
}

// And combines predicates; nil entries are ignored.
func And(preds ...Predicate) Predicate {
	return func(p *models.Person) bool {
		for _, pred := range preds {
			if pred != nil && !pred(p) {
				return false
			}
		}
		return true
	}
}

func sortPeople(people []*models.Person, key SortKey) {
	switch key {
	case SortGivenName:
		col := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(people, func(i, j int) bool {
			return col.CompareString(people[i].GivenName, people[j].GivenName) < 0
		})
	case SortFamilyName:
		col := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(people, func(i, j int) bool {
			a, b := models.Deref(people[i].FamilyName), models.Deref(people[j].FamilyName)
			if c := col.CompareString(a, b); c != 0 {
				return c < 0
			}
			return col.CompareString(people[i].GivenName, people[j].GivenName) < 0
		})
	case SortCreatedAt:
		sort.SliceStable(people, func(i, j int) bool {
			return people[i].CreatedAt.Before(people[j].CreatedAt)
		})
	}
}
