// ABOUTME: Value types shared by Person: labeled values, field categories, and enums
// ABOUTME: Parsing helpers turn user or storage strings back into typed enums
package models

import (
	"fmt"
	"strings"
)

// LabeledValue is one instance of a multi-value contact field, e.g. one phone number.
// A nil Label and an empty Label are distinct.
type LabeledValue struct {
	Label *string `json:"label,omitempty"`
	Value string  `json:"value"`
}

func NewLabeledValue(label, value string) LabeledValue {
	return LabeledValue{Label: &label, Value: value}
}

// LabelText returns the label or "" when absent.
func (lv LabeledValue) LabelText() string {
	return Deref(lv.Label)
}

func (lv LabeledValue) IsBlank() bool {
	return lv.Value == ""
}

func (lv LabeledValue) Equal(other LabeledValue) bool {
	if (lv.Label == nil) != (other.Label == nil) {
		return false
	}
	if lv.Label != nil && *lv.Label != *other.Label {
		return false
	}
	return lv.Value == other.Value
}

// EqualValues compares two sequences element-wise, order included.
func EqualValues(a, b []LabeledValue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// DropBlank returns the non-blank values in their original order.
func DropBlank(values []LabeledValue) []LabeledValue {
	out := make([]LabeledValue, 0, len(values))
	for _, v := range values {
		if !v.IsBlank() {
			out = append(out, v)
		}
	}
	return out
}

// Category identifies one of the six labeled-value sequences on a Person.
type Category string

const (
	CategoryPhoneNumber   Category = "phone"
	CategoryEmail         Category = "email"
	CategorySocialProfile Category = "social"
	CategoryPostalAddress Category = "postal"
	CategoryURL           Category = "url"
	CategoryRelation      Category = "relation"
)

// Categories lists every labeled-value category in display order.
var Categories = []Category{
	CategoryPhoneNumber,
	CategoryEmail,
	CategorySocialProfile,
	CategoryPostalAddress,
	CategoryURL,
	CategoryRelation,
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: category %q", ErrUnknownValue, s)
}

type PersonType string

const (
	PersonTypeFamily       PersonType = "family"
	PersonTypeFriend       PersonType = "friend"
	PersonTypeAcquaintance PersonType = "acquaintance"
	PersonTypeBusiness     PersonType = "business"
	PersonTypeClient       PersonType = "client"

	DefaultPersonType = PersonTypeAcquaintance
)

var PersonTypes = []PersonType{
	PersonTypeFamily,
	PersonTypeFriend,
	PersonTypeAcquaintance,
	PersonTypeBusiness,
	PersonTypeClient,
}

func ParsePersonType(s string) (PersonType, error) {
	t := PersonType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range PersonTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: person type %q", ErrUnknownValue, s)
}

type Language string

const (
	LanguageEnglish Language = "english"
	LanguageSpanish Language = "spanish"
)

var Languages = []Language{LanguageEnglish, LanguageSpanish}

func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Languages {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: language %q", ErrUnknownValue, s)
}

type Availability string

const (
	AvailabilityMorning Availability = "morning"
	AvailabilityEvening Availability = "evening"
	AvailabilityNight   Availability = "night"
)

var Availabilities = []Availability{AvailabilityMorning, AvailabilityEvening, AvailabilityNight}

func ParseAvailability(s string) (Availability, error) {
	a := Availability(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Availabilities {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: availability %q", ErrUnknownValue, s)
}

// UniqueAvailability removes repeated tags, keeping first occurrences in order.
func UniqueAvailability(in []Availability) []Availability {
	out := make([]Availability, 0, len(in))
	seen := make(map[Availability]bool, len(in))
	for _, a := range in {
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
