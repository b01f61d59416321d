// ABOUTME: Data model for the Person entity
// ABOUTME: Identity is fixed at creation; cloning, per-category access and string pointer helpers
package models

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGivenNameRequired = errors.New("given name is required")
	ErrUnknownValue      = errors.New("unknown value")
)

type Person struct {
	id                uuid.UUID
	GivenName         string         `json:"given_name"`
	FamilyName        *string        `json:"family_name,omitempty"`
	Company           *string        `json:"company,omitempty"`
	PhoneNumbers      []LabeledValue `json:"phone_numbers"`
	EmailAddresses    []LabeledValue `json:"email_addresses"`
	SocialProfiles    []LabeledValue `json:"social_profiles"`
	PostalAddresses   []LabeledValue `json:"postal_addresses"`
	URLAddresses      []LabeledValue `json:"url_addresses"`
	ContactRelations  []LabeledValue `json:"contact_relations"`
	Note              *string        `json:"note,omitempty"`
	ImageData         []byte         `json:"image_data,omitempty"`
	Type              PersonType     `json:"type"`
	PreferredLanguage *Language      `json:"preferred_language,omitempty"`
	Availability      []Availability `json:"availability"`
	Birthday          *time.Time     `json:"birthday,omitempty"`
	Groups            []string       `json:"groups"`
	ExternalID        string         `json:"external_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewPerson creates a person with a freshly assigned identifier.
func NewPerson(givenName string, personType PersonType) *Person {
	return &Person{
		id:        uuid.New(),
		GivenName: givenName,
		Type:      personType,
	}
}

// RestorePerson rebuilds a person loaded from storage with its persisted identifier.
// Only stores should call it; everything else goes through NewPerson.
func RestorePerson(id uuid.UUID) *Person {
	return &Person{id: id, Type: DefaultPersonType}
}

// ID is fixed at creation; there is deliberately no setter.
func (p *Person) ID() uuid.UUID {
	return p.id
}

// MarshalJSON adds the unexported identifier as "id".
func (p Person) MarshalJSON() ([]byte, error) {
	type person Person
	return json.Marshal(struct {
		ID uuid.UUID `json:"id"`
		person
	}{ID: p.id, person: person(p)})
}

func (p *Person) FullName() string {
	if p.FamilyName == nil || *p.FamilyName == "" {
		return p.GivenName
	}
	return p.GivenName + " " + *p.FamilyName
}

// Validate reports whether the person can be saved.
func (p *Person) Validate() error {
	if strings.TrimSpace(p.GivenName) == "" {
		return ErrGivenNameRequired
	}
	return nil
}

// Clone returns a deep copy sharing no mutable state with p.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	c := *p
	c.FamilyName = cloneString(p.FamilyName)
	c.Company = cloneString(p.Company)
	c.Note = cloneString(p.Note)
	c.ImageData = slices.Clone(p.ImageData)
	if p.PreferredLanguage != nil {
		lang := *p.PreferredLanguage
		c.PreferredLanguage = &lang
	}
	if p.Birthday != nil {
		b := *p.Birthday
		c.Birthday = &b
	}
	c.Availability = slices.Clone(p.Availability)
	c.Groups = slices.Clone(p.Groups)
	for _, cat := range Categories {
		c.SetValues(cat, slices.Clone(p.Values(cat)))
	}
	return &c
}

// Values returns the labeled sequence for a field category.
func (p *Person) Values(cat Category) []LabeledValue {
	switch cat {
	case CategoryPhoneNumber:
		return p.PhoneNumbers
	case CategoryEmail:
		return p.EmailAddresses
	case CategorySocialProfile:
		return p.SocialProfiles
	case CategoryPostalAddress:
		return p.PostalAddresses
	case CategoryURL:
		return p.URLAddresses
	case CategoryRelation:
		return p.ContactRelations
	}
	return nil
}

// SetValues replaces the labeled sequence for a field category.
func (p *Person) SetValues(cat Category, values []LabeledValue) {
	switch cat {
	case CategoryPhoneNumber:
		p.PhoneNumbers = values
	case CategoryEmail:
		p.EmailAddresses = values
	case CategorySocialProfile:
		p.SocialProfiles = values
	case CategoryPostalAddress:
		p.PostalAddresses = values
	case CategoryURL:
		p.URLAddresses = values
	case CategoryRelation:
		p.ContactRelations = values
	}
}

// HasAvailability reports whether the tag is set on the person.
func (p *Person) HasAvailability(a Availability) bool {
	return slices.Contains(p.Availability, a)
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// DateOnly strips the clock from t, keeping the calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
