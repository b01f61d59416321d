// ABOUTME: Contact source contract: authorization state and raw external contact records
// ABOUTME: Implemented by the vCard file reader and the Google People client
package contacts

import (
	"context"
	"strings"
	"time"
)

type AuthorizationStatus int

const (
	NotDetermined AuthorizationStatus = iota
	Restricted
	Denied
	Authorized
	Limited
)

func (s AuthorizationStatus) String() string {
	switch s {
	case NotDetermined:
		return "not determined"
	case Restricted:
		return "restricted"
	case Denied:
		return "denied"
	case Authorized:
		return "authorized"
	case Limited:
		return "limited"
	}
	return "unknown"
}

// CanEnumerate reports whether the status permits reading contacts.
func (s AuthorizationStatus) CanEnumerate() bool {
	return s == Authorized || s == Limited
}

// Source is an external address book.
type Source interface {
	// Name identifies the source in import status records.
	Name() string
	AuthorizationStatus(ctx context.Context) AuthorizationStatus
	// RequestAccess blocks until the user or platform gives a definite answer.
	RequestAccess(ctx context.Context) (bool, error)
	// Enumerate returns every contact or an error; never a partial list.
	Enumerate(ctx context.Context) ([]ExternalContact, error)
}

// ExternalContact is one address-book entry as the source reports it. Labels are
// raw source identifiers, localized during import.
type ExternalContact struct {
	Identifier       string
	GivenName        string
	FamilyName       string
	Organization     string
	PhoneNumbers     []LabeledString
	EmailAddresses   []LabeledString
	SocialProfiles   []LabeledProfile
	PostalAddresses  []LabeledAddress
	URLAddresses     []LabeledString
	ContactRelations []LabeledString
	ImageData        []byte
	Birthday         *time.Time
}

type LabeledString struct {
	Label string
	Value string
}

type LabeledAddress struct {
	Label   string
	Address PostalAddress
}

type LabeledProfile struct {
	Label   string
	Profile SocialProfile
}

type PostalAddress struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// String joins the non-empty components with ", ".
func (a PostalAddress) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.PostalCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type SocialProfile struct {
	Service  string
	Username string
	URL      string
}

// String prefers the profile URL, then service:username, then the bare username.
func (s SocialProfile) String() string {
	switch {
	case s.URL != "":
		return s.URL
	case s.Service != "" && s.Username != "":
		return s.Service + ":" + s.Username
	default:
		return s.Username
	}
}
