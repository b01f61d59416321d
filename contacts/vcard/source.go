// ABOUTME: Contact source backed by an exported address book (.vcf) file
// ABOUTME: Parses vCard 3/4 with emersion/go-vcard, including Apple item-group labels
package vcard

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	govcard "github.com/emersion/go-vcard"

	"github.com/harperreed/contactshq/contacts"
)

const (
	fieldAppleLabel   = "X-ABLABEL"
	fieldAppleRelated = "X-ABRELATEDNAMES"
	fieldSocial       = "X-SOCIALPROFILE"
	paramUser         = "X-USER"
)

// Source reads contacts from a vCard file on disk.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Name() string { return "vcard" }

// AuthorizationStatus maps file access onto the address-book permission model:
// readable is Authorized, permission errors are Denied, a missing file is Restricted.
func (s *Source) AuthorizationStatus(context.Context) contacts.AuthorizationStatus {
	f, err := os.Open(s.path)
	switch {
	case err == nil:
		_ = f.Close()
		return contacts.Authorized
	case errors.Is(err, fs.ErrPermission):
		return contacts.Denied
	default:
		return contacts.Restricted
	}
}

// RequestAccess cannot prompt for a file; it reports the current state.
func (s *Source) RequestAccess(ctx context.Context) (bool, error) {
	return s.AuthorizationStatus(ctx).CanEnumerate(), nil
}

func (s *Source) Enumerate(ctx context.Context) ([]contacts.ExternalContact, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(ctx, f)
}

// Decode parses every card in r. Any malformed card fails the whole read.
func Decode(ctx context.Context, r io.Reader) ([]contacts.ExternalContact, error) {
	dec := govcard.NewDecoder(r)
	var out []contacts.ExternalContact
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		card, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode card %d: %w", len(out)+1, err)
		}
		out = append(out, toExternal(card))
	}
	return out, nil
}

func toExternal(card govcard.Card) contacts.ExternalContact {
	c := contacts.ExternalContact{
		Identifier: card.Value(govcard.FieldUID),
	}
	if n := card.Name(); n != nil {
		c.GivenName = n.GivenName
		c.FamilyName = n.FamilyName
	} else if fn := card.Value(govcard.FieldFormattedName); fn != "" {
		c.GivenName = fn
	}
	if org := card.Value(govcard.FieldOrganization); org != "" {
		c.Organization = strings.SplitN(org, ";", 2)[0]
	}

	labels := groupLabels(card)
	c.PhoneNumbers = labeledStrings(card, labels, govcard.FieldTelephone)
	c.EmailAddresses = labeledStrings(card, labels, govcard.FieldEmail)
	c.URLAddresses = labeledStrings(card, labels, govcard.FieldURL)
	c.ContactRelations = append(
		labeledStrings(card, labels, govcard.FieldRelated),
		labeledStrings(card, labels, fieldAppleRelated)...)

	for _, a := range card.Addresses() {
		c.PostalAddresses = append(c.PostalAddresses, contacts.LabeledAddress{
			Label: fieldLabel(a.Field, labels),
			Address: contacts.PostalAddress{
				Street:     joinNonEmpty(" ", a.StreetAddress, a.ExtendedAddress),
				City:       a.Locality,
				State:      a.Region,
				PostalCode: a.PostalCode,
				Country:    a.Country,
			},
		})
	}

	for _, f := range card[fieldSocial] {
		service := firstType(f)
		c.SocialProfiles = append(c.SocialProfiles, contacts.LabeledProfile{
			Label:   service,
			Profile: socialProfile(service, f),
		})
	}

	if bday := card.Value(govcard.FieldBirthday); bday != "" {
		if t, ok := parseBirthday(bday); ok {
			c.Birthday = &t
		}
	}
	if photo := card.Get(govcard.FieldPhoto); photo != nil {
		c.ImageData = decodePhoto(photo)
	}
	return c
}

// groupLabels collects Apple-style "itemN.X-ABLabel" labels keyed by group.
func groupLabels(card govcard.Card) map[string]string {
	out := make(map[string]string)
	for _, f := range card[fieldAppleLabel] {
		if f.Group != "" {
			out[strings.ToLower(f.Group)] = f.Value
		}
	}
	return out
}

func labeledStrings(card govcard.Card, labels map[string]string, name string) []contacts.LabeledString {
	var out []contacts.LabeledString
	for _, f := range card[name] {
		out = append(out, contacts.LabeledString{Label: fieldLabel(f, labels), Value: f.Value})
	}
	return out
}

// ignoredTypes carry no display meaning.
var ignoredTypes = map[string]bool{
	"pref": true, "voice": true, "internet": true, "x400": true, "text": true, "msg": true,
}

// fieldLabel prefers an item-group label, then the TYPE parameters joined into a
// token such as "homefax" that labels.Localize understands.
func fieldLabel(f *govcard.Field, labels map[string]string) string {
	if f == nil {
		return ""
	}
	if f.Group != "" {
		if l, ok := labels[strings.ToLower(f.Group)]; ok {
			return l
		}
	}
	var parts []string
	for _, raw := range f.Params[govcard.ParamType] {
		for _, t := range strings.Split(raw, ",") {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" && !ignoredTypes[t] {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "")
}

func firstType(f *govcard.Field) string {
	for _, raw := range f.Params[govcard.ParamType] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" && !ignoredTypes[strings.ToLower(t)] {
				return t
			}
		}
	}
	return ""
}

func socialProfile(service string, f *govcard.Field) contacts.SocialProfile {
	p := contacts.SocialProfile{Service: service, Username: f.Params.Get(paramUser)}
	v := strings.TrimSpace(f.Value)
	if strings.Contains(v, "://") {
		p.URL = v
	} else if p.Username == "" {
		p.Username = v
	}
	return p
}

var birthdayLayouts = []string{"2006-01-02", "20060102", "2006-01-02T15:04:05Z", "--0102"}

func parseBirthday(s string) (time.Time, bool) {
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// decodePhoto handles inline base64 photos (vCard 3 ENCODING=b and vCard 4 data: URIs).
// Remote photo URLs are not fetched.
func decodePhoto(f *govcard.Field) []byte {
	v := strings.TrimSpace(f.Value)
	if strings.HasPrefix(v, "data:") {
		idx := strings.Index(v, ";base64,")
		if idx < 0 {
			return nil
		}
		v = v[idx+len(";base64,"):]
	} else if enc := strings.ToLower(f.Params.Get("ENCODING")); enc != "b" && enc != "base64" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil
	}
	return data
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
