// ABOUTME: Contact source backed by the Google People API
// ABOUTME: Pages through all connections; any page failure fails the whole enumeration
package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/harperreed/contactshq/contacts"
)

const (
	pageSize     = 1000
	personFields = "names,emailAddresses,phoneNumbers,organizations,addresses,urls,relations,imClients,birthdays"
)

type Source struct {
	config     *oauth2.Config
	tokens     *TokenStore
	authorize  Authorizer
	clientOpts []option.ClientOption
}

type Option func(*Source)

// WithClientOptions replaces the OAuth HTTP client, e.g. to point at a test server.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(s *Source) { s.clientOpts = opts }
}

func NewSource(cfg *oauth2.Config, tokens *TokenStore, authorize Authorizer, opts ...Option) *Source {
	s := &Source{config: cfg, tokens: tokens, authorize: authorize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Name() string { return "google" }

// AuthorizationStatus is Restricted without client credentials, Authorized with a
// stored token, and NotDetermined otherwise.
func (s *Source) AuthorizationStatus(context.Context) contacts.AuthorizationStatus {
	if s.config == nil || s.config.ClientID == "" || s.config.ClientSecret == "" {
		return contacts.Restricted
	}
	if _, err := s.tokens.Load(); err != nil {
		return contacts.NotDetermined
	}
	return contacts.Authorized
}

// RequestAccess runs the consent flow and stores the resulting token.
func (s *Source) RequestAccess(ctx context.Context) (bool, error) {
	if s.authorize == nil {
		return false, nil
	}
	token, err := s.authorize(ctx, s.config)
	if err != nil {
		return false, err
	}
	if token == nil {
		return false, nil
	}
	if err := s.tokens.Save(token); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Source) Enumerate(ctx context.Context) ([]contacts.ExternalContact, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	var out []contacts.ExternalContact
	pageToken := ""
	for {
		call := svc.People.Connections.List("people/me").
			PageSize(pageSize).
			PersonFields(personFields).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch contacts: %w", err)
		}
		if resp == nil {
			break
		}
		for _, p := range resp.Connections {
			out = append(out, convertPerson(p))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return out, nil
}

func (s *Source) service(ctx context.Context) (*people.Service, error) {
	token, err := s.tokens.Load()
	if err != nil {
		return nil, err
	}
	opts := s.clientOpts
	if len(opts) == 0 {
		if s.config == nil {
			return nil, errors.New("google OAuth credentials not configured")
		}
		opts = []option.ClientOption{option.WithHTTPClient(s.config.Client(ctx, token))}
	}
	svc, err := people.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}
	return svc, nil
}

// convertPerson maps a People API person onto an external contact. Labels are the
// API's raw type tokens (e.g. "homeFax"), localized later by the importer.
func convertPerson(p *people.Person) contacts.ExternalContact {
	c := contacts.ExternalContact{Identifier: p.ResourceName}

	if len(p.Names) > 0 {
		n := p.Names[0]
		c.GivenName = n.GivenName
		c.FamilyName = n.FamilyName
		if c.GivenName == "" && c.FamilyName == "" {
			c.GivenName = n.DisplayName
		}
	}
	if len(p.Organizations) > 0 {
		c.Organization = p.Organizations[0].Name
	}

	for _, ph := range p.PhoneNumbers {
		if ph.Value != "" {
			c.PhoneNumbers = append(c.PhoneNumbers, contacts.LabeledString{Label: ph.Type, Value: ph.Value})
		}
	}
	for _, e := range p.EmailAddresses {
		if e.Value != "" {
			c.EmailAddresses = append(c.EmailAddresses, contacts.LabeledString{Label: e.Type, Value: e.Value})
		}
	}
	for _, u := range p.Urls {
		if u.Value != "" {
			c.URLAddresses = append(c.URLAddresses, contacts.LabeledString{Label: u.Type, Value: u.Value})
		}
	}
	for _, r := range p.Relations {
		if r.Person != "" {
			c.ContactRelations = append(c.ContactRelations, contacts.LabeledString{Label: r.Type, Value: r.Person})
		}
	}
	for _, a := range p.Addresses {
		street := a.StreetAddress
		if a.ExtendedAddress != "" {
			street += " " + a.ExtendedAddress
		}
		c.PostalAddresses = append(c.PostalAddresses, contacts.LabeledAddress{
			Label: a.Type,
			Address: contacts.PostalAddress{
				Street:     street,
				City:       a.City,
				State:      a.Region,
				PostalCode: a.PostalCode,
				Country:    a.Country,
			},
		})
	}
	for _, im := range p.ImClients {
		service := im.FormattedProtocol
		if service == "" {
			service = im.Protocol
		}
		c.SocialProfiles = append(c.SocialProfiles, contacts.LabeledProfile{
			Label:   im.Protocol,
			Profile: contacts.SocialProfile{Service: service, Username: im.Username},
		})
	}

	for _, b := range p.Birthdays {
		if b.Date != nil && b.Date.Month > 0 && b.Date.Day > 0 {
			t := time.Date(int(b.Date.Year), time.Month(b.Date.Month), int(b.Date.Day), 0, 0, 0, 0, time.UTC)
			c.Birthday = &t
			break
		}
	}
	return c
}
