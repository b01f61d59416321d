// ABOUTME: People MCP tool handlers
// ABOUTME: List, read, create, update and delete people through the gateway and edit sessions
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/labels"
	"github.com/harperreed/contactshq/models"
	"github.com/harperreed/contactshq/session"
)

type PeopleHandlers struct {
	gw *gateway.Gateway
}

func NewPeopleHandlers(gw *gateway.Gateway) *PeopleHandlers {
	return &PeopleHandlers{gw: gw}
}

type LabeledValueInput struct {
	Label *string `json:"label,omitempty" jsonschema:"Label such as home or work; omit to take the next free label"`
	Value string  `json:"value" jsonschema:"The phone number, address, URL or name"`
}

// PersonFields are the editable fields. Empty text leaves the stored value alone;
// a present list replaces that whole sequence and an empty list clears it.
type PersonFields struct {
	GivenName        string              `json:"given_name,omitempty" jsonschema:"Given name (required when adding)"`
	FamilyName       string              `json:"family_name,omitempty" jsonschema:"Family name"`
	Company          string              `json:"company,omitempty" jsonschema:"Company"`
	Note             string              `json:"note,omitempty" jsonschema:"Free-form note"`
	Type             string              `json:"type,omitempty" jsonschema:"family, friend, acquaintance, business or client"`
	Language         *string             `json:"language,omitempty" jsonschema:"english or spanish; empty string clears"`
	Availability     []string            `json:"availability,omitempty" jsonschema:"Any of morning, evening, night"`
	Birthday         *string             `json:"birthday,omitempty" jsonschema:"Birthday as YYYY-MM-DD; empty string clears"`
	PhoneNumbers     []LabeledValueInput `json:"phone_numbers,omitempty" jsonschema:"Phone numbers"`
	EmailAddresses   []LabeledValueInput `json:"email_addresses,omitempty" jsonschema:"Email addresses"`
	SocialProfiles   []LabeledValueInput `json:"social_profiles,omitempty" jsonschema:"Social profiles"`
	PostalAddresses  []LabeledValueInput `json:"postal_addresses,omitempty" jsonschema:"Postal addresses"`
	URLAddresses     []LabeledValueInput `json:"url_addresses,omitempty" jsonschema:"Web addresses"`
	ContactRelations []LabeledValueInput `json:"contact_relations,omitempty" jsonschema:"Related people by name"`
}

func (f PersonFields) sequence(cat models.Category) []LabeledValueInput {
	switch cat {
	case models.CategoryPhoneNumber:
		return f.PhoneNumbers
	case models.CategoryEmail:
		return f.EmailAddresses
	case models.CategorySocialProfile:
		return f.SocialProfiles
	case models.CategoryPostalAddress:
		return f.PostalAddresses
	case models.CategoryURL:
		return f.URLAddresses
	case models.CategoryRelation:
		return f.ContactRelations
	}
	return nil
}

type LabeledValueOutput struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type PersonOutput struct {
	ID               string               `json:"id"`
	GivenName        string               `json:"given_name"`
	FamilyName       string               `json:"family_name,omitempty"`
	FullName         string               `json:"full_name"`
	Company          string               `json:"company,omitempty"`
	Note             string               `json:"note,omitempty"`
	Type             string               `json:"type"`
	Language         string               `json:"language,omitempty"`
	Availability     []string             `json:"availability"`
	Birthday         string               `json:"birthday,omitempty"`
	PhoneNumbers     []LabeledValueOutput `json:"phone_numbers"`
	EmailAddresses   []LabeledValueOutput `json:"email_addresses"`
	SocialProfiles   []LabeledValueOutput `json:"social_profiles"`
	PostalAddresses  []LabeledValueOutput `json:"postal_addresses"`
	URLAddresses     []LabeledValueOutput `json:"url_addresses"`
	ContactRelations []LabeledValueOutput `json:"contact_relations"`
	Groups           []string             `json:"groups"`
	ExternalID       string               `json:"external_id,omitempty"`
	CreatedAt        string               `json:"created_at"`
	UpdatedAt        string               `json:"updated_at"`
}

type ListPeopleInput struct {
	Query string `json:"query,omitempty" jsonschema:"Match given names (case and accent insensitive)"`
	Group string `json:"group,omitempty" jsonschema:"Only people in this group"`
	Sort  string `json:"sort,omitempty" jsonschema:"given (default), family, created or none"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type ListPeopleOutput struct {
	People []PersonOutput `json:"people"`
	Total  int            `json:"total"`
}

type GetPersonInput struct {
	ID string `json:"id" jsonschema:"Person UUID"`
}

type UpdatePersonInput struct {
	ID      string       `json:"id" jsonschema:"Person UUID"`
	Changes PersonFields `json:"changes" jsonschema:"Fields to change"`
}

type DeletePersonInput struct {
	ID string `json:"id" jsonschema:"Person UUID"`
}

type DeletePersonOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type NextLabelInput struct {
	Category string   `json:"category" jsonschema:"phone, email, social, postal, url or relation"`
	Used     []string `json:"used,omitempty" jsonschema:"Labels already taken on the person"`
}

type NextLabelOutput struct {
	Label   string   `json:"label"`
	Catalog []string `json:"catalog"`
}

const defaultListLimit = 50

func (h *PeopleHandlers) ListPeople(ctx context.Context, request *mcp.CallToolRequest, input ListPeopleInput) (*mcp.CallToolResult, ListPeopleOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := gateway.GivenNameContains(input.Query)
	if input.Group != "" {
		filter = gateway.And(filter, gateway.InGroup(input.Group))
	}
	people := h.gw.Fetch(ctx, gateway.FetchOptions{Filter: filter, Sort: gateway.ParseSortKey(input.Sort)})

	out := ListPeopleOutput{People: []PersonOutput{}, Total: len(people)}
	for i, p := range people {
		if i == limit {
			break
		}
		out.People = append(out.People, personToOutput(p))
	}
	return nil, out, nil
}

func (h *PeopleHandlers) GetPerson(ctx context.Context, request *mcp.CallToolRequest, input GetPersonInput) (*mcp.CallToolResult, PersonOutput, error) {
	p, err := h.load(ctx, input.ID)
	if err != nil {
		return nil, PersonOutput{}, err
	}
	return nil, personToOutput(p), nil
}

func (h *PeopleHandlers) AddPerson(ctx context.Context, request *mcp.CallToolRequest, input PersonFields) (*mcp.CallToolResult, PersonOutput, error) {
	if strings.TrimSpace(input.GivenName) == "" {
		return nil, PersonOutput{}, fmt.Errorf("given_name is required")
	}

	s := session.New()
	if err := applyFields(s, input); err != nil {
		return nil, PersonOutput{}, err
	}
	p, err := s.Save(ctx, h.gw)
	if err != nil {
		return nil, PersonOutput{}, fmt.Errorf("failed to create person: %w", err)
	}
	return nil, personToOutput(p), nil
}

func (h *PeopleHandlers) UpdatePerson(ctx context.Context, request *mcp.CallToolRequest, input UpdatePersonInput) (*mcp.CallToolResult, PersonOutput, error) {
	existing, err := h.load(ctx, input.ID)
	if err != nil {
		return nil, PersonOutput{}, err
	}

	s := session.ForPerson(existing)
	if err := applyFields(s, input.Changes); err != nil {
		return nil, PersonOutput{}, err
	}
	if !s.Dirty() {
		return nil, personToOutput(existing), nil
	}

	p, err := s.Save(ctx, h.gw)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, PersonOutput{}, fmt.Errorf("person not found: %s", input.ID)
	}
	if err != nil {
		return nil, PersonOutput{}, fmt.Errorf("failed to update person: %w", err)
	}
	return nil, personToOutput(p), nil
}

func (h *PeopleHandlers) DeletePerson(ctx context.Context, request *mcp.CallToolRequest, input DeletePersonInput) (*mcp.CallToolResult, DeletePersonOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, DeletePersonOutput{}, fmt.Errorf("invalid id: %w", err)
	}
	if err := h.gw.Delete(ctx, id); err != nil {
		return nil, DeletePersonOutput{}, fmt.Errorf("failed to delete person: %w", err)
	}
	return nil, DeletePersonOutput{ID: id.String(), Deleted: true}, nil
}

func (h *PeopleHandlers) NextLabel(_ context.Context, request *mcp.CallToolRequest, input NextLabelInput) (*mcp.CallToolResult, NextLabelOutput, error) {
	cat, err := models.ParseCategory(input.Category)
	if err != nil {
		return nil, NextLabelOutput{}, err
	}
	return nil, NextLabelOutput{
		Label:   labels.NextLabel(cat, input.Used),
		Catalog: append([]string{}, labels.Catalog(cat)...),
	}, nil
}

func (h *PeopleHandlers) load(ctx context.Context, ref string) (*models.Person, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	p, err := h.gw.Get(ctx, id)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, fmt.Errorf("person not found: %s", ref)
	}
	return p, err
}

func applyFields(s *session.Session, f PersonFields) error {
	if f.GivenName != "" {
		if err := s.SetGivenName(f.GivenName); err != nil {
			return err
		}
	}
	if f.FamilyName != "" {
		if err := s.SetFamilyName(f.FamilyName); err != nil {
			return err
		}
	}
	if f.Company != "" {
		if err := s.SetCompany(f.Company); err != nil {
			return err
		}
	}
	if f.Note != "" {
		if err := s.SetNote(f.Note); err != nil {
			return err
		}
	}

	if f.Type != "" {
		t, err := models.ParsePersonType(f.Type)
		if err != nil {
			return err
		}
		if err := s.SetType(t); err != nil {
			return err
		}
	}
	if f.Language != nil {
		if strings.TrimSpace(*f.Language) == "" {
			if err := s.SetLanguage(nil); err != nil {
				return err
			}
		} else {
			l, err := models.ParseLanguage(*f.Language)
			if err != nil {
				return err
			}
			if err := s.SetLanguage(&l); err != nil {
				return err
			}
		}
	}
	if f.Availability != nil {
		tags := make([]models.Availability, 0, len(f.Availability))
		for _, raw := range f.Availability {
			a, err := models.ParseAvailability(raw)
			if err != nil {
				return err
			}
			tags = append(tags, a)
		}
		if err := s.SetAvailability(tags); err != nil {
			return err
		}
	}
	if f.Birthday != nil {
		if strings.TrimSpace(*f.Birthday) == "" {
			if err := s.ClearBirthday(); err != nil {
				return err
			}
		} else {
			b, err := time.Parse(time.DateOnly, strings.TrimSpace(*f.Birthday))
			if err != nil {
				return fmt.Errorf("invalid birthday (want YYYY-MM-DD): %w", err)
			}
			if err := s.SetBirthday(b); err != nil {
				return err
			}
		}
	}

	for _, cat := range models.Categories {
		in := f.sequence(cat)
		if in == nil {
			continue
		}
		values := make([]models.LabeledValue, len(in))
		for i, v := range in {
			values[i] = models.LabeledValue{Label: v.Label, Value: strings.TrimSpace(v.Value)}
		}
		if err := s.ReplaceRows(cat, values); err != nil {
			return err
		}
	}
	return nil
}

func personToOutput(p *models.Person) PersonOutput {
	out := PersonOutput{
		ID:               p.ID().String(),
		GivenName:        p.GivenName,
		FamilyName:       models.Deref(p.FamilyName),
		FullName:         p.FullName(),
		Company:          models.Deref(p.Company),
		Note:             models.Deref(p.Note),
		Type:             string(p.Type),
		Availability:     []string{},
		PhoneNumbers:     valuesToOutput(p.PhoneNumbers),
		EmailAddresses:   valuesToOutput(p.EmailAddresses),
		SocialProfiles:   valuesToOutput(p.SocialProfiles),
		PostalAddresses:  valuesToOutput(p.PostalAddresses),
		URLAddresses:     valuesToOutput(p.URLAddresses),
		ContactRelations: valuesToOutput(p.ContactRelations),
		Groups:           append([]string{}, p.Groups...),
		ExternalID:       p.ExternalID,
		CreatedAt:        p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if p.PreferredLanguage != nil {
		out.Language = string(*p.PreferredLanguage)
	}
	for _, a := range p.Availability {
		out.Availability = append(out.Availability, string(a))
	}
	if p.Birthday != nil {
		out.Birthday = p.Birthday.Format(time.DateOnly)
	}
	return out
}

func valuesToOutput(values []models.LabeledValue) []LabeledValueOutput {
	out := make([]LabeledValueOutput, 0, len(values))
	for _, v := range values {
		out = append(out, LabeledValueOutput{Label: v.LabelText(), Value: v.Value})
	}
	return out
}
