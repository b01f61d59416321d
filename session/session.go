// ABOUTME: Edit session: stages changes to one person and commits them on save
// ABOUTME: Empty text drafts never erase stored values; labeled sequences overwrite
package session

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/harperreed/contactshq/models"
)

var (
	ErrValidationBlocked = errors.New("save blocked: given name is required")
	ErrSessionClosed     = errors.New("edit session is closed")
	ErrRowNotFound       = errors.New("row not found")
)

type State int

const (
	Editing State = iota
	Saved
	Cancelled
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Saved:
		return "saved"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Store is the write surface a session commits through.
type Store interface {
	Insert(ctx context.Context, p *models.Person) error
	Update(ctx context.Context, p *models.Person) error
}

type Session struct {
	person  *models.Person
	seed    *models.Person
	draft   Draft
	initial Draft
	state   State
}

// New starts a session for a person that does not exist yet.
func New() *Session {
	d := Draft{Type: models.DefaultPersonType, rows: make(map[models.Category][]Row)}
	return &Session{draft: d, initial: d.clone()}
}

// ForPerson starts a session seeded from a stored person. The person is copied;
// nothing is written back until Save.
func ForPerson(p *models.Person) *Session {
	d := draftFrom(p)
	return &Session{person: p.Clone(), draft: d, initial: d.clone()}
}

func (s *Session) State() State { return s.state }

// IsNew reports whether saving will create a person.
func (s *Session) IsNew() bool { return s.person == nil }

// Person returns the person as last loaded or saved; nil for a new session before save.
func (s *Session) Person() *models.Person {
	return s.person.Clone()
}

// Draft returns a copy of the staged fields.
func (s *Session) Draft() Draft {
	return s.draft.clone()
}

// Dirty reports whether the draft differs from what the session was loaded with.
func (s *Session) Dirty() bool {
	return !s.draft.equal(s.initial)
}

// CanSave is false while the given name draft is blank.
func (s *Session) CanSave() bool {
	return strings.TrimSpace(s.draft.GivenName) != ""
}

// Cancel discards the draft.
func (s *Session) Cancel() {
	if s.state == Editing {
		s.state = Cancelled
	}
}

// Save commits the draft. A persistence failure leaves the session editable so the
// caller can retry.
func (s *Session) Save(ctx context.Context, store Store) (*models.Person, error) {
	if s.state != Editing {
		return nil, ErrSessionClosed
	}
	if !s.CanSave() {
		return nil, ErrValidationBlocked
	}

	if s.person != nil {
		p := s.person.Clone()
		s.apply(p)
		if err := store.Update(ctx, p); err != nil {
			return nil, err
		}
		return s.finish(p), nil
	}

	if s.seed == nil {
		s.seed = models.NewPerson(strings.TrimSpace(s.draft.GivenName), s.draft.Type)
		s.seed.Groups = []string{}
	}
	p := s.seed.Clone()
	s.apply(p)
	if err := store.Insert(ctx, p); err != nil {
		return nil, err
	}
	return s.finish(p), nil
}

func (s *Session) finish(p *models.Person) *models.Person {
	s.person = p
	s.state = Saved
	return p.Clone()
}

// apply merges the draft into p.
func (s *Session) apply(p *models.Person) {
	d := s.draft
	if v := strings.TrimSpace(d.GivenName); v != "" {
		p.GivenName = v
	}
	if v := strings.TrimSpace(d.FamilyName); v != "" {
		p.FamilyName = &v
	}
	if v := strings.TrimSpace(d.Company); v != "" {
		p.Company = &v
	}
	if v := strings.TrimSpace(d.Note); v != "" {
		p.Note = &v
	}

	for _, cat := range models.Categories {
		p.SetValues(cat, toValues(d.rows[cat]))
	}

	p.Type = d.Type
	if d.Language != nil {
		lang := *d.Language
		p.PreferredLanguage = &lang
	} else {
		p.PreferredLanguage = nil
	}
	p.Availability = models.UniqueAvailability(d.Availability)
	if d.Birthday != nil {
		b := models.DateOnly(*d.Birthday)
		p.Birthday = &b
	} else {
		p.Birthday = nil
	}
}

func (s *Session) editable() error {
	if s.state != Editing {
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) SetGivenName(v string) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.draft.GivenName = v
	return nil
}

func (s *Session) SetFamilyName(v string) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.draft.FamilyName = v
	return nil
}

func (s *Session) SetCompany(v string) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.draft.Company = v
	return nil
}

func (s *Session) SetNote(v string) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.draft.Note = v
	return nil
}

func (s *Session) SetType(t models.PersonType) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.draft.Type = t
	return nil
}

// SetLanguage sets the preferred language; nil clears it.
func (s *Session) SetLanguage(l *models.Language) error {
	if err := s.editable(); err != nil {
		return err
	}
	if l == nil {
		s.draft.Language = nil
		return nil
	}
	lang := *l
	s.draft.Language = &lang
	return nil
}

// ToggleAvailability adds the tag if absent and removes it otherwise.
func (s *Session) ToggleAvailability(a models.Availability) error {
	if err := s.editable(); err != nil {
		return err
	}
	if i := slices.Index(s.draft.Availability, a); i >= 0 {
		s.draft.Availability = slices.Delete(slices.Clone(s.draft.Availability), i, i+1)
		return nil
	}
	s.draft.Availability = append(slices.Clone(s.draft.Availability), a)
	return nil
}

func (s *Session) SetBirthday(t time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	b := models.DateOnly(t)
	s.draft.Birthday = &b
	return nil
}

func (s *Session) ClearBirthday() error {
	if err := s.editable(); err != nil {
		return err
	}
	s.draft.Birthday = nil
	return nil
}

// SetAvailability replaces the availability tags. Duplicates collapse.
func (s *Session) SetAvailability(tags []models.Availability) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.draft.Availability = models.UniqueAvailability(tags)
	return nil
}
