// ABOUTME: Form-shaped draft state and labeled-value rows for the edit session
// ABOUTME: Rows carry ULIDs so list views can diff them while the user edits
package session

import (
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/harperreed/contactshq/labels"
	"github.com/harperreed/contactshq/models"
)

// Row is one editable labeled value. ID is synthetic and never persisted.
type Row struct {
	ID    string
	Label *string
	Value string
}

func (r Row) LabelText() string {
	return models.Deref(r.Label)
}

// Blank rows are dropped on save.
func (r Row) Blank() bool {
	return r.Value == ""
}

type Draft struct {
	GivenName    string
	FamilyName   string
	Company      string
	Note         string
	Type         models.PersonType
	Language     *models.Language
	Availability []models.Availability
	Birthday     *time.Time
	rows         map[models.Category][]Row
}

// Rows returns a copy of the rows staged for a category.
func (d Draft) Rows(cat models.Category) []Row {
	return slices.Clone(d.rows[cat])
}

func draftFrom(p *models.Person) Draft {
	d := Draft{
		GivenName:    p.GivenName,
		FamilyName:   models.Deref(p.FamilyName),
		Company:      models.Deref(p.Company),
		Note:         models.Deref(p.Note),
		Type:         p.Type,
		Availability: slices.Clone(p.Availability),
		rows:         make(map[models.Category][]Row, len(models.Categories)),
	}
	if d.Type == "" {
		d.Type = models.DefaultPersonType
	}
	if p.PreferredLanguage != nil {
		lang := *p.PreferredLanguage
		d.Language = &lang
	}
	if p.Birthday != nil {
		b := *p.Birthday
		d.Birthday = &b
	}
	for _, cat := range models.Categories {
		for _, lv := range p.Values(cat) {
			if lv.IsBlank() {
				continue
			}
			d.rows[cat] = append(d.rows[cat], Row{ID: newRowID(), Label: cloneLabel(lv.Label), Value: lv.Value})
		}
	}
	return d
}

func (d Draft) clone() Draft {
	c := d
	c.Availability = slices.Clone(d.Availability)
	if d.Language != nil {
		lang := *d.Language
		c.Language = &lang
	}
	if d.Birthday != nil {
		b := *d.Birthday
		c.Birthday = &b
	}
	c.rows = make(map[models.Category][]Row, len(d.rows))
	for cat, rows := range d.rows {
		out := make([]Row, len(rows))
		for i, r := range rows {
			out[i] = Row{ID: r.ID, Label: cloneLabel(r.Label), Value: r.Value}
		}
		c.rows[cat] = out
	}
	return c
}

func (d Draft) equal(o Draft) bool {
	if d.GivenName != o.GivenName || d.FamilyName != o.FamilyName ||
		d.Company != o.Company || d.Note != o.Note || d.Type != o.Type {
		return false
	}
	if (d.Language == nil) != (o.Language == nil) || (d.Language != nil && *d.Language != *o.Language) {
		return false
	}
	if (d.Birthday == nil) != (o.Birthday == nil) || (d.Birthday != nil && !d.Birthday.Equal(*o.Birthday)) {
		return false
	}
	if !slices.Equal(d.Availability, o.Availability) {
		return false
	}
	for _, cat := range models.Categories {
		a, b := d.rows[cat], o.rows[cat]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i].ID != b[i].ID || a[i].Value != b[i].Value || !sameLabel(a[i].Label, b[i].Label) {
				return false
			}
		}
	}
	return true
}

func toValues(rows []Row) []models.LabeledValue {
	out := make([]models.LabeledValue, 0, len(rows))
	for _, r := range rows {
		if r.Blank() {
			continue
		}
		out = append(out, models.LabeledValue{Label: cloneLabel(r.Label), Value: r.Value})
	}
	return out
}

func newRowID() string {
	return ulid.Make().String()
}

func sameLabel(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneLabel(l *string) *string {
	if l == nil {
		return nil
	}
	v := *l
	return &v
}

// AddRow appends an empty row labeled with the next unused catalog label.
func (s *Session) AddRow(cat models.Category) (Row, error) {
	if err := s.editable(); err != nil {
		return Row{}, err
	}
	used := make([]string, 0, len(s.draft.rows[cat]))
	for _, r := range s.draft.rows[cat] {
		used = append(used, r.LabelText())
	}
	label := labels.NextLabel(cat, used)
	row := Row{ID: newRowID(), Label: &label}
	s.draft.rows[cat] = append(slices.Clone(s.draft.rows[cat]), row)
	return row, nil
}

func (s *Session) SetRowLabel(cat models.Category, id, label string) error {
	return s.updateRow(cat, id, func(r *Row) { r.Label = &label })
}

func (s *Session) SetRowValue(cat models.Category, id, value string) error {
	return s.updateRow(cat, id, func(r *Row) { r.Value = value })
}

func (s *Session) RemoveRow(cat models.Category, id string) error {
	if err := s.editable(); err != nil {
		return err
	}
	rows := s.draft.rows[cat]
	i := slices.IndexFunc(rows, func(r Row) bool { return r.ID == id })
	if i < 0 {
		return ErrRowNotFound
	}
	s.draft.rows[cat] = slices.Delete(slices.Clone(rows), i, i+1)
	return nil
}

func (s *Session) updateRow(cat models.Category, id string, fn func(*Row)) error {
	if err := s.editable(); err != nil {
		return err
	}
	rows := s.draft.rows[cat]
	i := slices.IndexFunc(rows, func(r Row) bool { return r.ID == id })
	if i < 0 {
		return ErrRowNotFound
	}
	rows = slices.Clone(rows)
	fn(&rows[i])
	s.draft.rows[cat] = rows
	return nil
}

type LabelKind int

const (
	LabelCanonical LabelKind = iota
	LabelCustom
)

// LabelChoice tells an editor whether to show label as a pick from the catalog or
// as free text.
func LabelChoice(cat models.Category, label string) LabelKind {
	if labels.IsCanonical(cat, label) {
		return LabelCanonical
	}
	return LabelCustom
}

// ReplaceRows swaps every row of a category for values. A value without a label
// takes the first catalog label no other value uses and stays unlabeled once none is left.
func (s *Session) ReplaceRows(cat models.Category, values []models.LabeledValue) error {
	if err := s.editable(); err != nil {
		return err
	}
	used := make([]string, 0, len(values))
	for _, v := range values {
		if v.Label != nil {
			used = append(used, *v.Label)
		}
	}
	rows := make([]Row, 0, len(values))
	for _, v := range values {
		label := cloneLabel(v.Label)
		if label == nil {
			if next := labels.NextLabel(cat, used); next != "" {
				label = &next
				used = append(used, next)
			}
		}
		rows = append(rows, Row{ID: newRowID(), Label: label, Value: v.Value})
	}
	s.draft.rows[cat] = rows
	return nil
}
