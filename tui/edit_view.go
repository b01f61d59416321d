// ABOUTME: Person edit form backed by an edit session
// ABOUTME: Text fields, type and language pickers, availability toggles and labeled rows with a label picker
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/contactshq/labels"
	"github.com/harperreed/contactshq/models"
	"github.com/harperreed/contactshq/session"
)

type itemKind int

const (
	itemText itemKind = iota
	itemType
	itemLanguage
	itemAvailability
	itemRow
	itemAddRow
)

const (
	fieldGiven = iota
	fieldFamily
	fieldCompany
	fieldNote
	fieldBirthday
	fieldCount
)

var fieldNames = [fieldCount]string{"Given name", "Family name", "Company", "Note", "Birthday"}

type formItem struct {
	kind  itemKind
	field int
	avail models.Availability
	cat   models.Category
	rowID string
}

type editForm struct {
	session  *session.Session
	inputs   [fieldCount]textinput.Model
	rows     map[string]textinput.Model
	focus    int
	picker   *labelPicker
	err      string
	returnTo ViewMode
}

type labelPicker struct {
	cat     models.Category
	rowID   string
	options []string
	// cursor == len(options) selects a custom label.
	cursor int
	typing bool
	custom textinput.Model
}

var (
	focusedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	formErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	pickerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("170")).
			Padding(0, 1)
)

func newInput(placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 40
	in.SetValue(value)
	return in
}

func newEditForm(s *session.Session, returnTo ViewMode) *editForm {
	d := s.Draft()
	birthday := ""
	if d.Birthday != nil {
		birthday = d.Birthday.Format(time.DateOnly)
	}

	f := &editForm{
		session:  s,
		rows:     make(map[string]textinput.Model),
		returnTo: returnTo,
	}
	f.inputs[fieldGiven] = newInput("Given name (required)", d.GivenName, 100)
	f.inputs[fieldFamily] = newInput("Family name", d.FamilyName, 100)
	f.inputs[fieldCompany] = newInput("Company", d.Company, 100)
	f.inputs[fieldNote] = newInput("Note", d.Note, 500)
	f.inputs[fieldBirthday] = newInput("YYYY-MM-DD", birthday, 10)

	for _, cat := range models.Categories {
		for _, r := range d.Rows(cat) {
			f.rows[r.ID] = newInput("value", r.Value, 200)
		}
	}
	f.updateFocus()
	return f
}

func (m *Model) startEdit(s *session.Session) {
	returnTo := ViewDetail
	if s.IsNew() {
		returnTo = ViewList
	}
	m.form = newEditForm(s, returnTo)
	m.viewMode = ViewEdit
}

// items lists the focusable form entries in display order.
func (f *editForm) items() []formItem {
	items := make([]formItem, 0, fieldCount+8)
	for i := 0; i < fieldCount; i++ {
		items = append(items, formItem{kind: itemText, field: i})
	}
	items = append(items, formItem{kind: itemType}, formItem{kind: itemLanguage})
	for _, a := range models.Availabilities {
		items = append(items, formItem{kind: itemAvailability, avail: a})
	}
	d := f.session.Draft()
	for _, cat := range models.Categories {
		for _, r := range d.Rows(cat) {
			items = append(items, formItem{kind: itemRow, cat: cat, rowID: r.ID})
		}
		items = append(items, formItem{kind: itemAddRow, cat: cat})
	}
	return items
}

func (f *editForm) current() formItem {
	items := f.items()
	f.focus = min(max(f.focus, 0), len(items)-1)
	return items[f.focus]
}

func (f *editForm) move(delta int) {
	n := len(f.items())
	f.focus = (f.focus + delta + n) % n
	f.updateFocus()
}

func (f *editForm) focusRow(rowID string) {
	for i, it := range f.items() {
		if it.kind == itemRow && it.rowID == rowID {
			f.focus = i
		}
	}
	f.updateFocus()
}

func (f *editForm) updateFocus() {
	cur := f.current()
	for i := range f.inputs {
		if cur.kind == itemText && cur.field == i {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	for id, in := range f.rows {
		if cur.kind == itemRow && cur.rowID == id {
			in.Focus()
		} else {
			in.Blur()
		}
		f.rows[id] = in
	}
}

func (f *editForm) rowLabel(cat models.Category, rowID string) string {
	for _, r := range f.session.Draft().Rows(cat) {
		if r.ID == rowID {
			return r.LabelText()
		}
	}
	return ""
}

// apply shows a failed session change in the form's error banner.
func (f *editForm) apply(err error) {
	if err != nil {
		f.err = err.Error()
	}
}

// syncField pushes a text input into the session draft.
func (f *editForm) syncField(field int) error {
	v := f.inputs[field].Value()
	switch field {
	case fieldGiven:
		return f.session.SetGivenName(v)
	case fieldFamily:
		return f.session.SetFamilyName(v)
	case fieldCompany:
		return f.session.SetCompany(v)
	case fieldNote:
		return f.session.SetNote(v)
	case fieldBirthday:
		v = strings.TrimSpace(v)
		if v == "" {
			return f.session.ClearBirthday()
		}
		if b, err := time.Parse(time.DateOnly, v); err == nil {
			return f.session.SetBirthday(b)
		}
	}
	return nil
}

func (f *editForm) birthdayValid() bool {
	v := strings.TrimSpace(f.inputs[fieldBirthday].Value())
	if v == "" {
		return true
	}
	_, err := time.Parse(time.DateOnly, v)
	return err == nil
}

func (f *editForm) cycleType(delta int) {
	types := models.PersonTypes
	i := slices.Index(types, f.session.Draft().Type)
	f.apply(f.session.SetType(types[(i+delta+len(types))%len(types)]))
}

func (f *editForm) cycleLanguage(delta int) {
	options := []*models.Language{nil}
	for _, l := range models.Languages {
		options = append(options, &l)
	}
	cur := f.session.Draft().Language
	i := slices.IndexFunc(options, func(l *models.Language) bool {
		return (l == nil && cur == nil) || (l != nil && cur != nil && *l == *cur)
	})
	f.apply(f.session.SetLanguage(options[(i+delta+len(options))%len(options)]))
}

func (f *editForm) openPicker(cat models.Category, rowID string) {
	label := f.rowLabel(cat, rowID)
	options := labels.Catalog(cat)
	p := &labelPicker{
		cat:     cat,
		rowID:   rowID,
		options: options,
		cursor:  len(options),
		custom:  newInput("custom label", "", 50),
	}
	if session.LabelChoice(cat, label) == session.LabelCanonical {
		p.cursor = slices.Index(options, label)
	} else {
		p.custom.SetValue(label)
	}
	f.picker = p
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil {
		m.viewMode = ViewList
		return m, nil
	}
	if f.picker != nil {
		return m.handlePickerKeys(msg)
	}

	switch msg.String() {
	case "esc":
		f.session.Cancel()
		m.form = nil
		m.viewMode = f.returnTo
		return m, nil
	case "ctrl+s":
		return m.saveForm()
	case "tab", "down":
		f.move(1)
		return m, nil
	case "shift+tab", "up":
		f.move(-1)
		return m, nil
	}

	item := f.current()
	switch item.kind {
	case itemType:
		switch msg.String() {
		case "left", "h":
			f.cycleType(-1)
		case "right", "l", " ", "enter":
			f.cycleType(1)
		}
	case itemLanguage:
		switch msg.String() {
		case "left", "h":
			f.cycleLanguage(-1)
		case "right", "l", " ", "enter":
			f.cycleLanguage(1)
		}
	case itemAvailability:
		switch msg.String() {
		case " ", "enter", "x":
			f.apply(f.session.ToggleAvailability(item.avail))
		}
	case itemAddRow:
		if msg.String() == "enter" || msg.String() == " " {
			row, err := f.session.AddRow(item.cat)
			if err != nil {
				f.err = err.Error()
				return m, nil
			}
			f.rows[row.ID] = newInput("value", "", 200)
			f.focusRow(row.ID)
		}
	case itemRow:
		switch msg.String() {
		case "ctrl+l":
			f.openPicker(item.cat, item.rowID)
			return m, nil
		case "ctrl+d":
			if err := f.session.RemoveRow(item.cat, item.rowID); err != nil {
				f.apply(err)
				return m, nil
			}
			delete(f.rows, item.rowID)
			f.updateFocus()
			return m, nil
		}
		in := f.rows[item.rowID]
		var cmd tea.Cmd
		in, cmd = in.Update(msg)
		f.rows[item.rowID] = in
		f.apply(f.session.SetRowValue(item.cat, item.rowID, in.Value()))
		return m, cmd
	case itemText:
		if msg.String() == "enter" {
			f.move(1)
			return m, nil
		}
		var cmd tea.Cmd
		f.inputs[item.field], cmd = f.inputs[item.field].Update(msg)
		f.err = ""
		f.apply(f.syncField(item.field))
		return m, cmd
	}
	return m, nil
}

func (m Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	p := f.picker

	if p.typing {
		switch msg.String() {
		case "esc":
			p.typing = false
			p.custom.Blur()
		case "enter":
			if label := strings.TrimSpace(p.custom.Value()); label != "" {
				f.apply(f.session.SetRowLabel(p.cat, p.rowID, label))
			}
			f.picker = nil
		default:
			var cmd tea.Cmd
			p.custom, cmd = p.custom.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		f.picker = nil
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.options) {
			p.cursor++
		}
	case "enter":
		if p.cursor < len(p.options) {
			f.apply(f.session.SetRowLabel(p.cat, p.rowID, p.options[p.cursor]))
			f.picker = nil
			return m, nil
		}
		p.typing = true
		p.custom.Focus()
	}
	return m, nil
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	f := m.form
	if !f.birthdayValid() {
		f.err = "Birthday must be YYYY-MM-DD"
		return m, nil
	}

	p, err := f.session.Save(context.Background(), m.gw)
	switch {
	case errors.Is(err, session.ErrValidationBlocked):
		f.err = "Given name is required"
	case err != nil:
		m.banner = fmt.Sprintf("Save failed: %v (ctrl+s to retry)", err)
	default:
		m.banner = ""
		m.form = nil
		m.selected = p
		m.viewMode = ViewDetail
		m.reload()
	}
	return m, nil
}

func (m Model) renderEditView() string {
	f := m.form
	if f == nil {
		return ""
	}
	var s strings.Builder

	// Title
	if f.session.IsNew() {
		s.WriteString(titleStyle.Render("NEW PERSON"))
	} else {
		s.WriteString(titleStyle.Render("EDIT PERSON"))
	}
	s.WriteString("\n\n")

	d := f.session.Draft()
	cur := f.current()
	lastCat := models.Category("")
	for _, it := range f.items() {
		if (it.kind == itemRow || it.kind == itemAddRow) && it.cat != lastCat {
			lastCat = it.cat
			s.WriteString("\n")
			s.WriteString(sectionStyle.Render(categoryTitles[it.cat]))
			s.WriteString("\n")
		}

		marker := "  "
		if it == cur {
			marker = focusedStyle.Render("> ")
		}
		s.WriteString(marker)

		switch it.kind {
		case itemText:
			s.WriteString(fieldLabelStyle.Render(fieldNames[it.field] + ":"))
			s.WriteString(f.inputs[it.field].View())
		case itemType:
			s.WriteString(fieldLabelStyle.Render("Type:"))
			s.WriteString("‹ " + string(d.Type) + " ›")
		case itemLanguage:
			lang := "none"
			if d.Language != nil {
				lang = string(*d.Language)
			}
			s.WriteString(fieldLabelStyle.Render("Language:"))
			s.WriteString("‹ " + lang + " ›")
		case itemAvailability:
			box := "[ ]"
			if slices.Contains(d.Availability, it.avail) {
				box = "[x]"
			}
			s.WriteString(fieldLabelStyle.Render(""))
			s.WriteString(box + " " + string(it.avail))
		case itemRow:
			label := f.rowLabel(it.cat, it.rowID)
			if label == "" {
				label = "(no label)"
			}
			s.WriteString(fieldLabelStyle.Render(label))
			s.WriteString(f.rows[it.rowID].View())
		case itemAddRow:
			s.WriteString(helpStyle.UnsetMarginTop().Render("+ add " + strings.ToLower(categoryTitles[it.cat])))
		}
		s.WriteString("\n")
	}

	if f.picker != nil {
		s.WriteString("\n")
		s.WriteString(f.renderPicker())
		s.WriteString("\n")
	}

	if f.err != "" {
		s.WriteString("\n")
		s.WriteString(formErrStyle.Render(f.err))
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (f *editForm) renderPicker() string {
	p := f.picker
	var s strings.Builder
	s.WriteString(sectionStyle.Render("Label"))
	s.WriteString("\n")
	for i, opt := range p.options {
		if i == p.cursor {
			s.WriteString(focusedStyle.Render("> " + opt))
		} else {
			s.WriteString("  " + opt)
		}
		s.WriteString("\n")
	}
	custom := "Custom…"
	if p.typing {
		custom = "Custom: " + p.custom.View()
	}
	if p.cursor == len(p.options) {
		s.WriteString(focusedStyle.Render("> " + custom))
	} else {
		s.WriteString("  " + custom)
	}
	return pickerBoxStyle.Render(s.String())
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab/↑/↓: Move",
		"←/→: Change",
		"Space: Toggle",
		"Ctrl+L: Label",
		"Ctrl+D: Remove row",
		"Ctrl+S: Save",
		"Esc: Cancel",
	}
	if m.form != nil && m.form.picker != nil {
		help = []string{"↑/↓: Choose", "Enter: Select", "Esc: Close"}
	}
	return helpStyle.Render(strings.Join(help, " • "))
}
