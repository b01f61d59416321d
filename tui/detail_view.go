// ABOUTME: Person detail view for TUI
// ABOUTME: Shows every attribute and labeled value of the selected person
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/contactshq/models"
	"github.com/harperreed/contactshq/session"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().Bold(true)
)

var categoryTitles = map[models.Category]string{
	models.CategoryPhoneNumber:   "PHONE",
	models.CategoryEmail:         "EMAIL",
	models.CategorySocialProfile: "SOCIAL",
	models.CategoryPostalAddress: "ADDRESS",
	models.CategoryURL:           "WEB",
	models.CategoryRelation:      "RELATED",
}

func (m Model) renderDetailView() string {
	var s strings.Builder

	p := m.selected
	if p == nil {
		return "No person selected"
	}

	// Title
	s.WriteString(titleStyle.Render(p.FullName()))
	s.WriteString("\n\n")

	s.WriteString(m.renderField("Given Name", p.GivenName))
	s.WriteString(m.renderField("Family Name", models.Deref(p.FamilyName)))
	s.WriteString(m.renderField("Company", models.Deref(p.Company)))
	s.WriteString(m.renderField("Type", string(p.Type)))
	if p.PreferredLanguage != nil {
		s.WriteString(m.renderField("Language", string(*p.PreferredLanguage)))
	}
	if len(p.Availability) > 0 {
		tags := make([]string, len(p.Availability))
		for i, a := range p.Availability {
			tags[i] = string(a)
		}
		s.WriteString(m.renderField("Availability", strings.Join(tags, ", ")))
	}
	if p.Birthday != nil {
		s.WriteString(m.renderField("Birthday", p.Birthday.Format(time.DateOnly)))
	}
	if len(p.Groups) > 0 {
		s.WriteString(m.renderField("Groups", strings.Join(p.Groups, ", ")))
	}
	s.WriteString(m.renderField("Note", models.Deref(p.Note)))

	for _, cat := range models.Categories {
		values := models.DropBlank(p.Values(cat))
		if len(values) == 0 {
			continue
		}
		s.WriteString("\n")
		s.WriteString(sectionStyle.Render(categoryTitles[cat]))
		s.WriteString("\n")
		for _, v := range values {
			s.WriteString(fmt.Sprintf("  • %s\n", formatValue(v)))
		}
	}

	s.WriteString("\n")

	// Help
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func formatValue(lv models.LabeledValue) string {
	if label := lv.LabelText(); label != "" {
		return fmt.Sprintf("%s: %s", label, lv.Value)
	}
	return lv.Value
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"e: Edit",
		"d: Delete",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.selected = nil
	case "e":
		if m.selected != nil {
			m.startEdit(session.ForPerson(m.selected))
		}
	case "d":
		if m.selected != nil {
			m.viewMode = ViewConfirmDelete
		}
	}

	return m, nil
}
