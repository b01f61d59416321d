// ABOUTME: People list tab with incremental given-name search
// ABOUTME: Renders the filtered, sorted roster from the gateway
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/contactshq/models"
	"github.com/harperreed/contactshq/session"
)

var tabs = []struct {
	title string
	mode  ViewMode
}{
	{"People", ViewList},
	{"Import", ViewImport},
	{"Dashboard", ViewDashboard},
}

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("CONTACTSHQ"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.searching || m.searchQuery != "" {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n\n")
	}

	// Table
	if len(m.people) == 0 {
		s.WriteString(helpStyle.Render("No people yet. Press n to add one or Tab to import."))
	} else {
		s.WriteString(m.renderPeopleTable())
	}
	s.WriteString("\n\n")

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for _, tab := range tabs {
		if tab.mode == m.viewMode {
			rendered = append(rendered, tabActiveStyle.Render(tab.title))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab.title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderPeopleTable() string {
	columns := []table.Column{
		{Title: "Name", Width: 28},
		{Title: "Type", Width: 12},
		{Title: "Phone", Width: 18},
		{Title: "Email", Width: 28},
	}

	rows := make([]table.Row, 0, len(m.people))
	for _, p := range m.people {
		rows = append(rows, table.Row{
			p.FullName(),
			string(p.Type),
			firstValue(p.PhoneNumbers),
			firstValue(p.EmailAddresses),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-12, 3)),
	)

	// Set selected row
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func firstValue(values []models.LabeledValue) string {
	for _, v := range values {
		if !v.IsBlank() {
			return v.Value
		}
	}
	return ""
}

func (m Model) renderListHelp() string {
	if m.searching {
		return helpStyle.Render("Enter: Keep filter • Esc: Clear search")
	}
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
		"/: Search",
		"n: New",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.people)-1 {
			m.selectedRow++
		}
	case "tab":
		m.switchTab()
		return m, nil
	case "enter":
		if p := m.selectedPerson(); p != nil {
			m.selected = p
			m.viewMode = ViewDetail
		}
	case "/":
		m.searching = true
		m.searchInput.Focus()
	case "n":
		m.startEdit(session.New())
	case "esc":
		m.banner = ""
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.selectedRow = 0
		m.reload()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if q := m.searchInput.Value(); q != m.searchQuery {
		m.searchQuery = q
		m.selectedRow = 0
		m.reload()
	}
	return m, cmd
}

func (m *Model) switchTab() {
	for i, tab := range tabs {
		if tab.mode == m.viewMode {
			m.viewMode = tabs[(i+1)%len(tabs)].mode
			break
		}
	}
	if m.viewMode == ViewImport {
		m.loadImportStates()
	}
}

func (m Model) selectedPerson() *models.Person {
	if m.selectedRow < 0 || m.selectedRow >= len(m.people) {
		return nil
	}
	return m.people[m.selectedRow]
}
