// ABOUTME: TUI view for contact imports
// ABOUTME: Runs an import in the background and shows per-source status with a retry key
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/contactshq/contacts"
	"github.com/harperreed/contactshq/models"
)

var importSources = []string{"vcard", "google"}

var (
	importHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Underline(true)

	importSourceStyle = lipgloss.NewStyle().
				Bold(true).
				Width(12)

	importIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	importBusyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	importErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9"))

	importSelectedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("235")).
				Foreground(lipgloss.Color("255")).
				Bold(true)

	importMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// ImportCompleteMsg is sent when an import finishes.
type ImportCompleteMsg struct {
	Source string
	Result contacts.Result
	Error  error
}

func (m Model) renderImportView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("CONTACTSHQ"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.importer == nil || m.sources == nil {
		s.WriteString(importMessageStyle.Render("Importing is not available in this session."))
		s.WriteString("\n")
		s.WriteString(m.renderImportHelp())
		return s.String()
	}

	s.WriteString(importHeaderStyle.Render("Sources"))
	s.WriteString("\n\n")

	for i, source := range importSources {
		var row strings.Builder
		if i == m.selectedSource {
			row.WriteString("▶ ")
			row.WriteString(importSelectedStyle.Render(importSourceStyle.Render(source)))
		} else {
			row.WriteString("  ")
			row.WriteString(importSourceStyle.Render(source))
		}

		state := m.importState(source)
		switch {
		case m.importing && i == m.selectedSource:
			row.WriteString(importBusyStyle.Render("  ⟳ Importing..."))
		case state == nil:
			row.WriteString(importMessageStyle.Render("  Never imported"))
		case state.Status == models.SyncError:
			row.WriteString(importErrorStyle.Render("  ✗ Error"))
			if msg := models.Deref(state.ErrorMessage); msg != "" {
				row.WriteString(importErrorStyle.Render(": " + msg))
			}
		case state.Status == models.SyncSyncing:
			row.WriteString(importBusyStyle.Render("  ⟳ Interrupted"))
		default:
			row.WriteString(importIdleStyle.Render("  ✓ Idle"))
			if state.LastSyncTime != nil {
				row.WriteString(importMessageStyle.Render(" • Last imported " + formatTimeSince(*state.LastSyncTime)))
			}
		}

		s.WriteString(row.String())
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if len(m.importMessages) > 0 {
		s.WriteString(importHeaderStyle.Render("Recent Activity"))
		s.WriteString("\n\n")
		start := max(len(m.importMessages)-5, 0)
		for _, msg := range m.importMessages[start:] {
			s.WriteString(importMessageStyle.Render("  " + msg))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	s.WriteString(m.renderImportHelp())
	return s.String()
}

func (m Model) renderImportHelp() string {
	help := []string{
		"↑/↓: Select source",
		"Enter: Import",
		"Tab: Switch tabs",
		"q: Quit",
	}
	if m.lastImportError != nil {
		help = append([]string{"r: Retry"}, help...)
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) importState(source string) *models.SyncState {
	for i := range m.importStates {
		if m.importStates[i].Source == source {
			return &m.importStates[i]
		}
	}
	return nil
}

func (m *Model) loadImportStates() {
	if m.status == nil {
		return
	}
	states, err := m.status.AllSyncStates(context.Background())
	if err != nil {
		m.importStates = nil
		return
	}
	m.importStates = states
}

func (m Model) handleImportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedSource > 0 {
			m.selectedSource--
		}
	case "down", "j":
		if m.selectedSource < len(importSources)-1 {
			m.selectedSource++
		}
	case "enter":
		return m.startImport(importSources[m.selectedSource])
	case "r":
		if m.lastImportError != nil {
			return m.startImport(importSources[m.selectedSource])
		}
	case "tab":
		m.switchTab()
	case "esc":
		m.viewMode = ViewList
	}
	return m, nil
}

func (m Model) startImport(source string) (tea.Model, tea.Cmd) {
	if m.importing || m.importer == nil || m.sources == nil {
		return m, nil
	}
	m.importing = true
	m.lastImportError = nil
	m.banner = ""
	m.addImportMessage(fmt.Sprintf("Starting %s import...", source))
	return m, m.runImport(source)
}

// runImport performs the import off the event loop; the result comes back as
// an ImportCompleteMsg.
func (m Model) runImport(source string) tea.Cmd {
	importer, sources := m.importer, m.sources
	return func() tea.Msg {
		src, err := sources(source, "")
		if err != nil {
			return ImportCompleteMsg{Source: source, Error: err}
		}
		res, err := importer.Import(context.Background(), src)
		return ImportCompleteMsg{Source: source, Result: res, Error: err}
	}
}

func (m *Model) handleImportComplete(msg ImportCompleteMsg) tea.Cmd {
	m.importing = false

	switch {
	case errors.Is(msg.Error, contacts.ErrEnumerationFailed):
		m.lastImportError = msg.Error
		m.addImportMessage(fmt.Sprintf("✗ %s: could not read contacts, nothing imported", msg.Source))
		m.banner = fmt.Sprintf("Import from %s failed. Press r on the Import tab to retry.", msg.Source)
	case msg.Error != nil:
		m.lastImportError = msg.Error
		m.addImportMessage(fmt.Sprintf("✗ %s import failed: %v", msg.Source, msg.Error))
		m.banner = fmt.Sprintf("Import from %s failed. Press r on the Import tab to retry.", msg.Source)
	case !msg.Result.Authorized:
		m.addImportMessage(fmt.Sprintf("%s access was not granted; nothing imported", msg.Source))
	default:
		m.addImportMessage(fmt.Sprintf("✓ %s: %d fetched, %d new, %d already imported",
			msg.Source, msg.Result.Fetched, msg.Result.Imported, msg.Result.Skipped))
	}

	m.loadImportStates()
	return nil
}

func (m *Model) addImportMessage(msg string) {
	timestamp := time.Now().Format("15:04:05")
	m.importMessages = append(m.importMessages, fmt.Sprintf("[%s] %s", timestamp, msg))
}

// formatTimeSince formats a time duration in a human-readable way.
func formatTimeSince(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
