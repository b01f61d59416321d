// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Interactive full-screen interface for browsing, editing and importing people
package tui

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/contactshq/contacts"
	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewConfirmDelete
	ViewImport
	ViewDashboard
)

// SourceFunc builds a contact source by name.
type SourceFunc func(name, file string) (contacts.Source, error)

// StatusLister reads the per-source import states.
type StatusLister interface {
	AllSyncStates(ctx context.Context) ([]models.SyncState, error)
}

// peopleChangedMsg arrives whenever the gateway commits a write.
type peopleChangedMsg struct{}

// Model is the main bubbletea model
type Model struct {
	gw       *gateway.Gateway
	importer *contacts.Importer
	status   StatusLister
	sources  SourceFunc

	changes     <-chan struct{}
	unsubscribe func()

	viewMode ViewMode

	// List view state
	people      []*models.Person
	selectedRow int
	searchQuery string
	searching   bool
	searchInput textinput.Model

	// Detail view state
	selected *models.Person

	// Edit view state
	form *editForm

	// Import view state
	selectedSource  int
	importing       bool
	importMessages  []string
	importStates    []models.SyncState
	lastImportError error

	// UI state
	banner string
	width  int
	height int
}

// NewModel creates a new TUI model. status and sources may be nil, which
// disables the import view.
func NewModel(gw *gateway.Gateway, importer *contacts.Importer, status StatusLister, sources SourceFunc) Model {
	search := textinput.New()
	search.Placeholder = "Search given names"
	search.Prompt = "/ "
	search.CharLimit = 100

	changes, unsubscribe := gw.Subscribe()
	m := Model{
		gw:          gw,
		importer:    importer,
		status:      status,
		sources:     sources,
		changes:     changes,
		unsubscribe: unsubscribe,
		viewMode:    ViewList,
		searchInput: search,
		width:       80,
		height:      24,
	}
	m.reload()
	return m
}

// SetSize sets the initial terminal size before the first WindowSizeMsg.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
}

// Close stops listening for gateway changes.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return peopleChangedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case peopleChangedMsg:
		m.reload()
		return m, waitForChange(m.changes)
	case ImportCompleteMsg:
		return m, m.handleImportComplete(msg)
	case ImportNoticeMsg:
		m.addImportMessage(msg.Text)
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder
	if m.banner != "" {
		s.WriteString(bannerStyle.Render(m.banner))
		s.WriteString("\n")
	}
	switch m.viewMode {
	case ViewList:
		s.WriteString(m.renderListView())
	case ViewDetail:
		s.WriteString(m.renderDetailView())
	case ViewEdit:
		s.WriteString(m.renderEditView())
	case ViewConfirmDelete:
		s.WriteString(m.renderConfirmDeleteView())
	case ViewImport:
		s.WriteString(m.renderImportView())
	case ViewDashboard:
		s.WriteString(m.renderDashboardView())
	}
	return s.String()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	// Text entry owns every other key.
	if !m.capturingText() && msg.String() == "q" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	case ViewImport:
		return m.handleImportKeys(msg)
	case ViewDashboard:
		return m.handleDashboardKeys(msg)
	}

	return m, nil
}

func (m Model) capturingText() bool {
	return m.searching || m.viewMode == ViewEdit
}

// reload refetches the list and the selected person after a change.
func (m *Model) reload() {
	m.people = m.gw.Fetch(context.Background(), gateway.FetchOptions{
		Filter: gateway.GivenNameContains(m.searchQuery),
		Sort:   gateway.SortGivenName,
	})
	if m.selectedRow >= len(m.people) {
		m.selectedRow = max(len(m.people)-1, 0)
	}
	if m.selected != nil {
		p, err := m.gw.Get(context.Background(), m.selected.ID())
		if err != nil {
			// Deleted elsewhere.
			m.selected = nil
			if m.viewMode == ViewDetail || m.viewMode == ViewConfirmDelete {
				m.viewMode = ViewList
			}
			return
		}
		m.selected = p
	}
}

// ImportNoticeMsg carries a line printed by a source during authorization.
type ImportNoticeMsg struct {
	Text string
}

type noticeWriter struct {
	send func(tea.Msg)
}

// NoticeWriter turns writes into ImportNoticeMsg values delivered through send,
// typically tea.Program.Send, so consent prompts show up in the import view.
func NoticeWriter(send func(tea.Msg)) io.Writer {
	return noticeWriter{send: send}
}

func (w noticeWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			w.send(ImportNoticeMsg{Text: line})
		}
	}
	return len(p), nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("9")).
			Padding(0, 1)
)
