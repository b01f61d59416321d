package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/viz"
)

func (m Model) renderDashboardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("CONTACTSHQ"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	people := m.gw.Fetch(context.Background(), gateway.FetchOptions{})
	s.WriteString(viz.RenderDashboard(viz.GenerateDashboardStats(people, time.Now())))

	s.WriteString(helpStyle.Render(strings.Join([]string{"Tab: Switch tabs", "Esc: Back", "q: Quit"}, " • ")))
	return s.String()
}

func (m Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.switchTab()
	case "esc":
		m.viewMode = ViewList
	}
	return m, nil
}
