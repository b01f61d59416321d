// ABOUTME: Interactive terminal UI command
// ABOUTME: Runs the bubbletea people browser over the App's gateway and importer
package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/harperreed/contactshq/tui"
)

func TUICommand(app *App) error {
	m := tui.NewModel(app.Gateway, app.Importer, app.Status, app.Source)
	defer m.Close()

	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		m.SetSize(w, h)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	// Google consent prompts land in the import view instead of the alt screen.
	app.Out = tui.NoticeWriter(p.Send)

	app.Logger.Info("starting tui")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	app.Logger.Info("tui exited")
	return nil
}
