// ABOUTME: Import CLI commands: pull contacts from a vCard file or Google, show import status
// ABOUTME: Google access is granted through the browser consent flow on first import
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harperreed/contactshq/contacts"
	"github.com/harperreed/contactshq/models"
)

// ImportCommand imports contacts from the chosen source.
func ImportCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	source := fs.String("source", "vcard", "Source: vcard or google")
	file := fs.String("file", "", "vCard file to import (vcard source)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	src, err := app.Source(*source, *file)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(app.Out, "Importing contacts from %s...\n", src.Name())
	res, err := app.Importer.Import(context.Background(), src)
	if errors.Is(err, contacts.ErrEnumerationFailed) {
		return fmt.Errorf("could not read contacts, nothing was imported: %w", err)
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if !res.Authorized {
		_, _ = fmt.Fprintf(app.Out, "Access to %s contacts was not granted; nothing imported.\n", src.Name())
		return nil
	}
	_, _ = fmt.Fprintf(app.Out, "  ✓ Fetched %d contact(s)\n", res.Fetched)
	_, _ = fmt.Fprintf(app.Out, "  ✓ Imported %d new\n", res.Imported)
	if res.Skipped > 0 {
		_, _ = fmt.Fprintf(app.Out, "  ✓ Skipped %d already imported\n", res.Skipped)
	}
	return nil
}

// StatusCommand prints the last import state per source.
func StatusCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	states, err := app.Status.AllSyncStates(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read import status: %w", err)
	}
	if len(states) == 0 {
		_, _ = fmt.Fprintln(app.Out, "No imports yet")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tSTATUS\tLAST IMPORT\tERROR")
	for _, s := range states {
		last := "never"
		if s.LastSyncTime != nil {
			last = s.LastSyncTime.Local().Format(time.DateTime)
		}
		msg := "-"
		if s.Status == models.SyncError && s.ErrorMessage != nil {
			msg = *s.ErrorMessage
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Source, s.Status, last, msg)
	}
	return w.Flush()
}
