// ABOUTME: Export CLI command
// ABOUTME: Writes every stored person to an .xlsx workbook
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harperreed/contactshq/export"
	"github.com/harperreed/contactshq/gateway"
)

func ExportCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	out := fs.String("out", "people.xlsx", "Output workbook")
	sortBy := fs.String("sort", "given", "Sort by given, family, created or none")
	if err := fs.Parse(args); err != nil {
		return err
	}

	people := app.Gateway.Fetch(context.Background(), gateway.FetchOptions{Sort: gateway.ParseSortKey(*sortBy)})

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	if err := export.WriteXLSX(f, people); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(app.Out, "✓ Exported %d person(s) to %s\n", len(people), *out)
	return nil
}
