// ABOUTME: Labels CLI command
// ABOUTME: Prints a category's label catalog and the label a new row would get
package cli

import (
	"flag"
	"fmt"
	"strings"

	"github.com/harperreed/contactshq/labels"
	"github.com/harperreed/contactshq/models"
)

func LabelsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("labels", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	used := fs.String("used", "", "Comma-separated labels already in use")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("category is required (phone, email, url, postal, social, relation)")
	}

	cat, err := models.ParseCategory(fs.Arg(0))
	if err != nil {
		return err
	}

	var existing []string
	if *used != "" {
		for _, l := range strings.Split(*used, ",") {
			existing = append(existing, strings.TrimSpace(l))
		}
	}

	catalog := labels.Catalog(cat)
	if len(catalog) == 0 {
		_, _ = fmt.Fprintf(app.Out, "%s labels are free text\n", cat)
	}
	for _, l := range catalog {
		mark := " "
		for _, u := range existing {
			if u == l {
				mark = "✓"
			}
		}
		_, _ = fmt.Fprintf(app.Out, "  %s %s\n", mark, l)
	}

	next := labels.NextLabel(cat, existing)
	if next == "" {
		next = "(none left, use a custom label)"
	}
	_, _ = fmt.Fprintf(app.Out, "\nNext label: %s\n", next)
	return nil
}
