// ABOUTME: Visualization CLI commands
// ABOUTME: Handles the people graph and the terminal dashboard
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"
	"github.com/google/uuid"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/viz"
)

// VizGraphCommand renders the people graph. The format follows the output
// extension (.svg, .png) and defaults to DOT.
func VizGraphCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("viz graph", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	generator := viz.NewGraphGenerator(app.Gateway)

	var center *uuid.UUID
	if fs.NArg() > 0 {
		p, err := resolvePerson(app, fs.Arg(0))
		if err != nil {
			return err
		}
		id := p.ID()
		center = &id
	}

	out, err := generator.GeneratePeopleGraph(context.Background(), center, graphFormat(*output))
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, out, 0644)
	}
	_, _ = fmt.Fprintln(app.Out, string(out))
	return nil
}

func graphFormat(output string) graphviz.Format {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".svg":
		return graphviz.SVG
	case ".png":
		return graphviz.PNG
	}
	return graphviz.XDOT
}

// VizDashboardCommand prints address book statistics.
func VizDashboardCommand(app *App, args []string) error {
	people := app.Gateway.Fetch(context.Background(), gateway.FetchOptions{})
	stats := viz.GenerateDashboardStats(people, time.Now())
	_, _ = fmt.Fprint(app.Out, viz.RenderDashboard(stats))
	return nil
}
