// ABOUTME: Web UI CLI command
// ABOUTME: Serves the read-only people browser until interrupted
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/contactshq/web"
)

func WebCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	addr := fs.String("addr", "127.0.0.1:8080", "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv, err := web.NewServer(app.Gateway, app.Logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintf(app.Out, "Serving ContactsHQ at http://%s (Ctrl+C to stop)\n", *addr)
	return srv.Start(ctx, *addr)
}
