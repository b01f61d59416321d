// ABOUTME: Interactive OAuth consent flow: local callback server plus system browser
// ABOUTME: Used as the Google source's authorizer from the CLI and TUI
package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"

	"golang.org/x/oauth2"
)

// Authorizer obtains a token for cfg, blocking until the user answers.
type Authorizer func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)

var ErrConsentRefused = errors.New("google consent refused")

// BrowserAuthorizer runs the authorization-code flow against a local callback
// server and prints the consent URL to out.
func BrowserAuthorizer(out io.Writer) Authorizer {
	return func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
		redirect, err := url.Parse(cfg.RedirectURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redirect URL: %w", err)
		}
		ln, err := net.Listen("tcp", redirect.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to start callback server: %w", err)
		}

		tokens := make(chan *oauth2.Token, 1)
		errs := make(chan error, 1)

		mux := http.NewServeMux()
		mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
			if e := r.URL.Query().Get("error"); e != "" {
				errs <- fmt.Errorf("%w: %s", ErrConsentRefused, e)
				_, _ = fmt.Fprintln(w, "Authorization was not granted. You can close this window.")
				return
			}
			code := r.URL.Query().Get("code")
			if code == "" {
				errs <- fmt.Errorf("no authorization code received")
				return
			}
			token, err := cfg.Exchange(ctx, code)
			if err != nil {
				errs <- fmt.Errorf("failed to exchange code: %w", err)
				return
			}
			tokens <- token
			_, _ = fmt.Fprintln(w, "Authorization successful! You can close this window.")
		})

		server := &http.Server{Handler: mux}
		go func() {
			if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
				errs <- err
			}
		}()
		defer func() { _ = server.Shutdown(context.Background()) }()

		authURL := cfg.AuthCodeURL("state", oauth2.AccessTypeOffline)
		_, _ = fmt.Fprintf(out, "Opening browser for Google OAuth...\n\nIf the browser doesn't open, visit:\n%s\n\n", authURL)
		_ = openBrowser(authURL)

		select {
		case token := <-tokens:
			return token, nil
		case err := <-errs:
			if errors.Is(err, ErrConsentRefused) {
				return nil, nil
			}
			return nil, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func openBrowser(u string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{u}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", u}
	default:
		cmd = "xdg-open"
		args = []string{u}
	}

	return exec.Command(cmd, args...).Start()
}
