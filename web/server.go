// ABOUTME: Web UI server with embedded templates
// ABOUTME: Read-only people browser, dashboard and relationship graph on localhost
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-graphviz"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/models"
	"github.com/harperreed/contactshq/viz"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = []string{"dashboard.html", "people.html", "person.html"}

type Server struct {
	gw        *gateway.Gateway
	logger    *zap.Logger
	templates map[string]*template.Template
	now       func() time.Time
}

func NewServer(gw *gateway.Gateway, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Helper functions for templates
	funcMap := template.FuncMap{
		"deref": models.Deref,
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format(time.DateOnly)
		},
		"percent": func(n, total int) int {
			if total == 0 {
				return 0
			}
			return n * 100 / total
		},
		"first": func(values []models.LabeledValue) string {
			for _, v := range values {
				if !v.IsBlank() {
					return v.Value
				}
			}
			return ""
		},
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templatesFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}

	return &Server{
		gw:        gw,
		logger:    logger,
		templates: templates,
		now:       time.Now,
	}, nil
}

// Routes returns the HTTP handler for every page.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimiddleware.RequestID,
		chimiddleware.Recoverer,
		s.accessLog,
	)

	r.Get("/", s.handleDashboard)
	r.Get("/people", s.handlePeople)
	r.Get("/people/{id}", s.handlePerson)
	r.Get("/graph.svg", s.handleGraph)
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	s.logger.Info("web server stopped")
	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("request completed",
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) renderTemplate(w http.ResponseWriter, page string, data map[string]any) {
	tmpl, ok := s.templates[page]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		s.logger.Error("template error", zap.String("page", page), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	people := s.gw.Fetch(r.Context(), gateway.FetchOptions{})
	stats := viz.GenerateDashboardStats(people, s.now())

	s.renderTemplate(w, "dashboard.html", map[string]any{
		"Title":        "Dashboard",
		"Stats":        stats,
		"Types":        models.PersonTypes,
		"Availability": models.Availabilities,
	})
}

func (s *Server) handlePeople(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	group := strings.TrimSpace(r.URL.Query().Get("group"))

	filter := gateway.GivenNameContains(query)
	if group != "" {
		filter = gateway.And(filter, gateway.InGroup(group))
	}
	people := s.gw.Fetch(r.Context(), gateway.FetchOptions{
		Filter: filter,
		Sort:   gateway.ParseSortKey(r.URL.Query().Get("sort")),
	})

	s.renderTemplate(w, "people.html", map[string]any{
		"Title":  "People",
		"Query":  query,
		"Group":  group,
		"People": people,
	})
}

type categoryView struct {
	Title  string
	Values []models.LabeledValue
}

func (s *Server) handlePerson(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid person ID", http.StatusBadRequest)
		return
	}
	p, err := s.gw.Get(r.Context(), id)
	if errors.Is(err, gateway.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var sections []categoryView
	for _, cat := range models.Categories {
		if values := models.DropBlank(p.Values(cat)); len(values) > 0 {
			sections = append(sections, categoryView{Title: categoryTitles[cat], Values: values})
		}
	}

	s.renderTemplate(w, "person.html", map[string]any{
		"Title":    p.FullName(),
		"Person":   p,
		"Sections": sections,
	})
}

var categoryTitles = map[models.Category]string{
	models.CategoryPhoneNumber:   "Phone",
	models.CategoryEmail:         "Email",
	models.CategorySocialProfile: "Social",
	models.CategoryPostalAddress: "Address",
	models.CategoryURL:           "Web",
	models.CategoryRelation:      "Related",
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var center *uuid.UUID
	if c := r.URL.Query().Get("center"); c != "" {
		id, err := uuid.Parse(c)
		if err != nil {
			http.Error(w, "invalid center ID", http.StatusBadRequest)
			return
		}
		center = &id
	}

	people := s.gw.Fetch(r.Context(), gateway.FetchOptions{Sort: gateway.SortGivenName})
	out, err := viz.Render(r.Context(), viz.BuildGraph(people, center), graphviz.SVG)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(out)
}
