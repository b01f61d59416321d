// ABOUTME: People CLI commands: list, show, add, edit, delete
// ABOUTME: Add and edit go through an edit session so CLI saves merge like the TUI form
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/models"
	"github.com/harperreed/contactshq/session"
)

// ListCommand lists people, optionally filtered by a given-name search.
func ListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	search := fs.String("query", "", "Search given names (case and accent insensitive)")
	sortBy := fs.String("sort", "given", "Sort by given, family, created or none")
	group := fs.String("group", "", "Only people in this group")
	limit := fs.Int("limit", 50, "Maximum results (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := gateway.GivenNameContains(*search)
	if *group != "" {
		filter = gateway.And(filter, gateway.InGroup(*group))
	}
	people := app.Gateway.Fetch(context.Background(), gateway.FetchOptions{
		Filter: filter,
		Sort:   gateway.ParseSortKey(*sortBy),
	})

	if len(people) == 0 {
		_, _ = fmt.Fprintln(app.Out, "No people found")
		return nil
	}
	total := len(people)
	if *limit > 0 && len(people) > *limit {
		people = people[:*limit]
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tPHONE\tEMAIL\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t-----\t--")
	for _, p := range people {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			orDash(p.FullName()), p.Type, orDash(firstValue(p.PhoneNumbers)),
			orDash(firstValue(p.EmailAddresses)), shortID(p.ID()))
	}
	_ = w.Flush()

	if total > len(people) {
		_, _ = fmt.Fprintf(app.Out, "\nShowing %d of %d person(s)\n", len(people), total)
		return nil
	}
	_, _ = fmt.Fprintf(app.Out, "\nTotal: %d person(s)\n", total)
	return nil
}

// ShowCommand prints every stored field of one person.
func ShowCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("person ID is required")
	}

	p, err := resolvePerson(app, fs.Arg(0))
	if err != nil {
		return err
	}
	printPerson(app.Out, p)
	return nil
}

// AddCommand creates a person.
func AddCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	pf := registerPersonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	s := session.New()
	if err := pf.apply(s, fs); err != nil {
		return err
	}
	p, err := s.Save(context.Background(), app.Gateway)
	if errors.Is(err, session.ErrValidationBlocked) {
		return fmt.Errorf("--given is required")
	}
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}

	_, _ = fmt.Fprintf(app.Out, "✓ Person created: %s (ID: %s)\n", p.FullName(), p.ID())
	return nil
}

// EditCommand updates a person. Empty text flags leave stored values alone; any
// labeled flag replaces that whole sequence.
func EditCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	pf := registerPersonFlags(fs)
	clearBirthday := fs.Bool("clear-birthday", false, "Remove the stored birthday")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("person ID is required (flags must come before the ID)")
	}

	existing, err := resolvePerson(app, fs.Arg(0))
	if err != nil {
		return err
	}

	s := session.ForPerson(existing)
	if err := pf.apply(s, fs); err != nil {
		return err
	}
	if *clearBirthday {
		_ = s.ClearBirthday()
	}
	if !s.Dirty() {
		_, _ = fmt.Fprintln(app.Out, "Nothing to change")
		return nil
	}

	p, err := s.Save(context.Background(), app.Gateway)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	_, _ = fmt.Fprintf(app.Out, "✓ Person updated: %s (ID: %s)\n", p.FullName(), p.ID())
	return nil
}

// DeleteCommand removes a person after confirmation.
func DeleteCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("person ID is required")
	}

	p, err := resolvePerson(app, fs.Arg(0))
	if err != nil {
		return err
	}

	if !*yes {
		_, _ = fmt.Fprintf(app.Out, "Delete %s? This cannot be undone. [y/N] ", p.FullName())
		answer, _ := bufio.NewReader(app.In).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			_, _ = fmt.Fprintln(app.Out, "Cancelled")
			return nil
		}
	}

	if err := app.Gateway.Delete(context.Background(), p.ID()); err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	_, _ = fmt.Fprintf(app.Out, "✓ Person deleted: %s\n", p.ID())
	return nil
}

// resolvePerson accepts a full UUID or a unique prefix of one, as printed by list.
func resolvePerson(app *App, ref string) (*models.Person, error) {
	ctx := context.Background()
	if id, err := uuid.Parse(ref); err == nil {
		p, err := app.Gateway.Get(ctx, id)
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("person not found: %s", ref)
		}
		return p, err
	}

	ref = strings.ToLower(strings.TrimSpace(ref))
	if len(ref) < 4 {
		return nil, fmt.Errorf("invalid person ID: %q", ref)
	}
	matches := app.Gateway.Fetch(ctx, gateway.FetchOptions{Filter: func(p *models.Person) bool {
		return strings.HasPrefix(p.ID().String(), ref)
	}})
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("person not found: %s", ref)
	case 1:
		return matches[0], nil
	}
	return nil, fmt.Errorf("ambiguous person ID %q matches %d people", ref, len(matches))
}

type personFlags struct {
	given, family, company, note *string
	personType, language         *string
	availability, birthday       *string
	values                       map[models.Category]*labeledFlag
}

func registerPersonFlags(fs *flag.FlagSet) *personFlags {
	pf := &personFlags{
		given:        fs.String("given", "", "Given name"),
		family:       fs.String("family", "", "Family name"),
		company:      fs.String("company", "", "Company"),
		note:         fs.String("note", "", "Note"),
		personType:   fs.String("type", "", "family, friend, acquaintance, business or client"),
		language:     fs.String("language", "", "english or spanish (none clears)"),
		availability: fs.String("availability", "", "Comma-separated: morning, evening, night"),
		birthday:     fs.String("birthday", "", "Birthday as YYYY-MM-DD"),
		values:       make(map[models.Category]*labeledFlag, len(models.Categories)),
	}
	for _, cat := range models.Categories {
		f := &labeledFlag{}
		pf.values[cat] = f
		fs.Var(f, string(cat), "label=value (repeatable; a bare value gets the next free label)")
	}
	return pf
}

func (pf *personFlags) apply(s *session.Session, fs *flag.FlagSet) error {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Unset text flags keep the loaded draft; the session ignores blanks on save anyway.
	if *pf.given != "" {
		_ = s.SetGivenName(*pf.given)
	}
	if *pf.family != "" {
		_ = s.SetFamilyName(*pf.family)
	}
	if *pf.company != "" {
		_ = s.SetCompany(*pf.company)
	}
	if *pf.note != "" {
		_ = s.SetNote(*pf.note)
	}

	if set["type"] {
		t, err := models.ParsePersonType(*pf.personType)
		if err != nil {
			return err
		}
		_ = s.SetType(t)
	}
	if set["language"] {
		if v := strings.ToLower(strings.TrimSpace(*pf.language)); v == "" || v == "none" {
			_ = s.SetLanguage(nil)
		} else {
			l, err := models.ParseLanguage(v)
			if err != nil {
				return err
			}
			_ = s.SetLanguage(&l)
		}
	}
	if set["availability"] {
		want, err := parseAvailability(*pf.availability)
		if err != nil {
			return err
		}
		if err := s.SetAvailability(want); err != nil {
			return err
		}
	}
	if set["birthday"] {
		b, err := time.Parse(time.DateOnly, strings.TrimSpace(*pf.birthday))
		if err != nil {
			return fmt.Errorf("invalid --birthday (want YYYY-MM-DD): %w", err)
		}
		_ = s.SetBirthday(b)
	}

	for _, cat := range models.Categories {
		if f := pf.values[cat]; f.set {
			if err := s.ReplaceRows(cat, f.entries); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseAvailability(s string) ([]models.Availability, error) {
	var out []models.Availability
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		a, err := models.ParseAvailability(part)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return models.UniqueAvailability(out), nil
}

// labeledFlag collects repeated label=value arguments.
type labeledFlag struct {
	set     bool
	entries []models.LabeledValue
}

func (f *labeledFlag) String() string {
	parts := make([]string, len(f.entries))
	for i, e := range f.entries {
		parts[i] = e.LabelText() + "=" + e.Value
	}
	return strings.Join(parts, ",")
}

func (f *labeledFlag) Set(s string) error {
	f.set = true
	label, value, ok := strings.Cut(s, "=")
	if !ok || strings.Contains(label, "://") {
		f.entries = append(f.entries, models.LabeledValue{Value: strings.TrimSpace(s)})
		return nil
	}
	f.entries = append(f.entries, models.NewLabeledValue(strings.TrimSpace(label), strings.TrimSpace(value)))
	return nil
}
