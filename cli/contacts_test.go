// ABOUTME: Tests for the people, labels, import, export and viz CLI commands
// ABOUTME: Runs each command against an in-memory Badger store with captured output
package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactshq/config"
	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/kv"
	"github.com/harperreed/contactshq/models"
)

func setupTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	store, err := kv.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default()
	cfg.VCardPath = ""
	app := NewApp(cfg, nil, store, store, kv.IsTransient)
	out := &bytes.Buffer{}
	app.Out = out
	app.In = strings.NewReader("")
	return app, out
}

func onlyPerson(t *testing.T, app *App) *models.Person {
	t.Helper()
	people := app.Gateway.Fetch(context.Background(), gateway.FetchOptions{})
	require.Len(t, people, 1)
	return people[0]
}

func TestAddCommand(t *testing.T) {
	app, out := setupTestApp(t)

	err := AddCommand(app, []string{
		"--given", "Ana", "--family", "Lima", "--type", "friend",
		"--phone", "555-0100", "--phone", "work=555-0199",
		"--availability", "evening,morning,evening",
		"--birthday", "1990-04-01",
		"--language", "spanish",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ Person created: Ana Lima")

	p := onlyPerson(t, app)
	assert.Equal(t, models.PersonTypeFriend, p.Type)
	require.Len(t, p.PhoneNumbers, 2)
	assert.Equal(t, "mobile", p.PhoneNumbers[0].LabelText())
	assert.Equal(t, "work", p.PhoneNumbers[1].LabelText())
	assert.Equal(t, []models.Availability{models.AvailabilityEvening, models.AvailabilityMorning}, p.Availability)
	require.NotNil(t, p.Birthday)
	assert.Equal(t, "1990-04-01", p.Birthday.Format("2006-01-02"))
	require.NotNil(t, p.PreferredLanguage)
	assert.Equal(t, models.LanguageSpanish, *p.PreferredLanguage)
}

func TestAddCommandBarePhoneSkipsExplicitLabel(t *testing.T) {
	app, _ := setupTestApp(t)

	require.NoError(t, AddCommand(app, []string{"--given", "Ana", "--phone", "555-0100", "--phone", "mobile=555-0199"}))

	p := onlyPerson(t, app)
	require.Len(t, p.PhoneNumbers, 2)
	assert.Equal(t, "home", p.PhoneNumbers[0].LabelText())
	assert.Equal(t, "mobile", p.PhoneNumbers[1].LabelText())
}

func TestAddCommandValidation(t *testing.T) {
	app, _ := setupTestApp(t)

	err := AddCommand(app, []string{"--family", "Lima"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--given is required")

	err = AddCommand(app, []string{"--given", "Ana", "--type", "nemesis"})
	require.Error(t, err)

	err = AddCommand(app, []string{"--given", "Ana", "--birthday", "April 1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")

	assert.Empty(t, app.Gateway.Fetch(context.Background(), gateway.FetchOptions{}))
}

func TestShowCommandAcceptsIDPrefix(t *testing.T) {
	app, out := setupTestApp(t)
	require.NoError(t, AddCommand(app, []string{"--given", "Ana", "--email", "ana@example.com"}))
	p := onlyPerson(t, app)
	out.Reset()

	require.NoError(t, ShowCommand(app, []string{p.ID().String()[:8]}))
	assert.Contains(t, out.String(), "Ana")
	assert.Contains(t, out.String(), "ana@example.com")
	assert.Contains(t, out.String(), "home")

	err := ShowCommand(app, []string{"abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid person ID")

	err = ShowCommand(app, []string{"ffffffff"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "person not found")
}

func TestEditCommand(t *testing.T) {
	app, out := setupTestApp(t)
	require.NoError(t, AddCommand(app, []string{
		"--given", "Ana", "--company", "Acme", "--language", "english",
		"--phone", "555-0100", "--birthday", "1990-04-01",
	}))
	p := onlyPerson(t, app)
	out.Reset()

	require.NoError(t, EditCommand(app, []string{p.ID().String()}))
	assert.Contains(t, out.String(), "Nothing to change")

	require.NoError(t, EditCommand(app, []string{
		"--family", "Lima", "--language", "none", "--email", "ana@example.com", "--clear-birthday",
		p.ID().String(),
	}))
	assert.Contains(t, out.String(), "✓ Person updated: Ana Lima")

	got := onlyPerson(t, app)
	assert.Equal(t, "Acme", models.Deref(got.Company))
	assert.Nil(t, got.PreferredLanguage)
	assert.Nil(t, got.Birthday)
	require.Len(t, got.PhoneNumbers, 1)
	require.Len(t, got.EmailAddresses, 1)
	assert.Equal(t, p.ID(), got.ID())
}

func TestDeleteCommandConfirms(t *testing.T) {
	app, out := setupTestApp(t)
	require.NoError(t, AddCommand(app, []string{"--given", "Ana"}))
	p := onlyPerson(t, app)

	app.In = strings.NewReader("n\n")
	require.NoError(t, DeleteCommand(app, []string{p.ID().String()}))
	assert.Contains(t, out.String(), "Cancelled")
	onlyPerson(t, app)

	app.In = strings.NewReader("y\n")
	require.NoError(t, DeleteCommand(app, []string{p.ID().String()}))
	assert.Empty(t, app.Gateway.Fetch(context.Background(), gateway.FetchOptions{}))

	err := DeleteCommand(app, []string{"--yes", p.ID().String()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "person not found")
}

func TestListCommand(t *testing.T) {
	app, out := setupTestApp(t)

	require.NoError(t, ListCommand(app, nil))
	assert.Contains(t, out.String(), "No people found")

	for _, given := range []string{"Zoë", "Zoe", "Ben"} {
		require.NoError(t, AddCommand(app, []string{"--given", given}))
	}
	out.Reset()

	require.NoError(t, ListCommand(app, []string{"--query", "zoe"}))
	assert.Contains(t, out.String(), "Zoë")
	assert.NotContains(t, out.String(), "Ben")
	assert.Contains(t, out.String(), "Total: 2 person(s)")

	out.Reset()
	require.NoError(t, ListCommand(app, []string{"--limit", "1"}))
	assert.Contains(t, out.String(), "Showing 1 of 3 person(s)")
	assert.Contains(t, out.String(), "Ben")
}

func TestLabelsCommand(t *testing.T) {
	app, out := setupTestApp(t)

	require.NoError(t, LabelsCommand(app, []string{"--used", "mobile", "phone"}))
	assert.Contains(t, out.String(), "✓ mobile")
	assert.Contains(t, out.String(), "Next label: home")

	out.Reset()
	require.NoError(t, LabelsCommand(app, []string{"relation"}))
	assert.Contains(t, out.String(), "free text")
	assert.Contains(t, out.String(), "none left")

	require.Error(t, LabelsCommand(app, nil))
	require.Error(t, LabelsCommand(app, []string{"fax"}))
}

func TestImportAndStatusCommands(t *testing.T) {
	app, out := setupTestApp(t)
	vcf := filepath.Join("..", "contacts", "vcard", "testdata", "people.vcf")

	require.NoError(t, StatusCommand(app, nil))
	assert.Contains(t, out.String(), "No imports yet")

	out.Reset()
	require.NoError(t, ImportCommand(app, []string{"--file", vcf}))
	assert.Contains(t, out.String(), "Fetched 2 contact(s)")
	assert.Contains(t, out.String(), "Imported 2 new")

	out.Reset()
	require.NoError(t, ImportCommand(app, []string{"--file", vcf}))
	assert.Contains(t, out.String(), "Imported 0 new")
	assert.Contains(t, out.String(), "Skipped 2 already imported")

	out.Reset()
	require.NoError(t, StatusCommand(app, nil))
	assert.Contains(t, out.String(), "vcard")
	assert.Contains(t, out.String(), "idle")

	err := ImportCommand(app, []string{"--source", "carrier-pigeon"})
	require.Error(t, err)

	err = ImportCommand(app, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--file is required")
}

func TestImportCommandMissingFile(t *testing.T) {
	app, out := setupTestApp(t)

	// A missing file reads as access not granted, which is not an error.
	require.NoError(t, ImportCommand(app, []string{"--file", filepath.Join(t.TempDir(), "missing.vcf")}))
	assert.Contains(t, out.String(), "not granted")

	states, err := app.Status.AllSyncStates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestImportCommandMalformedFile(t *testing.T) {
	app, _ := setupTestApp(t)
	path := filepath.Join(t.TempDir(), "broken.vcf")
	require.NoError(t, os.WriteFile(path, []byte("BEGIN:VCARD\r\nthis is not a property\r\n"), 0600))

	err := ImportCommand(app, []string{"--file", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing was imported")

	states, serr := app.Status.AllSyncStates(context.Background())
	require.NoError(t, serr)
	require.Len(t, states, 1)
	assert.Equal(t, models.SyncError, states[0].Status)
}

func TestExportCommand(t *testing.T) {
	app, out := setupTestApp(t)
	require.NoError(t, AddCommand(app, []string{"--given", "Ana"}))
	path := filepath.Join(t.TempDir(), "people.xlsx")

	require.NoError(t, ExportCommand(app, []string{"--out", path}))
	assert.Contains(t, out.String(), "Exported 1 person(s)")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestVizCommands(t *testing.T) {
	app, out := setupTestApp(t)
	require.NoError(t, AddCommand(app, []string{"--given", "Ana", "--company", "Acme"}))

	require.NoError(t, VizDashboardCommand(app, nil))
	assert.Contains(t, out.String(), "CONTACTSHQ DASHBOARD")

	out.Reset()
	require.NoError(t, VizGraphCommand(app, nil))
	assert.Contains(t, out.String(), "graph")
	assert.Contains(t, out.String(), "Acme")

	path := filepath.Join(t.TempDir(), "people.svg")
	require.NoError(t, VizGraphCommand(app, []string{"--output", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}
