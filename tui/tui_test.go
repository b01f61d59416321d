// ABOUTME: Tests for the TUI model
// ABOUTME: Drives list, edit, label picker, delete and import views with synthetic key messages
package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactshq/contacts"
	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/kv"
	"github.com/harperreed/contactshq/models"
	"github.com/harperreed/contactshq/session"
)

func setupTestModel(t *testing.T) (Model, *gateway.Gateway, *kv.Store) {
	t.Helper()
	store, err := kv.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	gw := gateway.New(store)
	importer := contacts.NewImporter(gw, contacts.WithStatusStore(store))
	m := NewModel(gw, importer, store, nil)
	t.Cleanup(m.Close)
	return m, gw, store
}

func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func insert(t *testing.T, gw *gateway.Gateway, given string) *models.Person {
	t.Helper()
	p := models.NewPerson(given, models.PersonTypeFriend)
	require.NoError(t, gw.Insert(context.Background(), p))
	return p
}

func TestListViewRendering(t *testing.T) {
	m, gw, _ := setupTestModel(t)

	assert.Contains(t, m.View(), "No people yet")

	insert(t, gw, "Ana")
	m = press(t, m, peopleChangedMsg{})
	require.Len(t, m.people, 1)
	assert.Contains(t, m.View(), "Ana")
}

func TestListSearch(t *testing.T) {
	m, gw, _ := setupTestModel(t)
	insert(t, gw, "Ana")
	insert(t, gw, "Zoë")
	m = press(t, m, peopleChangedMsg{})
	require.Len(t, m.people, 2)

	m = press(t, m, runes("/"))
	require.True(t, m.searching)
	m = press(t, m, runes("zoe"))
	require.Len(t, m.people, 1)
	assert.Equal(t, "Zoë", m.people[0].GivenName)

	// q types into the search box instead of quitting.
	m = press(t, m, runes("q"))
	assert.True(t, m.searching)
	assert.Equal(t, "zoeq", m.searchQuery)
	assert.Empty(t, m.people)

	m = press(t, m, key(tea.KeyEsc))
	assert.False(t, m.searching)
	assert.Len(t, m.people, 2)
}

func TestListNavigationStaysInBounds(t *testing.T) {
	m, gw, _ := setupTestModel(t)
	insert(t, gw, "Ana")
	insert(t, gw, "Bruno")
	m = press(t, m, peopleChangedMsg{})

	m = press(t, m, key(tea.KeyDown))
	m = press(t, m, key(tea.KeyDown))
	assert.Equal(t, 1, m.selectedRow)
	m = press(t, m, key(tea.KeyUp))
	m = press(t, m, key(tea.KeyUp))
	assert.Equal(t, 0, m.selectedRow)

	m = press(t, m, key(tea.KeyEnter))
	require.Equal(t, ViewDetail, m.viewMode)
	assert.Equal(t, "Ana", m.selected.GivenName)
	assert.Contains(t, m.View(), "friend")
}

func TestCreatePersonThroughForm(t *testing.T) {
	m, gw, _ := setupTestModel(t)

	m = press(t, m, runes("n"))
	require.Equal(t, ViewEdit, m.viewMode)
	assert.Contains(t, m.View(), "NEW PERSON")

	m = press(t, m, key(tea.KeyCtrlS))
	require.Equal(t, ViewEdit, m.viewMode)
	assert.Equal(t, "Given name is required", m.form.err)

	m = press(t, m, runes("Ana"))
	m = press(t, m, key(tea.KeyTab))
	m = press(t, m, runes("Lima"))
	m = press(t, m, key(tea.KeyCtrlS))

	require.Equal(t, ViewDetail, m.viewMode)
	require.NotNil(t, m.selected)
	assert.Equal(t, "Ana Lima", m.selected.FullName())
	assert.Equal(t, models.DefaultPersonType, m.selected.Type)

	people := gw.Fetch(context.Background(), gateway.FetchOptions{})
	require.Len(t, people, 1)
	assert.Equal(t, m.selected.ID(), people[0].ID())
}

func TestEditFormTypeLanguageAvailability(t *testing.T) {
	m, gw, _ := setupTestModel(t)
	p := insert(t, gw, "Ana")
	m = press(t, m, peopleChangedMsg{})
	m = press(t, m, key(tea.KeyEnter))
	m = press(t, m, runes("e"))
	require.Equal(t, ViewEdit, m.viewMode)

	// given, family, company, note, birthday, type
	m.form.focus = fieldCount
	m = press(t, m, key(tea.KeyRight))
	m = press(t, m, key(tea.KeyDown))
	m = press(t, m, key(tea.KeyRight))
	m = press(t, m, key(tea.KeyDown))
	m = press(t, m, key(tea.KeySpace))
	m = press(t, m, key(tea.KeyCtrlS))

	require.Equal(t, ViewDetail, m.viewMode)
	got, err := gw.Get(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, models.PersonTypeAcquaintance, got.Type)
	require.NotNil(t, got.PreferredLanguage)
	assert.Equal(t, models.LanguageEnglish, *got.PreferredLanguage)
	assert.Equal(t, []models.Availability{models.AvailabilityMorning}, got.Availability)
}

func TestEditFormRejectsBadBirthday(t *testing.T) {
	m, _, _ := setupTestModel(t)
	m = press(t, m, runes("n"))
	m = press(t, m, runes("Ana"))
	m.form.focus = fieldBirthday
	m.form.updateFocus()
	m = press(t, m, runes("04/01/1990"))
	m = press(t, m, key(tea.KeyCtrlS))

	assert.Equal(t, ViewEdit, m.viewMode)
	assert.Contains(t, m.form.err, "YYYY-MM-DD")
}

func TestEditFormRowsAndLabelPicker(t *testing.T) {
	m, gw, _ := setupTestModel(t)
	m = press(t, m, runes("n"))
	m = press(t, m, runes("Ana"))

	// First add-row entry is the phone category.
	m.form.focus = fieldCount + 5
	require.Equal(t, itemAddRow, m.form.current().kind)
	require.Equal(t, models.CategoryPhoneNumber, m.form.current().cat)

	m = press(t, m, key(tea.KeyEnter))
	cur := m.form.current()
	require.Equal(t, itemRow, cur.kind)
	assert.Equal(t, "mobile", m.form.rowLabel(cur.cat, cur.rowID))

	m = press(t, m, runes("555-0100"))

	m = press(t, m, key(tea.KeyCtrlL))
	require.NotNil(t, m.form.picker)
	assert.Equal(t, 0, m.form.picker.cursor)
	m = press(t, m, key(tea.KeyDown))
	m = press(t, m, key(tea.KeyEnter))
	assert.Nil(t, m.form.picker)
	assert.Equal(t, "home", m.form.rowLabel(cur.cat, cur.rowID))

	// Custom label through the picker.
	m = press(t, m, key(tea.KeyCtrlL))
	for range m.form.picker.options {
		m = press(t, m, key(tea.KeyDown))
	}
	m = press(t, m, key(tea.KeyEnter))
	require.True(t, m.form.picker.typing)
	m = press(t, m, runes("cabin"))
	m = press(t, m, key(tea.KeyEnter))
	assert.Equal(t, "cabin", m.form.rowLabel(cur.cat, cur.rowID))

	m = press(t, m, key(tea.KeyCtrlS))
	require.Equal(t, ViewDetail, m.viewMode)

	people := gw.Fetch(context.Background(), gateway.FetchOptions{})
	require.Len(t, people, 1)
	require.Len(t, people[0].PhoneNumbers, 1)
	assert.Equal(t, "cabin", people[0].PhoneNumbers[0].LabelText())
	assert.Equal(t, "555-0100", people[0].PhoneNumbers[0].Value)
}

func TestEditFormBlankRowIsDropped(t *testing.T) {
	m, gw, _ := setupTestModel(t)
	m = press(t, m, runes("n"))
	m = press(t, m, runes("Ana"))
	m.form.focus = fieldCount + 5
	m = press(t, m, key(tea.KeyEnter))
	m = press(t, m, key(tea.KeyCtrlS))

	people := gw.Fetch(context.Background(), gateway.FetchOptions{})
	require.Len(t, people, 1)
	assert.Empty(t, people[0].PhoneNumbers)
}

func TestEditFormShowsClosedSessionError(t *testing.T) {
	m, gw, _ := setupTestModel(t)
	m = press(t, m, runes("n"))
	m = press(t, m, runes("A"))

	m.form.session.Cancel()
	m = press(t, m, runes("na"))
	assert.Equal(t, session.ErrSessionClosed.Error(), m.form.err)
	assert.Contains(t, m.View(), session.ErrSessionClosed.Error())

	m.form.err = ""
	m.form.focus = fieldCount
	m = press(t, m, key(tea.KeyRight))
	assert.Equal(t, session.ErrSessionClosed.Error(), m.form.err)

	assert.Empty(t, gw.Fetch(context.Background(), gateway.FetchOptions{}))
}

func TestEditCancelLeavesPersonAlone(t *testing.T) {
	m, gw, _ := setupTestModel(t)
	p := insert(t, gw, "Ana")
	m = press(t, m, peopleChangedMsg{})
	m = press(t, m, key(tea.KeyEnter))
	m = press(t, m, runes("e"))
	m = press(t, m, runes("ita"))
	m = press(t, m, key(tea.KeyEsc))

	assert.Equal(t, ViewDetail, m.viewMode)
	assert.Nil(t, m.form)
	got, err := gw.Get(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.GivenName)
}

func TestDeleteConfirmation(t *testing.T) {
	m, gw, _ := setupTestModel(t)
	insert(t, gw, "Ana")
	m = press(t, m, peopleChangedMsg{})
	m = press(t, m, key(tea.KeyEnter))

	m = press(t, m, runes("d"))
	require.Equal(t, ViewConfirmDelete, m.viewMode)
	assert.Contains(t, m.View(), "DELETE CONFIRMATION")

	m = press(t, m, runes("n"))
	require.Equal(t, ViewDetail, m.viewMode)

	m = press(t, m, runes("d"))
	m = press(t, m, runes("y"))
	assert.Equal(t, ViewList, m.viewMode)
	assert.Nil(t, m.selected)
	assert.Empty(t, m.people)
}

func TestDeletedElsewhereLeavesDetail(t *testing.T) {
	m, gw, _ := setupTestModel(t)
	p := insert(t, gw, "Ana")
	m = press(t, m, peopleChangedMsg{})
	m = press(t, m, key(tea.KeyEnter))
	require.Equal(t, ViewDetail, m.viewMode)

	require.NoError(t, gw.Delete(context.Background(), p.ID()))
	m = press(t, m, peopleChangedMsg{})
	assert.Equal(t, ViewList, m.viewMode)
	assert.Nil(t, m.selected)
}

func TestGatewayChangesReachTheModel(t *testing.T) {
	m, gw, _ := setupTestModel(t)
	cmd := m.Init()
	require.NotNil(t, cmd)

	insert(t, gw, "Ana")

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		assert.IsType(t, peopleChangedMsg{}, msg)
	case <-time.After(time.Second):
		t.Fatal("no change message delivered")
	}
}

func TestTabsCycleViews(t *testing.T) {
	m, _, _ := setupTestModel(t)
	m = press(t, m, key(tea.KeyTab))
	assert.Equal(t, ViewImport, m.viewMode)
	m = press(t, m, key(tea.KeyTab))
	assert.Equal(t, ViewDashboard, m.viewMode)
	assert.Contains(t, m.View(), "CONTACTSHQ DASHBOARD")
	m = press(t, m, key(tea.KeyTab))
	assert.Equal(t, ViewList, m.viewMode)
}

func TestImportViewWithoutSources(t *testing.T) {
	m, _, _ := setupTestModel(t)
	m.viewMode = ViewImport
	assert.Contains(t, m.View(), "not available")

	updated, cmd := m.handleImportKeys(key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.False(t, updated.(Model).importing)
}

func TestImportViewRendering(t *testing.T) {
	m, _, store := setupTestModel(t)
	m.sources = func(string, string) (contacts.Source, error) { return nil, errors.New("unused") }

	msg := "token expired"
	require.NoError(t, store.SetSyncStatus(context.Background(), "google", models.SyncError, &msg))
	require.NoError(t, store.SetSyncStatus(context.Background(), "vcard", models.SyncIdle, nil))

	m.viewMode = ViewImport
	m.loadImportStates()
	out := m.View()

	assert.Contains(t, out, "vcard")
	assert.Contains(t, out, "Last imported just now")
	assert.Contains(t, out, "token expired")
}

func TestImportRunsAsCommand(t *testing.T) {
	m, _, _ := setupTestModel(t)
	m.sources = func(name, file string) (contacts.Source, error) {
		return nil, errors.New("no vCard file configured")
	}
	m.viewMode = ViewImport

	updated, cmd := m.handleImportKeys(key(tea.KeyEnter))
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.importing)

	// A second start while busy is ignored.
	_, again := m.handleImportKeys(key(tea.KeyEnter))
	assert.Nil(t, again)

	result := cmd()
	require.IsType(t, ImportCompleteMsg{}, result)
	m = press(t, m, result)

	assert.False(t, m.importing)
	require.Error(t, m.lastImportError)
	assert.Contains(t, m.banner, "retry")
	assert.Contains(t, m.renderImportHelp(), "r: Retry")

	updated, cmd = m.handleImportKeys(runes("r"))
	assert.NotNil(t, cmd)
	assert.True(t, updated.(Model).importing)
}

func TestImportCompleteMessages(t *testing.T) {
	m, _, _ := setupTestModel(t)
	m.importing = true

	_ = m.handleImportComplete(ImportCompleteMsg{
		Source: "vcard",
		Result: contacts.Result{Authorized: true, Fetched: 3, Imported: 2, Skipped: 1},
	})
	assert.False(t, m.importing)
	require.Len(t, m.importMessages, 1)
	assert.Contains(t, m.importMessages[0], "3 fetched, 2 new, 1 already imported")

	_ = m.handleImportComplete(ImportCompleteMsg{Source: "google"})
	assert.Contains(t, m.importMessages[1], "not granted")
	assert.NoError(t, m.lastImportError)

	_ = m.handleImportComplete(ImportCompleteMsg{
		Source: "vcard",
		Error:  contacts.ErrEnumerationFailed,
	})
	assert.Contains(t, m.importMessages[2], "nothing imported")
	assert.ErrorIs(t, m.lastImportError, contacts.ErrEnumerationFailed)
}

func TestNoticeWriter(t *testing.T) {
	var got []tea.Msg
	w := NoticeWriter(func(msg tea.Msg) { got = append(got, msg) })

	_, err := w.Write([]byte("Open this URL:\n\n  https://accounts.example/auth\n"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ImportNoticeMsg{Text: "https://accounts.example/auth"}, got[1])

	m, _, _ := setupTestModel(t)
	m = press(t, m, got[1])
	require.Len(t, m.importMessages, 1)
	assert.True(t, strings.HasSuffix(m.importMessages[0], "https://accounts.example/auth"))
}

func TestFormatTimeSince(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected string
	}{
		{"just now", time.Now().Add(-30 * time.Second), "just now"},
		{"minutes ago", time.Now().Add(-5 * time.Minute), "5 minutes ago"},
		{"hours ago", time.Now().Add(-2 * time.Hour), "2 hours ago"},
		{"one day", time.Now().Add(-25 * time.Hour), "1 day ago"},
		{"days ago", time.Now().Add(-3 * 24 * time.Hour), "3 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatTimeSince(tt.time))
		})
	}
}
