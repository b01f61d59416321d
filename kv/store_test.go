package kv

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePerson() *models.Person {
	p := models.NewPerson("Grace", models.PersonTypeBusiness)
	p.FamilyName = models.StringPtr("Hopper")
	note := ""
	p.Note = &note
	lang := models.LanguageEnglish
	p.PreferredLanguage = &lang
	p.Availability = []models.Availability{models.AvailabilityMorning}
	bday := time.Date(1906, 12, 9, 0, 0, 0, 0, time.UTC)
	p.Birthday = &bday
	p.Groups = []string{"navy"}
	p.ExternalID = "vcf-1"
	p.PhoneNumbers = []models.LabeledValue{
		models.NewLabeledValue("work", "555-0001"),
		models.NewLabeledValue("", "555-0002"),
		{Value: "555-0003"},
	}
	p.URLAddresses = []models.LabeledValue{models.NewLabeledValue("homepage", "https://cobol.example")}
	return p
}

var personCmp = []cmp.Option{
	cmp.AllowUnexported(models.Person{}),
	cmpopts.EquateEmpty(),
	cmpopts.IgnoreFields(models.Person{}, "CreatedAt", "UpdatedAt"),
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := samplePerson()
	require.NoError(t, s.Insert(ctx, p))

	got, err := s.Get(ctx, p.ID())
	require.NoError(t, err)
	if diff := cmp.Diff(p, got, personCmp...); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))

	require.NotNil(t, got.Note, "an empty note is kept distinct from no note")
	require.NotNil(t, got.PhoneNumbers[1].Label)
	assert.Nil(t, got.PhoneNumbers[2].Label)
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestStoreListInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	names := []string{"zed", "amy", "Mo", "bea"}
	batch := make([]*models.Person, 0, len(names))
	for _, n := range names {
		batch = append(batch, models.NewPerson(n, models.PersonTypeAcquaintance))
	}
	require.NoError(t, s.InsertBatch(ctx, batch[:2]))
	require.NoError(t, s.Insert(ctx, batch[2]))
	require.NoError(t, s.Insert(ctx, batch[3]))

	people, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, people, 4)
	for i, p := range people {
		assert.Equal(t, names[i], p.GivenName)
	}
}

func TestStoreInsertBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := models.NewPerson("A", models.PersonTypeAcquaintance)
	a.ExternalID = "same"
	b := models.NewPerson("B", models.PersonTypeAcquaintance)
	b.ExternalID = "same"

	err := s.InsertBatch(ctx, []*models.Person{a, b})
	assert.ErrorIs(t, err, ErrDuplicate)

	people, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, people)
}

func photoBatch(n int) []*models.Person {
	photo := make([]byte, 30<<10)
	batch := make([]*models.Person, 0, n)
	for i := 0; i < n; i++ {
		p := models.NewPerson(fmt.Sprintf("person-%03d", i), models.PersonTypeAcquaintance)
		p.ExternalID = fmt.Sprintf("vcf-%03d", i)
		p.ImageData = photo
		batch = append(batch, p)
	}
	return batch
}

func TestStoreInsertBatchLargerThanOneTransaction(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// 500 photos of 30KB overflow a single default Badger transaction.
	batch := photoBatch(500)
	require.NoError(t, s.InsertBatch(ctx, batch))

	people, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, people, len(batch))
	for i, p := range people {
		assert.Equal(t, batch[i].ID(), p.ID())
	}
	assert.Len(t, people[499].ImageData, 30<<10)
}

func TestStoreLargeBatchFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	existing := models.NewPerson("Existing", models.PersonTypeFriend)
	existing.ExternalID = "taken"
	require.NoError(t, s.Insert(ctx, existing))

	batch := photoBatch(500)
	batch[499].ExternalID = "taken"
	assert.ErrorIs(t, s.InsertBatch(ctx, batch), ErrDuplicate)

	people, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, existing.ID(), people[0].ID())

	// External ids from the rolled back chunks are free again.
	retry := models.NewPerson("Retry", models.PersonTypeFriend)
	retry.ExternalID = batch[0].ExternalID
	require.NoError(t, s.Insert(ctx, retry))
}

func TestStoreInsertDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := models.NewPerson("A", models.PersonTypeFriend)
	require.NoError(t, s.Insert(ctx, p))
	assert.ErrorIs(t, s.Insert(ctx, p), ErrDuplicate)
}

func TestStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := samplePerson()
	require.NoError(t, s.Insert(ctx, p))
	created := p.CreatedAt

	p.ExternalID = "vcf-2"
	p.PhoneNumbers = nil
	p.Birthday = nil
	require.NoError(t, s.Update(ctx, p))

	got, err := s.Get(ctx, p.ID())
	require.NoError(t, err)
	assert.Empty(t, got.PhoneNumbers)
	assert.Nil(t, got.Birthday)
	assert.Equal(t, "vcf-2", got.ExternalID)
	assert.True(t, created.Equal(got.CreatedAt))

	// the old external id is free again
	other := models.NewPerson("Other", models.PersonTypeFriend)
	other.ExternalID = "vcf-1"
	require.NoError(t, s.Insert(ctx, other))

	assert.ErrorIs(t, s.Update(ctx, models.NewPerson("Ghost", models.PersonTypeFriend)), gateway.ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := samplePerson()
	require.NoError(t, s.Insert(ctx, p))
	require.NoError(t, s.Delete(ctx, p.ID()))

	_, err := s.Get(ctx, p.ID())
	assert.ErrorIs(t, err, gateway.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, p.ID()), gateway.ErrNotFound)

	again := models.NewPerson("Again", models.PersonTypeFriend)
	again.ExternalID = p.ExternalID
	assert.NoError(t, s.Insert(ctx, again))
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, nil)
	require.NoError(t, err)
	p := samplePerson()
	require.NoError(t, s.Insert(ctx, p))
	require.NoError(t, s.Flush(ctx))
	require.NoError(t, s.Close())

	s, err = Open(dir, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Get(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.GivenName)

	next := models.NewPerson("Later", models.PersonTypeFriend)
	require.NoError(t, s.Insert(ctx, next))
	people, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "Later", people[1].GivenName, "sequence keeps growing after reopen")
}

func TestInMemoryStore(t *testing.T) {
	s, err := Open("", nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Insert(context.Background(), samplePerson()))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(badger.ErrConflict))
	assert.False(t, IsTransient(ErrDuplicate))
	assert.False(t, IsTransient(nil))
}

func TestStoreSyncState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	state, err := s.SyncState(ctx, "google")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, s.SetSyncStatus(ctx, "google", models.SyncIdle, nil))
	msg := "token expired"
	require.NoError(t, s.SetSyncStatus(ctx, "google", models.SyncError, &msg))
	require.NoError(t, s.SetSyncStatus(ctx, "vcard", models.SyncSyncing, nil))

	state, err = s.SyncState(ctx, "google")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.SyncError, state.Status)
	assert.Equal(t, msg, models.Deref(state.ErrorMessage))
	assert.NotNil(t, state.LastSyncTime)

	states, err := s.AllSyncStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "google", states[0].Source)
	assert.Equal(t, models.SyncSyncing, states[1].Status)
	assert.Nil(t, states[1].LastSyncTime)
}

func TestStoreThroughGateway(t *testing.T) {
	ctx := context.Background()
	gw := gateway.New(newTestStore(t), gateway.WithRetry(2, time.Millisecond, IsTransient))

	p := samplePerson()
	require.NoError(t, gw.Insert(ctx, p))
	require.NoError(t, gw.Save(ctx))

	dup := models.NewPerson("Dup", models.PersonTypeFriend)
	dup.ExternalID = p.ExternalID
	assert.ErrorIs(t, gw.Insert(ctx, dup), gateway.ErrPersistenceWriteFailed)

	got := gw.Fetch(ctx, gateway.FetchOptions{Filter: gateway.HasExternalID("vcf-1")})
	require.Len(t, got, 1)
	assert.Equal(t, p.ID(), got[0].ID())
}
