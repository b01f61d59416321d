package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactshq/models"
)

var errDiskFull = errors.New("disk full")
var errBusy = errors.New("database is locked")

// memRepo is an in-memory Repository with injectable failures.
type memRepo struct {
	mu        sync.Mutex
	people    map[uuid.UUID]*models.Person
	order     []uuid.UUID
	failWrite error
	failList  error
	failTimes int
	calls     int
}

func newMemRepo() *memRepo {
	return &memRepo{people: make(map[uuid.UUID]*models.Person)}
}

func (r *memRepo) fail() error {
	r.calls++
	if r.failWrite == nil {
		return nil
	}
	if r.failTimes > 0 && r.calls > r.failTimes {
		return nil
	}
	return r.failWrite
}

func (r *memRepo) Insert(_ context.Context, p *models.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail(); err != nil {
		return err
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.people[p.ID()] = p.Clone()
	r.order = append(r.order, p.ID())
	return nil
}

func (r *memRepo) InsertBatch(ctx context.Context, people []*models.Person) error {
	r.mu.Lock()
	err := r.fail()
	r.mu.Unlock()
	if err != nil {
		return err
	}
	for _, p := range people {
		r.mu.Lock()
		r.people[p.ID()] = p.Clone()
		r.order = append(r.order, p.ID())
		r.mu.Unlock()
	}
	return nil
}

func (r *memRepo) Update(_ context.Context, p *models.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail(); err != nil {
		return err
	}
	if _, ok := r.people[p.ID()]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	r.people[p.ID()] = p.Clone()
	return nil
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (*models.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.people[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (r *memRepo) List(_ context.Context) ([]*models.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList != nil {
		return nil, r.failList
	}
	out := make([]*models.Person, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.people[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail(); err != nil {
		return err
	}
	if _, ok := r.people[id]; !ok {
		return ErrNotFound
	}
	delete(r.people, id)
	return nil
}

func (r *memRepo) Flush(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fail()
}

func drain(ch <-chan struct{}) int {
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}

func TestInsertEmitsOneEvent(t *testing.T) {
	gw := New(newMemRepo())
	ch, cancel := gw.Subscribe()
	defer cancel()

	p := models.NewPerson("Alice", models.PersonTypeFriend)
	require.NoError(t, gw.Insert(context.Background(), p))

	assert.Equal(t, 1, drain(ch))
	assert.False(t, p.CreatedAt.IsZero())

	got, err := gw.Get(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.GivenName)
}

func TestInsertDoesNotShareState(t *testing.T) {
	gw := New(newMemRepo())
	p := models.NewPerson("Alice", models.PersonTypeFriend)
	p.PhoneNumbers = []models.LabeledValue{models.NewLabeledValue("home", "555")}
	require.NoError(t, gw.Insert(context.Background(), p))

	p.PhoneNumbers[0].Value = "changed"
	got, err := gw.Get(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, "555", got.PhoneNumbers[0].Value)
}

func TestFailedWriteEmitsNoEvent(t *testing.T) {
	repo := newMemRepo()
	repo.failWrite = errDiskFull
	gw := New(repo)
	ch, cancel := gw.Subscribe()
	defer cancel()

	err := gw.Insert(context.Background(), models.NewPerson("Alice", models.PersonTypeFriend))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistenceWriteFailed)
	assert.ErrorIs(t, err, errDiskFull)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "insert", we.Op)
	assert.Equal(t, 0, drain(ch))
	assert.Equal(t, 1, repo.calls, "non-transient errors are not retried")
}

func TestTransientWriteIsRetried(t *testing.T) {
	repo := newMemRepo()
	repo.failWrite = errBusy
	repo.failTimes = 2
	gw := New(repo, WithRetry(3, time.Millisecond, func(err error) bool {
		return errors.Is(err, errBusy)
	}))

	require.NoError(t, gw.Insert(context.Background(), models.NewPerson("Alice", models.PersonTypeFriend)))
	assert.Equal(t, 3, repo.calls)
}

func TestTransientWriteGivesUp(t *testing.T) {
	repo := newMemRepo()
	repo.failWrite = errBusy
	gw := New(repo, WithRetry(2, time.Millisecond, func(err error) bool {
		return errors.Is(err, errBusy)
	}))

	err := gw.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPersistenceWriteFailed)
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 3, repo.calls)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	gw := New(newMemRepo())
	p := models.NewPerson("Alice", models.PersonTypeFriend)
	require.NoError(t, gw.Insert(ctx, p))

	ch, cancel := gw.Subscribe()
	defer cancel()

	p.Company = models.StringPtr("Acme")
	require.NoError(t, gw.Update(ctx, p))
	assert.Equal(t, 1, drain(ch))

	got, err := gw.Get(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "Acme", models.Deref(got.Company))

	require.NoError(t, gw.Delete(ctx, p.ID()))
	assert.Equal(t, 1, drain(ch))

	_, err = gw.Get(ctx, p.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	err = gw.Delete(ctx, p.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrPersistenceWriteFailed)
	assert.Equal(t, 0, drain(ch))
}

func TestUpdateAfterDeleteReportsNotFound(t *testing.T) {
	ctx := context.Background()
	gw := New(newMemRepo())
	p := models.NewPerson("Alice", models.PersonTypeFriend)
	require.NoError(t, gw.Insert(ctx, p))
	require.NoError(t, gw.Delete(ctx, p.ID()))

	assert.ErrorIs(t, gw.Update(ctx, p), ErrNotFound)
}

func TestInsertBatchEmitsSingleEvent(t *testing.T) {
	gw := New(newMemRepo())
	ch, cancel := gw.Subscribe()
	defer cancel()

	batch := []*models.Person{
		models.NewPerson("A", models.PersonTypeAcquaintance),
		models.NewPerson("B", models.PersonTypeAcquaintance),
		models.NewPerson("C", models.PersonTypeAcquaintance),
	}
	require.NoError(t, gw.InsertBatch(context.Background(), batch))
	assert.Equal(t, 1, drain(ch))
	assert.Len(t, gw.Fetch(context.Background(), FetchOptions{}), 3)

	require.NoError(t, gw.InsertBatch(context.Background(), nil))
	assert.Equal(t, 0, drain(ch))
}

func TestSaveFailureIsSurfaced(t *testing.T) {
	repo := newMemRepo()
	repo.failWrite = errDiskFull
	gw := New(repo)

	err := gw.Save(context.Background())
	assert.ErrorIs(t, err, ErrPersistenceWriteFailed)
}

func TestFetchDegradesToEmpty(t *testing.T) {
	repo := newMemRepo()
	repo.failList = errors.New("corrupt page")
	gw := New(repo)

	got := gw.Fetch(context.Background(), FetchOptions{Sort: SortGivenName})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMultipleSubscribersEachReceive(t *testing.T) {
	gw := New(newMemRepo())
	a, cancelA := gw.Subscribe()
	b, cancelB := gw.Subscribe()
	defer cancelA()
	defer cancelB()

	require.NoError(t, gw.Insert(context.Background(), models.NewPerson("A", models.PersonTypeFriend)))
	assert.Equal(t, 1, drain(a))
	assert.Equal(t, 1, drain(b))
}
