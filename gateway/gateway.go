// ABOUTME: Persistence gateway: the narrow read/write surface over a person repository
// ABOUTME: Commits synchronously, surfaces write failures, and broadcasts change events
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/harperreed/contactshq/models"
)

// Repository is implemented by each durable store. Every mutating call must be
// committed before it returns.
type Repository interface {
	Insert(ctx context.Context, p *models.Person) error
	// InsertBatch stores all people or none of them.
	InsertBatch(ctx context.Context, people []*models.Person) error
	Update(ctx context.Context, p *models.Person) error
	Get(ctx context.Context, id uuid.UUID) (*models.Person, error)
	List(ctx context.Context) ([]*models.Person, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Flush(ctx context.Context) error
}

const (
	defaultRetries = 3
	defaultBackoff = 25 * time.Millisecond
)

type Gateway struct {
	repo      Repository
	notifier  *Notifier
	logger    *zap.Logger
	retries   uint64
	backoff   time.Duration
	retryable func(error) bool
}

type Option func(*Gateway)

func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRetry retries writes that fail with an error the classifier reports as
// transient, backing off exponentially from base.
func WithRetry(attempts uint64, base time.Duration, transient func(error) bool) Option {
	return func(g *Gateway) {
		g.retries = attempts
		g.backoff = base
		g.retryable = transient
	}
}

func New(repo Repository, opts ...Option) *Gateway {
	g := &Gateway{
		repo:     repo,
		notifier: NewNotifier(),
		logger:   zap.NewNop(),
		retries:  defaultRetries,
		backoff:  defaultBackoff,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Subscribe returns a channel that receives one signal per successful write
// (coalesced if unread) and a func to stop listening.
func (g *Gateway) Subscribe() (<-chan struct{}, func()) {
	return g.notifier.Subscribe()
}

func (g *Gateway) Insert(ctx context.Context, p *models.Person) error {
	if p == nil {
		return writeFailed("insert", errors.New("nil person"))
	}
	stored := p.Clone()
	if err := g.write(ctx, "insert", func(ctx context.Context) error {
		return g.repo.Insert(ctx, stored)
	}); err != nil {
		return err
	}
	p.CreatedAt, p.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	g.notifier.Publish()
	return nil
}

// InsertBatch stores people atomically and emits a single change event.
func (g *Gateway) InsertBatch(ctx context.Context, people []*models.Person) error {
	if len(people) == 0 {
		return nil
	}
	stored := make([]*models.Person, len(people))
	for i, p := range people {
		stored[i] = p.Clone()
	}
	if err := g.write(ctx, "insert batch", func(ctx context.Context) error {
		return g.repo.InsertBatch(ctx, stored)
	}); err != nil {
		return err
	}
	g.notifier.Publish()
	return nil
}

func (g *Gateway) Update(ctx context.Context, p *models.Person) error {
	if p == nil {
		return writeFailed("update", errors.New("nil person"))
	}
	stored := p.Clone()
	if err := g.write(ctx, "update", func(ctx context.Context) error {
		return g.repo.Update(ctx, stored)
	}); err != nil {
		return err
	}
	p.UpdatedAt = stored.UpdatedAt
	g.notifier.Publish()
	return nil
}

func (g *Gateway) Delete(ctx context.Context, id uuid.UUID) error {
	if err := g.write(ctx, "delete", func(ctx context.Context) error {
		return g.repo.Delete(ctx, id)
	}); err != nil {
		return err
	}
	g.notifier.Publish()
	return nil
}

// Save flushes the store to durable storage.
func (g *Gateway) Save(ctx context.Context) error {
	return g.write(ctx, "save", g.repo.Flush)
}

func (g *Gateway) Get(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	p, err := g.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Fetch returns the people matching opts.Filter in opts.Sort order. A failed read is
// logged and reported as an empty result.
func (g *Gateway) Fetch(ctx context.Context, opts FetchOptions) []*models.Person {
	all, err := g.repo.List(ctx)
	if err != nil {
		g.logger.Warn("fetch failed, returning empty result", zap.Error(err))
		return []*models.Person{}
	}
	out := make([]*models.Person, 0, len(all))
	for _, p := range all {
		if opts.Filter == nil || opts.Filter(p) {
			out = append(out, p)
		}
	}
	sortPeople(out, opts.Sort)
	return out
}

func (g *Gateway) write(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(g.retries, retry.NewExponential(g.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && g.retryable != nil && g.retryable(err) {
			g.logger.Debug("transient write failure, retrying", zap.String("op", op), zap.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	g.logger.Error("write failed", zap.String("op", op), zap.Error(err))
	return writeFailed(op, err)
}
