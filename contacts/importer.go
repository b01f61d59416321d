// ABOUTME: Device contacts importer: authorizes, enumerates, maps, and batch-inserts people
// ABOUTME: Imports are all-or-nothing, serialized, and skip contacts imported earlier
package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/labels"
	"github.com/harperreed/contactshq/models"
)

var (
	ErrEnumerationFailed = errors.New("contact enumeration failed")
	ErrImportInProgress  = errors.New("an import is already running")
)

// StatusStore records per-source import status. Both stores implement it.
type StatusStore interface {
	SyncState(ctx context.Context, source string) (*models.SyncState, error)
	SetSyncStatus(ctx context.Context, source string, status models.SyncStatus, errorMsg *string) error
}

type Result struct {
	Authorized bool
	Fetched    int
	Imported   int
	Skipped    int
}

type Importer struct {
	gw     *gateway.Gateway
	status StatusStore
	logger *zap.Logger
	mu     sync.Mutex
}

type Option func(*Importer)

func WithStatusStore(s StatusStore) Option {
	return func(im *Importer) { im.status = s }
}

func WithLogger(logger *zap.Logger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

func NewImporter(gw *gateway.Gateway, opts ...Option) *Importer {
	im := &Importer{gw: gw, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import reads every contact from src and stores the ones not imported before.
// A denied or refused authorization yields an empty result and no error.
func (im *Importer) Import(ctx context.Context, src Source) (Result, error) {
	if !im.mu.TryLock() {
		return Result{}, ErrImportInProgress
	}
	defer im.mu.Unlock()

	log := im.logger.With(zap.String("source", src.Name()))

	authorized, err := authorize(ctx, src)
	if err != nil {
		im.recordError(ctx, src.Name(), err)
		return Result{}, err
	}
	if !authorized {
		log.Info("contacts access not granted, skipping import")
		return Result{}, nil
	}
	res := Result{Authorized: true}

	im.setStatus(ctx, src.Name(), models.SyncSyncing, nil)

	external, err := src.Enumerate(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrEnumerationFailed, err)
		im.recordError(ctx, src.Name(), err)
		return res, err
	}
	res.Fetched = len(external)

	existing := im.gw.Fetch(ctx, gateway.FetchOptions{Filter: func(p *models.Person) bool {
		return p.ExternalID != ""
	}})
	matcher := NewMatcher(existing)

	batch := make([]*models.Person, 0, len(external))
	for _, c := range external {
		if _, found := matcher.FindMatch(c.Identifier); found {
			res.Skipped++
			continue
		}
		p := ToPerson(c)
		matcher.Add(p)
		batch = append(batch, p)
	}

	if err := im.gw.InsertBatch(ctx, batch); err != nil {
		im.recordError(ctx, src.Name(), err)
		return res, fmt.Errorf("failed to store imported contacts: %w", err)
	}
	res.Imported = len(batch)

	im.setStatus(ctx, src.Name(), models.SyncIdle, nil)
	log.Info("contacts imported",
		zap.Int("fetched", res.Fetched),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// Status returns the last recorded import state for a source, or nil.
func (im *Importer) Status(ctx context.Context, source string) (*models.SyncState, error) {
	if im.status == nil {
		return nil, nil
	}
	return im.status.SyncState(ctx, source)
}

func authorize(ctx context.Context, src Source) (bool, error) {
	status := src.AuthorizationStatus(ctx)
	if status != NotDetermined {
		return status.CanEnumerate(), nil
	}
	granted, err := src.RequestAccess(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to request contacts access: %w", err)
	}
	return granted, nil
}

func (im *Importer) recordError(ctx context.Context, source string, err error) {
	im.logger.Error("contacts import failed", zap.String("source", source), zap.Error(err))
	msg := err.Error()
	im.setStatus(ctx, source, models.SyncError, &msg)
}

func (im *Importer) setStatus(ctx context.Context, source string, status models.SyncStatus, msg *string) {
	if im.status == nil {
		return
	}
	if err := im.status.SetSyncStatus(ctx, source, status, msg); err != nil {
		im.logger.Warn("failed to record import status", zap.String("source", source), zap.Error(err))
	}
}

// ToPerson maps one external contact onto a new acquaintance.
func ToPerson(c ExternalContact) *models.Person {
	p := models.NewPerson(c.GivenName, models.PersonTypeAcquaintance)
	p.FamilyName = models.StringPtr(c.FamilyName)
	p.Company = models.StringPtr(c.Organization)
	p.ExternalID = strings.TrimSpace(c.Identifier)
	p.Groups = []string{}
	if len(c.ImageData) > 0 {
		p.ImageData = append([]byte(nil), c.ImageData...)
	}
	if c.Birthday != nil {
		b := models.DateOnly(*c.Birthday)
		p.Birthday = &b
	}

	p.PhoneNumbers = mapStrings(c.PhoneNumbers)
	p.EmailAddresses = mapStrings(c.EmailAddresses)
	p.URLAddresses = mapStrings(c.URLAddresses)
	p.ContactRelations = mapStrings(c.ContactRelations)
	for _, a := range c.PostalAddresses {
		p.PostalAddresses = append(p.PostalAddresses, labeled(a.Label, a.Address.String()))
	}
	for _, s := range c.SocialProfiles {
		p.SocialProfiles = append(p.SocialProfiles, labeled(s.Label, s.Profile.String()))
	}
	return p
}

func mapStrings(in []LabeledString) []models.LabeledValue {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.LabeledValue, len(in))
	for i, v := range in {
		out[i] = labeled(v.Label, v.Value)
	}
	return out
}

func labeled(rawLabel, value string) models.LabeledValue {
	return models.NewLabeledValue(labels.Localize(rawLabel), value)
}
