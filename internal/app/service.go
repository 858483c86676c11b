package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"maskvault/go-backend/internal/identity"
	"maskvault/go-backend/internal/storage"

	"maskvault/go-backend/pkg/models"
)

var ErrNotConfigured = errors.New("service is missing a required collaborator")

// Service exposes every operation of the daemon. One mutex serializes
// requests: the host may deliver overlapping calls, and the storage
// collaborator has no transactions, so read-modify-write atomicity is
// enforced here.
type Service struct {
	mu      sync.Mutex
	store   storage.StateStore
	seeds   *identity.SeedManager
	deriver *identity.Deriver
	consent Consent
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewService loads the persisted state once to restore the sealed seed
// envelope, then serves requests. Each request reloads the state; this
// initial load only rehydrates the seed manager.
func NewService(ctx context.Context, opts ServiceOptions) (*Service, error) {
	if opts.Store == nil || opts.Seeds == nil {
		return nil, ErrNotConfigured
	}
	if opts.Consent == nil {
		opts.Consent = StaticConsent{Approve: true}
	}
	if opts.Logger == nil {
		opts.Logger = DefaultLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Service{
		store:   opts.Store,
		seeds:   opts.Seeds,
		deriver: identity.NewDeriver(opts.Seeds),
		consent: opts.Consent,
		logger:  opts.Logger,
		metrics: NewMetrics(opts.Registerer),
		now:     opts.Now,
	}

	state, err := opts.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state.SeedEnvelope != nil {
		opts.Seeds.Restore(state.SeedEnvelope)
	}
	return s, nil
}

func (s *Service) nowMs() int64 {
	return s.now().UnixMilli()
}

// run is the request cycle: take the writer lock, load the latest
// snapshot, apply fn, persist once. An error from fn aborts the request
// before anything is written.
func (s *Service) run(ctx context.Context, op string, fn func(o *Orchestrator) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.recordRequest(op)

	o, err := beginRequest(ctx, s.store)
	if err != nil {
		s.metrics.recordFailure(op)
		s.logger.Error("state load failed", "op", op, "err", err)
		return err
	}
	if err := fn(o); err != nil {
		s.metrics.recordFailure(op)
		return err
	}
	wasDirty := o.dirty
	if err := o.Persist(ctx); err != nil {
		s.metrics.recordFailure(op)
		s.logger.Error("state persist failed", "op", op, "err", err)
		return err
	}
	if wasDirty {
		s.metrics.recordPersist()
	}
	return nil
}

// confirm runs the consent collaborator. A declined prompt is reported
// as performed=false without touching state.
func (s *Service) confirm(ctx context.Context, prompt ConsentPrompt) (bool, error) {
	ok, err := s.consent.Confirm(ctx, prompt)
	if err != nil {
		return false, err
	}
	if !ok {
		s.metrics.recordConsentDecline()
	}
	return ok, nil
}

// --- seed lifecycle ---

func (s *Service) CreateIdentity(ctx context.Context, password string) (string, error) {
	mnemonic, err := s.seeds.Create(password)
	if err != nil {
		return "", err
	}
	if err := s.persistSeedEnvelope(ctx, "identity.create"); err != nil {
		return "", err
	}
	return mnemonic, nil
}

func (s *Service) ImportIdentity(ctx context.Context, mnemonic, password string) error {
	if _, err := s.seeds.Import(mnemonic, password); err != nil {
		return err
	}
	return s.persistSeedEnvelope(ctx, "identity.import")
}

// persistSeedEnvelope writes the freshly sealed seed into the state blob.
// A failed persist unwinds the manager to its empty state so memory and
// disk cannot diverge; the caller retries from scratch.
func (s *Service) persistSeedEnvelope(ctx context.Context, op string) error {
	err := s.run(ctx, op, func(o *Orchestrator) error {
		o.SetSeedEnvelope(s.seeds.Envelope())
		return nil
	})
	if err != nil {
		s.seeds.Restore(nil)
	}
	return err
}

func (s *Service) UnlockSeed(ctx context.Context, password string) error {
	return s.seeds.Unlock(password)
}

func (s *Service) LockSeed(ctx context.Context) {
	s.seeds.Lock()
}

func (s *Service) ExportSeed(ctx context.Context, password string) (string, error) {
	return s.seeds.Export(password)
}

func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if err := s.seeds.ChangePassword(oldPassword, newPassword); err != nil {
		return err
	}
	return s.run(ctx, "identity.change_password", func(o *Orchestrator) error {
		o.SetSeedEnvelope(s.seeds.Envelope())
		return nil
	})
}

func (s *Service) ValidateMnemonic(mnemonic string) bool {
	return s.seeds.ValidateMnemonic(mnemonic)
}

func (s *Service) SeedStatus(ctx context.Context) models.SeedStatus {
	return models.SeedStatus{
		Exists:   s.seeds.Envelope() != nil,
		Unlocked: s.seeds.Unlocked(),
	}
}
