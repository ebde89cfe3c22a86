// Package account is the public facade over the record cache, the write
// coalescer and the store gateway.
package account

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/morelo/writeback/internal/audit"
	"github.com/morelo/writeback/internal/cache"
	"github.com/morelo/writeback/internal/coalesce"
	"github.com/morelo/writeback/internal/model"
	"github.com/morelo/writeback/internal/store"
)

// Service resolves reads from cache-or-store and routes writes through the
// immediate or coalesced path. Every write patches the cache before
// returning, so a caller always reads its own prior writes even while the
// remote flush is pending.
type Service struct {
	gw      store.Gateway
	records *cache.Records
	pending *coalesce.Coalescer
	audit   audit.Recorder
	log     zerolog.Logger
}

func NewService(gw store.Gateway, pending *coalesce.Coalescer, rec audit.Recorder, log zerolog.Logger) *Service {
	return &Service{
		gw:      gw,
		records: cache.NewRecords(),
		pending: pending,
		audit:   rec,
		log:     log,
	}
}

// Get returns the account, from cache when resident. Absence in both cache
// and store is (nil, nil), not an error.
func (s *Service) Get(ctx context.Context, id model.AccountID) (*model.Account, error) {
	if acct, ok := s.records.Get(id); ok {
		return acct, nil
	}

	doc, err := s.gw.Get(ctx, store.CollectionAccounts, id.String())
	if err != nil {
		s.log.Error().Err(err).Int64("account_id", int64(id)).Msg("Error loading account")
		return nil, fmt.Errorf("error getting account %d: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}

	acct := model.AccountFromDoc(doc)
	s.records.Put(id, acct)
	return acct, nil
}

// Create persists a default account and caches it. It does not guard against
// an existing account with the same ID; callers wanting get-or-create
// semantics use GetOrCreate.
func (s *Service) Create(ctx context.Context, id model.AccountID, username string) (*model.Account, error) {
	acct := model.NewAccount(id, username)
	if err := s.gw.Create(ctx, store.CollectionAccounts, id.String(), acct.Doc()); err != nil {
		return nil, fmt.Errorf("error creating account %d: %w", id, err)
	}

	s.records.Put(id, acct)
	s.audit.Record(ctx, "account_created", id)
	return acct, nil
}

func (s *Service) GetOrCreate(ctx context.Context, id model.AccountID, username string) (*model.Account, error) {
	acct, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct != nil {
		return acct, nil
	}
	return s.Create(ctx, id, username)
}

// Update applies a partial update. The cache is patched field-by-field
// before any I/O, then the write either goes straight to the gateway
// (immediate) or joins the pending set for the next debounced flush.
func (s *Service) Update(ctx context.Context, id model.AccountID, fields map[string]any, immediate bool) error {
	for path, value := range fields {
		s.records.Patch(id, path, value)
	}

	if immediate {
		if err := s.gw.Update(ctx, store.CollectionAccounts, id.String(), fields); err != nil {
			return fmt.Errorf("error updating account %d: %w", id, err)
		}
		return nil
	}

	s.pending.Queue(id, fields)
	return nil
}

func (s *Service) SetState(ctx context.Context, id model.AccountID, state string, immediate bool) error {
	return s.Update(ctx, id, map[string]any{"state": state}, immediate)
}

// State returns the account's current state, or StateInitial when the
// account does not exist or cannot be loaded.
func (s *Service) State(ctx context.Context, id model.AccountID) string {
	acct, err := s.Get(ctx, id)
	if err != nil || acct == nil {
		return model.StateInitial
	}
	return acct.State
}

// UpdateContext replaces the account's conversation context.
func (s *Service) UpdateContext(ctx context.Context, id model.AccountID, data map[string]any) error {
	return s.Update(ctx, id, map[string]any{"context": data}, false)
}

func (s *Service) ClearContext(ctx context.Context, id model.AccountID) error {
	return s.UpdateContext(ctx, id, map[string]any{})
}

// FindByCodename looks an account up by its profile codename. The result is
// not cached: codenames are mutable and the lookup is rare.
func (s *Service) FindByCodename(ctx context.Context, codename string) (*model.Account, error) {
	docs, err := s.gw.Query(ctx, store.CollectionAccounts, store.Query{
		Filters: []store.Filter{{Field: "profile.codename", Op: store.OpEq, Value: codename}},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("error finding account by codename: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return model.AccountFromDoc(docs[0]), nil
}

// FlushPending forces persistence of the pending update for one account.
func (s *Service) FlushPending(ctx context.Context, id model.AccountID) error {
	return s.pending.Flush(ctx, id)
}

// FlushAllPending forces persistence of every pending update. Called at
// shutdown.
func (s *Service) FlushAllPending(ctx context.Context) {
	s.pending.FlushAll(ctx)
}

func (s *Service) ClearCache(id model.AccountID) {
	s.records.Evict(id)
}

func (s *Service) ClearCacheAll() {
	s.records.EvictAll()
}

func (s *Service) CacheSize() int {
	return s.records.Len()
}
