// Package draft manages short-lived, owner-scoped draft records with an
// absolute expiry.
package draft

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/morelo/writeback/internal/model"
	"github.com/morelo/writeback/internal/store"
)

const (
	// DefaultTTL is the absolute lifetime stamped on every saved draft.
	DefaultTTL = 24 * time.Hour

	// DefaultSweepBatch bounds the cost of a single sweep pass.
	DefaultSweepBatch = 100
)

// Remover deletes a stored media object. A draft's media refs are removed
// when the draft is deleted or found expired.
type Remover interface {
	Remove(ctx context.Context, key string) error
}

// Store persists drafts through the store gateway. Drafts are not cached:
// expiry and ownership are re-checked on every read, and a draft found past
// its expiry is deleted on the spot.
type Store struct {
	gw         store.Gateway
	media      Remover
	ttl        time.Duration
	sweepBatch int
	log        zerolog.Logger

	now func() time.Time
}

// NewStore builds a draft store. media may be nil, in which case media
// cleanup is skipped.
func NewStore(gw store.Gateway, media Remover, log zerolog.Logger) *Store {
	return &Store{
		gw:         gw,
		media:      media,
		ttl:        DefaultTTL,
		sweepBatch: DefaultSweepBatch,
		log:        log,
		now:        time.Now,
	}
}

func (s *Store) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

func (s *Store) SetSweepBatch(n int) {
	if n > 0 {
		s.sweepBatch = n
	}
}

// Save persists a new draft and returns its generated ID.
func (s *Store) Save(ctx context.Context, owner model.AccountID, payload model.DraftPayload) (string, error) {
	id := uuid.New().String()
	now := s.now().UTC()

	d := &model.Draft{
		ID:           id,
		OwnerID:      owner,
		DraftPayload: payload,
		Status:       model.DraftStatus,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	if err := s.gw.Create(ctx, store.CollectionDrafts, id, d.Doc()); err != nil {
		s.log.Error().Err(err).Int64("owner_id", int64(owner)).Msg("Error saving draft")
		return "", fmt.Errorf("error saving draft: %w", err)
	}

	s.log.Info().Str("draft_id", id).Int64("owner_id", int64(owner)).Msg("Draft saved")
	return id, nil
}

// Get loads a draft by ID. Absent, owned by someone else, or expired all
// yield (nil, nil); an expired draft is deleted as a side effect. Ownership
// is checked on the loaded document rather than in the query so a mismatch
// is indistinguishable from absence.
func (s *Store) Get(ctx context.Context, owner model.AccountID, id string) (*model.Draft, error) {
	doc, err := s.gw.Get(ctx, store.CollectionDrafts, id)
	if err != nil {
		s.log.Error().Err(err).Str("draft_id", id).Msg("Error loading draft")
		return nil, fmt.Errorf("error getting draft %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}

	d := model.DraftFromDoc(doc)
	if d.OwnerID != owner {
		s.log.Warn().Str("draft_id", id).Int64("owner_id", int64(owner)).Msg("Draft owner mismatch")
		return nil, nil
	}
	if d.Expired(s.now()) {
		s.log.Info().Str("draft_id", id).Msg("Draft expired, removing")
		s.remove(ctx, d)
		return nil, nil
	}

	return d, nil
}

// Update merges fields into an existing draft after the ownership and expiry
// checks, stamping a fresh updated_at. It reports whether the update was
// applied; failures are logged, not returned.
func (s *Store) Update(ctx context.Context, owner model.AccountID, id string, fields map[string]any) bool {
	d, err := s.Get(ctx, owner, id)
	if err != nil || d == nil {
		return false
	}

	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["updated_at"] = s.now().UTC()

	if err := s.gw.Update(ctx, store.CollectionDrafts, id, merged); err != nil {
		s.log.Error().Err(err).Str("draft_id", id).Msg("Error updating draft")
		return false
	}
	return true
}

// Delete removes a draft the caller owns. Deleting an absent or foreign
// draft reports false.
func (s *Store) Delete(ctx context.Context, owner model.AccountID, id string) bool {
	d, err := s.Get(ctx, owner, id)
	if err != nil || d == nil {
		return false
	}
	if err := s.remove(ctx, d); err != nil {
		return false
	}
	s.log.Info().Str("draft_id", id).Int64("owner_id", int64(owner)).Msg("Draft deleted")
	return true
}

// ListForOwner returns the owner's live drafts, newest first, at most limit.
// Expired drafts encountered during the scan are deleted and excluded.
func (s *Store) ListForOwner(ctx context.Context, owner model.AccountID, limit int) ([]*model.Draft, error) {
	docs, err := s.gw.Query(ctx, store.CollectionDrafts, store.Query{
		Filters: []store.Filter{
			{Field: "owner_id", Op: store.OpEq, Value: int64(owner)},
			{Field: "status", Op: store.OpEq, Value: model.DraftStatus},
		},
		OrderBy:    "created_at",
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		s.log.Error().Err(err).Int64("owner_id", int64(owner)).Msg("Error listing drafts")
		return nil, fmt.Errorf("error listing drafts for owner %d: %w", owner, err)
	}

	now := s.now()
	drafts := make([]*model.Draft, 0, len(docs))
	for _, doc := range docs {
		d := model.DraftFromDoc(doc)
		if d.Expired(now) {
			s.remove(ctx, d)
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// SweepExpired deletes one batch of expired drafts and returns how many were
// removed. Individual deletion failures are logged and skipped so one bad
// row cannot stall the sweep.
func (s *Store) SweepExpired(ctx context.Context) (int, error) {
	docs, err := s.gw.Query(ctx, store.CollectionDrafts, store.Query{
		Filters: []store.Filter{
			{Field: "expires_at", Op: store.OpLt, Value: s.now().UTC()},
		},
		Limit: s.sweepBatch,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Error querying expired drafts")
		return 0, fmt.Errorf("error sweeping expired drafts: %w", err)
	}

	removed := 0
	for _, doc := range docs {
		d := model.DraftFromDoc(doc)
		if err := s.remove(ctx, d); err != nil {
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("Swept expired drafts")
	}
	return removed, nil
}

// remove deletes the draft row, then its media objects. Media cleanup is
// best-effort: a failed object removal is logged and does not undo the
// delete.
func (s *Store) remove(ctx context.Context, d *model.Draft) error {
	if err := s.gw.Delete(ctx, store.CollectionDrafts, d.ID); err != nil {
		s.log.Warn().Err(err).Str("draft_id", d.ID).Msg("Error deleting draft")
		return err
	}

	if s.media == nil {
		return nil
	}
	for _, ref := range d.MediaRefs {
		if err := s.media.Remove(ctx, ref); err != nil {
			s.log.Warn().Err(err).
				Str("draft_id", d.ID).
				Str("media_ref", ref).
				Msg("Error removing draft media")
		}
	}
	return nil
}
