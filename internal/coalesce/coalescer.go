// Package coalesce accumulates pending partial account updates and flushes
// them to the store gateway in batches.
package coalesce

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/morelo/writeback/internal/model"
	"github.com/morelo/writeback/internal/store"
)

// DefaultDelay is the debounce window for automatic flushes.
const DefaultDelay = 500 * time.Millisecond

// Coalescer merges queued field updates per account and writes each account
// with a single gateway call. Later writes to the same field path overwrite
// earlier ones, so a flushed payload carries only the latest value per path.
//
// One mutex guards both the pending set and the timer-armed flag; it is
// never held across gateway I/O.
type Coalescer struct {
	gw    store.Gateway
	log   zerolog.Logger
	delay time.Duration

	mu      sync.Mutex
	pending map[model.AccountID]map[string]any
	armed   bool
}

func New(gw store.Gateway, delay time.Duration, log zerolog.Logger) *Coalescer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Coalescer{
		gw:      gw,
		log:     log,
		delay:   delay,
		pending: make(map[model.AccountID]map[string]any),
	}
}

// Queue merges fields into the pending update for id and arms the debounce
// timer if none is armed. The window runs from the first unflushed write:
// writes landing while a timer is armed ride the existing window.
func (c *Coalescer) Queue(id model.AccountID, fields map[string]any) {
	c.mu.Lock()
	entry, ok := c.pending[id]
	if !ok {
		entry = make(map[string]any, len(fields))
		c.pending[id] = entry
	}
	for k, v := range fields {
		entry[k] = v
	}
	arm := !c.armed
	if arm {
		c.armed = true
	}
	c.mu.Unlock()

	if arm {
		time.AfterFunc(c.delay, c.fire)
	}
}

// fire disarms before flushing, so a Queue call racing the flush arms a
// fresh window instead of waiting for an unrelated later write.
func (c *Coalescer) fire() {
	c.mu.Lock()
	c.armed = false
	c.mu.Unlock()

	c.FlushAll(context.Background())
}

// Flush persists the pending update for a single account, if any.
func (c *Coalescer) Flush(ctx context.Context, id model.AccountID) error {
	c.mu.Lock()
	fields, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok || len(fields) == 0 {
		return nil
	}

	if err := c.gw.Update(ctx, store.CollectionAccounts, id.String(), fields); err != nil {
		return fmt.Errorf("error flushing account %d: %w", id, err)
	}
	return nil
}

// FlushAll swaps the whole pending set for an empty one, then issues one
// gateway update per captured account concurrently. A queue racing the swap
// lands in the new set and is picked up by the next flush. Failures are
// isolated per account and logged; the write was already visible locally, so
// persistence stays best-effort.
func (c *Coalescer) FlushAll(ctx context.Context) {
	c.mu.Lock()
	batch := c.pending
	c.pending = make(map[model.AccountID]map[string]any)
	c.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	var wg sync.WaitGroup
	for id, fields := range batch {
		wg.Add(1)
		go func(id model.AccountID, fields map[string]any) {
			defer wg.Done()
			if err := c.gw.Update(ctx, store.CollectionAccounts, id.String(), fields); err != nil {
				c.log.Error().Err(err).
					Int64("account_id", int64(id)).
					Msg("Error flushing coalesced update")
			}
		}(id, fields)
	}
	wg.Wait()

	c.log.Debug().Int("accounts", len(batch)).Msg("Flushed pending updates")
}

// Pending returns the number of accounts with unflushed updates.
func (c *Coalescer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Coalescer) HasPending(id model.AccountID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	return ok
}
