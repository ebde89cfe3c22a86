// Package cache holds the in-memory account records resident in this
// process.
package cache

import (
	"sync"

	"github.com/morelo/writeback/internal/model"
)

// Records maps account IDs to decoded accounts. All access goes through one
// mutex; a reader observes either the full pre-mutation or post-mutation
// state of a record, never an intermediate one.
//
// There is no eviction policy or capacity bound: entries live until evicted
// explicitly or the process exits. That is a known scaling limit.
type Records struct {
	mu    sync.Mutex
	items map[model.AccountID]*model.Account
}

func NewRecords() *Records {
	return &Records{
		items: make(map[model.AccountID]*model.Account),
	}
}

func (r *Records) Get(id model.AccountID) (*model.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.items[id]
	return acct, ok
}

func (r *Records) Put(id model.AccountID, acct *model.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = acct
}

// Patch applies a single field mutation to the cached account, resolving
// dotted paths. The cache is best-effort: patching an absent account is a
// no-op, as is a malformed path.
func (r *Records) Patch(id model.AccountID, path string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acct, ok := r.items[id]; ok {
		acct.SetField(path, value)
	}
}

func (r *Records) Evict(id model.AccountID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

func (r *Records) EvictAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[model.AccountID]*model.Account)
}

func (r *Records) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
