package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process Gateway with the same semantics as the SQLite
// implementation. It backs tests and lets the service run without a database
// file, at the cost of losing everything on shutdown.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Doc
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]Doc)}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(doc), nil
}

func (m *Memory) Create(ctx context.Context, collection, id string, doc Doc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]Doc)
		m.collections[collection] = coll
	}
	coll[id] = cloneDoc(doc)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	applyFields(doc, fields)
	return nil
}

func (m *Memory) Query(ctx context.Context, collection string, q Query) ([]Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []Doc
	for _, doc := range m.collections[collection] {
		if matches(doc, q.Filters) {
			docs = append(docs, cloneDoc(doc))
		}
	}

	if q.OrderBy != "" {
		slices.SortStableFunc(docs, func(a, b Doc) int {
			c, _ := compareValues(docLookup(a, q.OrderBy), docLookup(b, q.OrderBy))
			if q.Descending {
				return -c
			}
			return c
		})
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	return nil
}

func matches(doc Doc, filters []Filter) bool {
	for _, f := range filters {
		c, ok := compareValues(docLookup(doc, f.Field), f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case OpEq:
			if c != 0 {
				return false
			}
		case OpLt:
			if c >= 0 {
				return false
			}
		case OpLte:
			if c > 0 {
				return false
			}
		case OpGt:
			if c <= 0 {
				return false
			}
		case OpGte:
			if c < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compareValues orders two document values of the same general kind:
// timestamps, numbers, strings or bools.
func compareValues(a, b any) (int, bool) {
	if at, aok := normalizeTime(a); aok {
		if bt, bok := normalizeTime(b); bok {
			return at.Compare(bt), true
		}
		return 0, false
	}
	if an, aok := normalizeNumber(a); aok {
		if bn, bok := normalizeNumber(b); bok {
			switch {
			case an < bn:
				return -1, true
			case an > bn:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1, true
			case as > bs:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok && ab == bb {
			return 0, true
		}
		return 1, ok
	}
	return 0, false
}

func normalizeTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

func normalizeNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func cloneDoc(doc Doc) Doc {
	out := make(Doc, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneDoc(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	}
	return v
}
