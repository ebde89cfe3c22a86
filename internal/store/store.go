// Package store defines the document store gateway consumed by the caching
// and draft layers, plus its SQLite and in-memory implementations.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// Doc is a stored document: a mapping from field name to value. Nested
// objects are nested maps.
type Doc = map[string]any

// Collections used by this service.
const (
	CollectionAccounts = "accounts"
	CollectionDrafts   = "drafts"
)

type Op string

const (
	OpEq  Op = "=="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
)

// Filter is a single equality/comparison predicate on a document field.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query bounds and orders a filtered scan of one collection.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// ErrNotFound is returned by Update when the target document does not exist.
// Get reports absence as (nil, nil) instead.
var ErrNotFound = errors.New("store: document not found")

// Gateway is the minimal contract this service needs from a remote document
// store. Update applies only the named fields; dot-separated field paths
// address nested values and create intermediate objects as needed.
type Gateway interface {
	Get(ctx context.Context, collection, id string) (Doc, error)
	Create(ctx context.Context, collection, id string, doc Doc) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Query(ctx context.Context, collection string, q Query) ([]Doc, error)
	Delete(ctx context.Context, collection, id string) error
}

var storeLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	storeLogger = l
}

// applyFields merges a partial update into a document. A path whose
// intermediate segment exists but is not an object is skipped rather than
// overwritten.
func applyFields(doc Doc, fields map[string]any) {
	for path, value := range fields {
		parts := strings.Split(path, ".")
		m := doc
		ok := true
		for _, p := range parts[:len(parts)-1] {
			next, exists := m[p]
			if !exists || next == nil {
				child := map[string]any{}
				m[p] = child
				m = child
				continue
			}
			child, isMap := next.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			m = child
		}
		if ok {
			m[parts[len(parts)-1]] = value
		}
	}
}
