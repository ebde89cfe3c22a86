package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/morelo/writeback/internal/util/compression"
)

// SQLite is the production Gateway. Each document is one row: the payload is
// zstd-compressed JSON, and the handful of fields the service filters and
// orders on are extracted into indexed columns on every write. Filtering on
// any other field is not supported; that is a documented limit of this
// gateway, not of the contract.
type SQLite struct {
	path  string
	conn  *sql.DB
	codec compression.Codec
}

// indexedColumns maps filterable document field paths to their columns.
var indexedColumns = map[string]string{
	"owner_id":         "owner_id",
	"status":           "status",
	"created_at":       "created_at",
	"expires_at":       "expires_at",
	"updated_at":       "updated_at",
	"profile.codename": "codename",
}

func NewSQLite(path string) (*SQLite, error) {
	codec, err := compression.NewZstd()
	if err != nil {
		return nil, fmt.Errorf("error initializing codec: %w", err)
	}
	return &SQLite{path: path, codec: codec}, nil
}

func (s *SQLite) Init() error {
	var err error
	s.conn, err = sql.Open("sqlite3", s.path)
	if err != nil {
		return err
	}

	res, err := s.conn.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    owner_id INTEGER,
    status TEXT,
    codename TEXT,
    created_at INTEGER,
    expires_at INTEGER,
    updated_at INTEGER,
    doc BLOB NOT NULL,
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_owner
    ON documents(collection, owner_id, status, created_at);

CREATE INDEX IF NOT EXISTS idx_documents_expiry
    ON documents(collection, expires_at);

CREATE INDEX IF NOT EXISTS idx_documents_codename
    ON documents(collection, codename);`)
	if err != nil {
		return err
	}

	storeLogger.Info().Str("path", s.path).Any("db_result", res).Msg("Document store initialized")
	return nil
}

func (s *SQLite) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, collection, id string) (Doc, error) {
	var blob []byte
	row := s.conn.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading document %s/%s: %w", collection, id, err)
	}
	return s.decode(blob)
}

func (s *SQLite) Create(ctx context.Context, collection, id string, doc Doc) error {
	blob, err := s.encode(doc)
	if err != nil {
		return err
	}

	cols := extractColumns(doc)
	_, err = s.conn.ExecContext(ctx, `
INSERT INTO documents (collection, id, owner_id, status, codename, created_at, expires_at, updated_at, doc)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		collection, id, cols.ownerID, cols.status, cols.codename,
		cols.createdAt, cols.expiresAt, cols.updatedAt, blob)
	if err != nil {
		return fmt.Errorf("error creating document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting update for %s/%s: %w", collection, id, err)
	}
	defer tx.Rollback()

	var blob []byte
	row := tx.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("error reading document %s/%s: %w", collection, id, err)
	}

	doc, err := s.decode(blob)
	if err != nil {
		return err
	}
	applyFields(doc, fields)

	blob, err = s.encode(doc)
	if err != nil {
		return err
	}

	cols := extractColumns(doc)
	_, err = tx.ExecContext(ctx, `
UPDATE documents
SET owner_id = ?, status = ?, codename = ?, created_at = ?, expires_at = ?, updated_at = ?, doc = ?
WHERE collection = ? AND id = ?`,
		cols.ownerID, cols.status, cols.codename,
		cols.createdAt, cols.expiresAt, cols.updatedAt, blob,
		collection, id)
	if err != nil {
		return fmt.Errorf("error updating document %s/%s: %w", collection, id, err)
	}

	return tx.Commit()
}

func (s *SQLite) Query(ctx context.Context, collection string, q Query) ([]Doc, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT doc FROM documents WHERE collection = ?`)
	args := []any{collection}

	for _, f := range q.Filters {
		col, ok := indexedColumns[f.Field]
		if !ok {
			return nil, fmt.Errorf("store: field %q is not filterable", f.Field)
		}
		op, ok := sqlOp(f.Op)
		if !ok {
			return nil, fmt.Errorf("store: unsupported filter op %q", f.Op)
		}
		sb.WriteString(" AND ")
		sb.WriteString(col)
		sb.WriteString(" ")
		sb.WriteString(op)
		sb.WriteString(" ?")
		args = append(args, columnValue(f.Value))
	}

	if q.OrderBy != "" {
		col, ok := indexedColumns[q.OrderBy]
		if !ok {
			return nil, fmt.Errorf("store: field %q is not orderable", q.OrderBy)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(col)
		if q.Descending {
			sb.WriteString(" DESC")
		} else {
			sb.WriteString(" ASC")
		}
	}

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Doc
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("error scanning document: %w", err)
		}
		doc, err := s.decode(blob)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("error deleting document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLite) encode(doc Doc) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("error encoding document: %w", err)
	}
	blob, err := s.codec.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("error compressing document: %w", err)
	}
	return blob, nil
}

func (s *SQLite) decode(blob []byte) (Doc, error) {
	raw, err := s.codec.Decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("error decompressing document: %w", err)
	}
	var doc Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("error decoding document: %w", err)
	}
	return doc, nil
}

func sqlOp(op Op) (string, bool) {
	switch op {
	case OpEq:
		return "=", true
	case OpLt, OpLte, OpGt, OpGte:
		return string(op), true
	}
	return "", false
}

// columnValue normalizes a filter value for comparison against an indexed
// column. Timestamps are stored as Unix nanoseconds.
func columnValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UnixNano()
	}
	return v
}

type docColumns struct {
	ownerID   any
	status    any
	codename  any
	createdAt any
	expiresAt any
	updatedAt any
}

func extractColumns(doc Doc) docColumns {
	return docColumns{
		ownerID:   docInt(doc, "owner_id"),
		status:    docString(doc, "status"),
		codename:  docString(doc, "profile.codename"),
		createdAt: docNanos(doc, "created_at"),
		expiresAt: docNanos(doc, "expires_at"),
		updatedAt: docNanos(doc, "updated_at"),
	}
}

func docLookup(doc Doc, path string) any {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}

func docInt(doc Doc, path string) any {
	switch t := docLookup(doc, path).(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	}
	return nil
}

func docString(doc Doc, path string) any {
	if s, ok := docLookup(doc, path).(string); ok && s != "" {
		return s
	}
	return nil
}

func docNanos(doc Doc, path string) any {
	switch t := docLookup(doc, path).(type) {
	case time.Time:
		return t.UnixNano()
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts.UnixNano()
		}
	case int64:
		return t
	case float64:
		return int64(t)
	}
	return nil
}
