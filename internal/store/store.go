// Package store provides a SQLite-backed vector store for the legal corpus.
// Documents and their embedded chunks are persisted across restarts;
// similarity search runs as a full scan over the chunk embeddings, which is
// the right trade-off for a corpus of a few thousand statutes on one host.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/lexph/batasrag-go/internal/rag"
)

// deleteBatchSize caps how many chunk rows a single DELETE statement removes,
// keeping each transaction short under concurrent reads.
const deleteBatchSize = 500

// SQLiteStore is a rag.VectorStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the corpus database. It resolves
// to ~/.batas/batas.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".batas")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "batas.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id           TEXT    PRIMARY KEY,
    category     TEXT    NOT NULL,
    year         INTEGER NOT NULL,
    jurisdiction TEXT    NOT NULL,
    status       TEXT    NOT NULL,
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE TABLE IF NOT EXISTS chunks (
    chunk_id     TEXT    PRIMARY KEY,
    document_id  TEXT    NOT NULL,
    chunk_index  INTEGER NOT NULL,
    content      TEXT    NOT NULL,
    embedding    BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document
    ON chunks (document_id);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// PutDocument persists a document record. Re-ingesting an existing document
// replaces its record; pair with PutChunks to replace its chunks.
func (s *SQLiteStore) PutDocument(ctx context.Context, doc rag.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("store: put document: %w", rag.ErrEmptyInput)
	}
	const q = `
INSERT INTO documents (id, category, year, jurisdiction, status, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    category = excluded.category,
    year = excluded.year,
    jurisdiction = excluded.jurisdiction,
    status = excluded.status`
	status := doc.Metadata.Status
	if status == "" {
		status = rag.StatusActive
	}
	_, err := s.db.ExecContext(ctx, q,
		doc.ID, doc.Metadata.Category, doc.Metadata.Year,
		doc.Metadata.Jurisdiction, string(status), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: put document %s: %w", doc.ID, err)
	}
	return nil
}

// PutChunks replaces the stored chunks of a document with the given set.
// The replace runs in one transaction so readers never see a half-ingested
// document.
func (s *SQLiteStore) PutChunks(ctx context.Context, documentID string, chunks []rag.Chunk) error {
	if documentID == "" {
		return fmt.Errorf("store: put chunks: %w", rag.ErrEmptyInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: put chunks %s: begin: %w", documentID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("store: put chunks %s: clear: %w", documentID, err)
	}

	const q = `
INSERT OR REPLACE INTO chunks (chunk_id, document_id, chunk_index, content, embedding)
VALUES (?, ?, ?, ?, ?)`
	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx, q,
			c.ID, documentID, c.Index, c.Text, encodeVector(c.Embedding)); err != nil {
			return fmt.Errorf("store: put chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: put chunks %s: commit: %w", documentID, err)
	}
	return nil
}

// GetChunk returns a single chunk by its ID, with document metadata attached.
// Returns rag.ErrNotFound when no such chunk exists.
func (s *SQLiteStore) GetChunk(ctx context.Context, chunkID string) (rag.Chunk, error) {
	const q = `
SELECT c.chunk_id, c.document_id, c.chunk_index, c.content, c.embedding,
       d.category, d.year, d.jurisdiction, d.status
FROM   chunks c
JOIN   documents d ON d.id = c.document_id
WHERE  c.chunk_id = ?`

	var (
		c      rag.Chunk
		blob   []byte
		status string
	)
	err := s.db.QueryRowContext(ctx, q, chunkID).Scan(
		&c.ID, &c.DocumentID, &c.Index, &c.Text, &blob,
		&c.Metadata.Category, &c.Metadata.Year, &c.Metadata.Jurisdiction, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return rag.Chunk{}, fmt.Errorf("store: chunk %s: %w", chunkID, rag.ErrNotFound)
	}
	if err != nil {
		return rag.Chunk{}, fmt.Errorf("store: get chunk %s: %w", chunkID, err)
	}
	c.Metadata.Status = rag.Status(status)
	c.Embedding = decodeVector(blob)
	return c, nil
}

// DeleteDocument removes a document and all of its chunks. Chunks are removed
// in short batches so a large document does not hold the write lock for the
// whole deletion. Returns rag.ErrNotFound when the document does not exist.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, documentID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE id = ?`, documentID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("store: delete %s: lookup: %w", documentID, err)
	}
	if exists == 0 {
		return fmt.Errorf("store: document %s: %w", documentID, rag.ErrNotFound)
	}

	const q = `
DELETE FROM chunks WHERE chunk_id IN (
    SELECT chunk_id FROM chunks WHERE document_id = ? LIMIT ?
)`
	for {
		res, err := s.db.ExecContext(ctx, q, documentID, deleteBatchSize)
		if err != nil {
			return fmt.Errorf("store: delete %s: chunks: %w", documentID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("store: delete %s: rows affected: %w", documentID, err)
		}
		if n < deleteBatchSize {
			break
		}
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID); err != nil {
		return fmt.Errorf("store: delete %s: document: %w", documentID, err)
	}
	return nil
}

// Search returns the k chunks most similar to the query vector, highest score
// first. A zero-length query vector yields no results rather than an error.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, k int) ([]rag.SearchResult, error) {
	if len(vector) == 0 || k <= 0 {
		return nil, nil
	}

	const q = `
SELECT c.chunk_id, c.document_id, c.content, c.embedding,
       d.category, d.year, d.jurisdiction, d.status
FROM   chunks c
JOIN   documents d ON d.id = c.document_id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var results []rag.SearchResult
	for rows.Next() {
		var (
			r      rag.SearchResult
			blob   []byte
			status string
		)
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Text, &blob,
			&r.Metadata.Category, &r.Metadata.Year, &r.Metadata.Jurisdiction, &status); err != nil {
			return nil, fmt.Errorf("store: search scan: %w", err)
		}
		r.Metadata.Status = rag.Status(status)
		r.Score = rag.CosineSimilarity(vector, decodeVector(blob))
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: search rows: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Stats returns corpus-level counts.
func (s *SQLiteStore) Stats(ctx context.Context) (rag.Stats, error) {
	st := rag.Stats{ByStatus: map[string]int{}}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks`).Scan(&st.Chunks); err != nil {
		return rag.Stats{}, fmt.Errorf("store: stats chunks: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM documents GROUP BY status`)
	if err != nil {
		return rag.Stats{}, fmt.Errorf("store: stats documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return rag.Stats{}, fmt.Errorf("store: stats scan: %w", err)
		}
		st.ByStatus[status] = n
		st.Documents += n
	}
	if err := rows.Err(); err != nil {
		return rag.Stats{}, fmt.Errorf("store: stats rows: %w", err)
	}
	return st, nil
}

// Ping verifies the database is reachable. Used by the readiness probe.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// encodeVector packs a float32 slice into a little-endian byte blob.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a little-endian byte blob into a float32 slice.
func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
