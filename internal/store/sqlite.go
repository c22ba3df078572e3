package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ppiankov/checkmate/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the claim database in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) a SQLite claim database.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		claim TEXT NOT NULL,
		speaker TEXT,
		claim_date TEXT,
		reviews TEXT,
		embedding BLOB
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a record
func (s *SQLiteStore) Put(ctx context.Context, record Record) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}

	reviews, err := json.Marshal(record.Reviews)
	if err != nil {
		return fmt.Errorf("marshal reviews: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO claims (id, claim, speaker, claim_date, reviews, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			claim = excluded.claim,
			speaker = excluded.speaker,
			claim_date = excluded.claim_date,
			reviews = excluded.reviews,
			embedding = excluded.embedding`,
		record.ID, record.Claim, record.Speaker, record.Date, string(reviews), encodeEmbedding(record.Embedding))
	if err != nil {
		return fmt.Errorf("insert claim %s: %w", record.ID, err)
	}
	return nil
}

// Scan returns id, claim and embedding for every record in insertion order
func (s *SQLiteStore) Scan(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, claim, embedding FROM claims ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("scan claims: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var r Record
		var blob []byte
		if err := rows.Scan(&r.ID, &r.Claim, &blob); err != nil {
			return nil, fmt.Errorf("read claim row: %w", err)
		}
		r.Embedding = decodeEmbedding(blob)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Get returns the full record
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	var r Record
	var speaker, date, reviews sql.NullString
	var blob []byte

	err := s.db.QueryRowContext(ctx,
		`SELECT id, claim, speaker, claim_date, reviews, embedding FROM claims WHERE id = ?`, id,
	).Scan(&r.ID, &r.Claim, &speaker, &date, &reviews, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get claim %s: %w", id, err)
	}

	r.Speaker = speaker.String
	r.Date = date.String
	r.Embedding = decodeEmbedding(blob)
	if reviews.Valid && reviews.String != "" && reviews.String != "null" {
		var parsed []model.Review
		if err := json.Unmarshal([]byte(reviews.String), &parsed); err != nil {
			return nil, fmt.Errorf("decode reviews for %s: %w", id, err)
		}
		r.Reviews = parsed
	}
	return &r, nil
}

// UpdateEmbedding stores a vector on an existing record
func (s *SQLiteStore) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	res, err := s.db.ExecContext(ctx, `UPDATE claims SET embedding = ? WHERE id = ?`, encodeEmbedding(embedding), id)
	if err != nil {
		return fmt.Errorf("update embedding for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update embedding for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// encodeEmbedding stores vectors as little-endian IEEE 754, 4 bytes per float
func encodeEmbedding(embedding []float32) []byte {
	if len(embedding) == 0 {
		return nil
	}
	blob := make([]byte, len(embedding)*4)
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

func decodeEmbedding(blob []byte) []float32 {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil
	}
	embedding := make([]float32, len(blob)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return embedding
}
