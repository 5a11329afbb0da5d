package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/fantasylabel/label-server-go/internal/league"
)

const seasonsSchema = `
CREATE TABLE IF NOT EXISTS seasons (
	id      TEXT PRIMARY KEY,
	doc     JSONB NOT NULL,
	version BIGINT NOT NULL
)`

// SeasonStore persists season documents with optimistic version checks.
type SeasonStore struct {
	db     *DB
	logger *zap.Logger
}

// NewSeasonStore creates the store.
func NewSeasonStore(db *DB, logger *zap.Logger) *SeasonStore {
	return &SeasonStore{db: db, logger: logger}
}

// EnsureSchema creates the seasons table if needed.
func (s *SeasonStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, seasonsSchema); err != nil {
		return fmt.Errorf("ensure seasons schema: %w", err)
	}
	return nil
}

// Save writes a season document at the given version. The write lands
// whenever it moves the stored version forward; version gaps are fine, so a
// document whose earlier save failed transiently re-syncs on the next save.
// A write at a version behind the stored one fails with ErrConflict so a
// stale writer re-reads instead of silently overwriting.
func (s *SeasonStore) Save(ctx context.Context, id string, doc []byte, version int64) error {
	tag, err := s.db.Pool.Exec(ctx, `
		INSERT INTO seasons (id, doc, version) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, version = EXCLUDED.version
		WHERE seasons.version <= EXCLUDED.version`,
		id, doc, version,
	)
	if err != nil {
		return fmt.Errorf("save season %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("season %s stale write at version %d: %w", id, version, league.ErrConflict)
	}
	return nil
}

// Load reads one season document.
func (s *SeasonStore) Load(ctx context.Context, id string) ([]byte, int64, error) {
	var doc []byte
	var version int64
	err := s.db.Pool.QueryRow(ctx, `SELECT doc, version FROM seasons WHERE id = $1`, id).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, fmt.Errorf("season %s: %w", id, league.ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load season %s: %w", id, err)
	}
	return doc, version, nil
}

// LoadAll reads every stored season document.
func (s *SeasonStore) LoadAll(ctx context.Context) ([][]byte, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT doc FROM seasons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load seasons: %w", err)
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seasons: %w", err)
	}
	return docs, nil
}

// Delete removes one season document.
func (s *SeasonStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM seasons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete season %s: %w", id, err)
	}
	return nil
}
