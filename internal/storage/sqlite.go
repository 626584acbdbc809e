//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"crucible/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		DELETE FROM walks;
		DELETE FROM episodes;
		DELETE FROM dopings;
	`)
	return err
}

func (s *SQLiteStore) SaveWalk(ctx context.Context, rec model.WalkRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeWalk(rec)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO walks (id, schema_version, codec_version, created_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, rec.ID, rec.SchemaVersion, rec.CodecVersion, rec.CreatedAtUTC, payload)
	return err
}

func (s *SQLiteStore) GetWalk(ctx context.Context, id string) (model.WalkRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.WalkRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM walks WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.WalkRecord{}, false, nil
		}
		return model.WalkRecord{}, false, err
	}

	rec, err := DecodeWalk(payload)
	if err != nil {
		return model.WalkRecord{}, false, fmt.Errorf("decode walk %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) ListWalks(ctx context.Context) ([]model.WalkRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM walks ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WalkRecord
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		rec, err := DecodeWalk(payload)
		if err != nil {
			return nil, fmt.Errorf("decode walk %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveEpisode(ctx context.Context, rec model.EpisodeRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeEpisode(rec)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO episodes (id, schema_version, codec_version, created_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, rec.ID, rec.SchemaVersion, rec.CodecVersion, rec.CreatedAtUTC, payload)
	return err
}

func (s *SQLiteStore) GetEpisode(ctx context.Context, id string) (model.EpisodeRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.EpisodeRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM episodes WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.EpisodeRecord{}, false, nil
		}
		return model.EpisodeRecord{}, false, err
	}

	rec, err := DecodeEpisode(payload)
	if err != nil {
		return model.EpisodeRecord{}, false, fmt.Errorf("decode episode %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) ListEpisodes(ctx context.Context) ([]model.EpisodeRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM episodes ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EpisodeRecord
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		rec, err := DecodeEpisode(payload)
		if err != nil {
			return nil, fmt.Errorf("decode episode %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveDoping(ctx context.Context, rec model.DopingRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeDoping(rec)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO dopings (id, schema_version, codec_version, created_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, rec.ID, rec.SchemaVersion, rec.CodecVersion, rec.CreatedAtUTC, payload)
	return err
}

func (s *SQLiteStore) GetDoping(ctx context.Context, id string) (model.DopingRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.DopingRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM dopings WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DopingRecord{}, false, nil
		}
		return model.DopingRecord{}, false, err
	}

	rec, err := DecodeDoping(payload)
	if err != nil {
		return model.DopingRecord{}, false, fmt.Errorf("decode doping %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) ListDopings(ctx context.Context) ([]model.DopingRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM dopings ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DopingRecord
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		rec, err := DecodeDoping(payload)
		if err != nil {
			return nil, fmt.Errorf("decode doping %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS walks (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS dopings (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
