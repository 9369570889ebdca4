package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"chorus/common"

	zlog "github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

type Storage struct {
	db *sql.DB
}

// NewStorage opens (or creates) the chorus database in the chorus data home
// and applies pending migrations.
func NewStorage() (*Storage, error) {
	dataHome, err := common.GetChorusDataHome()
	if err != nil {
		return nil, fmt.Errorf("failed to get chorus data home: %w", err)
	}

	dbPath := filepath.Join(dataHome, "chorus.db")
	zlog.Debug().Str("path", dbPath).Msg("Initializing SQLite storage")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	storage := NewStorageWithDb(db)
	if err := storage.MigrateUp("chorus"); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

func NewStorageWithDb(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) CheckConnection(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() error {
	zlog.Debug().Msg("Closing SQLite connection")
	return s.db.Close()
}
