package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// DatabaseInst stores exported leaderboards. All access goes through dbLock
// since sqlite allows a single writer.
type DatabaseInst struct {
	db     *sql.DB
	dbLock sync.Mutex
}

func InitDatabase(filePath string, migrationDir string) (*DatabaseInst, error) {
	db, err := sql.Open("sqlite3", filePath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	db.SetMaxOpenConns(1)

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		db.Close()
		return nil, err
	}

	migrator, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationDir,
		"hrlb",
		driver,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load migrations from %s: %w", migrationDir, err)
	}

	err = migrator.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	version, dirty, _ := migrator.Version()
	log.Debug().
		Str("component", "database").
		Str("path", filePath).
		Uint("version", version).
		Bool("dirty", dirty).
		Msg("Database ready")

	return &DatabaseInst{db: db}, nil
}

func (d *DatabaseInst) Close() error {
	d.dbLock.Lock()
	defer d.dbLock.Unlock()

	return d.db.Close()
}
