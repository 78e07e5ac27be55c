package conn

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mstgnz/carepay/infra/logger"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type DB struct {
	*sql.DB
	Driver string
}

// Open connects to the configured database, retrying while it comes up
func Open(driver, dsn string) (*DB, error) {
	return open(driver, dsn, 5, 2*time.Second)
}

func open(driver, dsn string, attempts int, wait time.Duration) (*DB, error) {
	connStr, err := connString(driver, dsn)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		database, err := sql.Open(driver, connStr)
		if err != nil {
			lastErr = err
			logger.Warn(fmt.Sprintf("Attempt %d: failed to open DB connection", attempt), logger.LogContext{
				Fields: map[string]any{"driver": driver, "error": err.Error()},
			})
			time.Sleep(wait)
			continue
		}

		configurePool(database, driver)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = database.PingContext(ctx)
		cancel()

		if err == nil {
			logger.Info("DB connected successfully", logger.LogContext{Fields: map[string]any{"driver": driver}})
			return &DB{DB: database, Driver: driver}, nil
		}

		lastErr = err
		logger.Warn(fmt.Sprintf("Attempt %d: failed to ping DB", attempt), logger.LogContext{
			Fields: map[string]any{"driver": driver, "error": err.Error()},
		})
		database.Close()
		if attempt < attempts {
			time.Sleep(wait)
		}
	}

	return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", driver, attempts, lastErr)
}

func connString(driver, dsn string) (string, error) {
	switch driver {
	case DriverPostgres:
		if dsn == "" {
			return "", fmt.Errorf("DB_DSN is required for %s", driver)
		}
		return dsn, nil
	case DriverSQLite:
		if dsn == "" {
			dsn = "./data/carepay.db"
		}
		if strings.Contains(dsn, "?") || strings.HasPrefix(dsn, "file:") {
			return dsn, nil
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
		// WAL plus immediate transactions so concurrent writers queue on the lock
		return dsn + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=20000&_txlock=immediate&_foreign_keys=on", nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func configurePool(db *sql.DB, driver string) {
	if driver == DriverSQLite {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(0)
		return
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)
}

// CloseDatabase closes the pool and logs the result
func (db *DB) CloseDatabase() {
	if err := db.DB.Close(); err != nil {
		logger.Error("Failed to close connection from the database", err)
	} else {
		logger.Info("DB connection closed")
	}
}
