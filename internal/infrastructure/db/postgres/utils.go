package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/clubnft/clubd/internal/infrastructure/db/postgres/sqlc/queries"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const (
	driverName = "postgres"
	maxRetries = 5
)

// OpenDb connects to the postgres db at dsn. With autoCreate set, a missing
// database is created on the fly.
func OpenDb(dsn string, autoCreate bool) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pingDB(ctx, db, dsn, autoCreate); err != nil {
		return nil, fmt.Errorf("unable to establish connection with db: %v", err)
	}

	return db, nil
}

// pingDB makes sure the lazily opened connection is actually usable.
func pingDB(ctx context.Context, db *sql.DB, dsn string, autoCreate bool) error {
	err := db.PingContext(ctx)
	if err == nil {
		return nil
	}

	var dbErr *pq.Error
	// 3D000: invalid_catalog_name.
	if !errors.As(err, &dbErr) || dbErr.Code != "3D000" || !autoCreate {
		return err
	}

	log.Info("postgres database not found, creating it...")
	if err := createDatabase(ctx, dsn); err != nil {
		return err
	}
	return pingDB(ctx, db, dsn, false)
}

func createDatabase(ctx context.Context, dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return fmt.Errorf("database auto-creation requires a URL formatted DSN")
	}

	parsedURL, err := url.Parse(dsn)
	if err != nil {
		return err
	}
	dbName := strings.TrimPrefix(parsedURL.Path, "/")
	if dbName == "" {
		return fmt.Errorf("missing database name in DSN")
	}

	// Connect to the server default db to issue the CREATE statement.
	parsedURL.Path = ""
	rootDB, err := sql.Open(driverName, parsedURL.String())
	if err != nil {
		return err
	}
	// nolint
	defer rootDB.Close()

	query := "CREATE DATABASE " + pq.QuoteIdentifier(dbName)
	log.Debugf("executing query '%s'", query)
	if _, err := rootDB.ExecContext(ctx, query); err != nil {
		return err
	}
	return nil
}

func execTx(
	ctx context.Context, db *sql.DB, txBody func(*queries.Queries) error,
) error {
	var lastErr error
	for range maxRetries {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		qtx := queries.New(db).WithTx(tx)

		if err := txBody(qtx); err != nil {
			//nolint:all
			tx.Rollback()

			if isConflictError(err) {
				lastErr = err
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return err
		}

		// Commit the transaction
		if err := tx.Commit(); err != nil {
			if isConflictError(err) {
				lastErr = err
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}

	return lastErr
}

func isConflictError(err error) bool {
	var dbErr *pq.Error
	if !errors.As(err, &dbErr) {
		return false
	}
	// 40001: serialization_failure, 40P01: deadlock_detected.
	return dbErr.Code == "40001" || dbErr.Code == "40P01"
}

func isUniqueViolation(err error) bool {
	var dbErr *pq.Error
	// 23505: unique_violation.
	return errors.As(err, &dbErr) && dbErr.Code == "23505"
}
