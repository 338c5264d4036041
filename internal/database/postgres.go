package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"unimerch_back_end/internal/apperr"
)

//go:embed schema.sql
var schema string

// Store is the relational store: catalog, customers, staff roles, orders
// and surveys.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// OpenPostgres opens the pool and checks the connection.
func OpenPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Println("✅ Connected to Postgres")
	return db, nil
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return apperr.Database("migrate schema", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// wrap turns a driver error into an apperr. Unique violations also carry
// apperr.ErrConflict.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperr.Database(op, fmt.Errorf("%w: %s", apperr.ErrConflict, pqErr.Constraint))
	}
	return apperr.Database(op, err)
}

// notFound maps sql.ErrNoRows to a NotFound error for entity.
func notFound(op, entity string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity)
	}
	return wrap(op, err)
}

// requireRow reports NotFound when an update touched nothing.
func requireRow(res sql.Result, op, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(op, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("⚠️ Rollback of %s failed: %v", op, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrap(op, err)
	}
	return nil
}
