// Package postgres stores the assessment collections as JSONB documents,
// with the columns queries filter on kept alongside.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"assessment-service/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, domain.Unavailable("postgres connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, domain.Unavailable("postgres ping", err)
	}
	return pool, nil
}

// mapError translates driver errors: no rows becomes notFound, unique
// violations map through conflicts by constraint name.
func mapError(op string, err error, notFound error, conflicts map[string]error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if mapped, ok := conflicts[pgErr.ConstraintName]; ok {
			return mapped
		}
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return domain.Unavailable(op, err)
}

func scanDocs[T any](rows pgx.Rows, fill func(*T, string)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal row %s: %w", id, err)
		}
		fill(&doc, id)
		out = append(out, doc)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
