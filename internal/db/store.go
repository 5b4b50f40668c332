package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/listkeeper/internal/clock"
)

const DefaultPageSize = 15

// ErrNotFound covers both missing rows and rows owned by someone else.
var ErrNotFound = errors.New("not found")

type Store struct {
	DB       *sql.DB
	clock    clock.Clock
	pageSize int
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithPageSize(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

func NewStore(db *sql.DB, opts ...Option) *Store {
	store := &Store{DB: db, clock: clock.Real(), pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) PageSize() int {
	return s.pageSize
}

func (s *Store) now() int64 {
	return s.clock.Now().UTC().UnixNano()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// searchClause matches term case-insensitively against the given columns.
func searchClause(term string, columns ...string) (string, []any) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "", nil
	}
	parts := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, fmt.Sprintf("instr(fold(%s), ?) > 0", column))
		args = append(args, term)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func fromNanos(value int64) time.Time {
	return time.Unix(0, value).UTC()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
