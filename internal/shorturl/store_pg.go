package shorturl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayezeilo/urlstore/internal/errx"
)

// urlColumns is the column list every statement selects or returns. The
// visibility enum is cast to text so rows scan into plain Go strings.
const urlColumns = "id, url, short_url, is_gone, visibility::text, client_info, clicked_at, nclicks"

// DefaultQueryTimeout bounds a single store call when no timeout is configured.
const DefaultQueryTimeout = 5 * time.Second

// pgStore implements Store on top of a pgx connection pool.
type pgStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// PGStoreConfig holds configuration for the PostgreSQL store.
type PGStoreConfig struct {
	// QueryTimeout bounds every store call; expiry surfaces as an
	// Unavailable error. Defaults to DefaultQueryTimeout.
	QueryTimeout time.Duration
}

// NewPGStore creates a Store backed by PostgreSQL.
func NewPGStore(pool *pgxpool.Pool, config *PGStoreConfig) Store {
	if config == nil {
		config = &PGStoreConfig{}
	}

	timeout := config.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}

	return &pgStore{
		pool:    pool,
		timeout: timeout,
	}
}

func (s *pgStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func scanURL(row pgx.Row) (URL, error) {
	var u URL
	var visibility string
	err := row.Scan(&u.ID, &u.URL, &u.ShortURL, &u.IsGone, &visibility,
		&u.ClientInfo, &u.ClickedAt, &u.NClicks)
	if err != nil {
		return URL{}, err
	}
	u.Visibility = Visibility(visibility)
	return u, nil
}

func collectURLs(rows pgx.Rows) ([]URL, error) {
	defer rows.Close()

	var urls []URL
	for rows.Next() {
		u, err := scanURL(rows)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// Ping executes a trivial read-only round trip regardless of pool health checks.
func (s *pgStore) Ping(ctx context.Context) error {
	const op = "shorturl.store.Ping"

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var one int
	if err := s.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

func (s *pgStore) Insert(ctx context.Context, records []NewURL) ([]URL, error) {
	const op = "shorturl.store.Insert"

	if len(records) == 0 {
		return nil, errx.E(op, errx.Invalid, errors.New("no records to insert"))
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO urls (url, short_url, visibility) VALUES ")

	args := make([]any, 0, len(records)*3)
	for i, rec := range records {
		visibility := rec.Visibility
		if visibility == "" {
			visibility = VisibilityPublic
		}
		if !visibility.Valid() {
			return nil, errx.E(op, errx.Invalid,
				fmt.Errorf("invalid visibility %q", rec.Visibility))
		}

		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d)", len(args)+1, len(args)+2, len(args)+3)
		args = append(args, rec.URL, rec.ShortURL, string(visibility))
	}
	sb.WriteString(" RETURNING " + urlColumns)

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	// One multi-row statement: the batch commits or fails as a whole.
	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, mapStoreError(op, err)
	}

	urls, err := collectURLs(rows)
	if err != nil {
		return nil, mapStoreError(op, err)
	}
	return urls, nil
}

func (s *pgStore) Select(ctx context.Context, filter Filter) ([]URL, error) {
	const op = "shorturl.store.Select"

	where, args := filter.whereClause(1)
	query := "SELECT " + urlColumns + " FROM urls" + where

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapStoreError(op, err)
	}

	urls, err := collectURLs(rows)
	if err != nil {
		return nil, mapStoreError(op, err)
	}
	return urls, nil
}

func (s *pgStore) DeleteOne(ctx context.Context, filter Filter) (URL, error) {
	const op = "shorturl.store.DeleteOne"

	where, args := filter.whereClause(1)
	query := "DELETE FROM urls" + where + " RETURNING " + urlColumns

	return s.mutateOne(ctx, op, query, args)
}

func (s *pgStore) MarkGone(ctx context.Context, filter Filter) (URL, error) {
	const op = "shorturl.store.MarkGone"

	where, args := filter.whereClause(1)
	query := "UPDATE urls SET is_gone = TRUE" + where + " RETURNING " + urlColumns

	return s.mutateOne(ctx, op, query, args)
}

// mutateOne runs a RETURNING statement that must affect exactly one row. The
// transaction rolls back when zero or multiple rows match, so an ambiguous
// filter never mutates anything.
func (s *pgStore) mutateOne(ctx context.Context, op, query string, args []any) (URL, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return URL{}, mapStoreError(op, err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return URL{}, mapStoreError(op, err)
	}

	urls, err := collectURLs(rows)
	if err != nil {
		return URL{}, mapStoreError(op, err)
	}

	switch len(urls) {
	case 0:
		return URL{}, errx.E(op, errx.NotFound, errors.New("no row matches the filter"))
	case 1:
		if err := tx.Commit(ctx); err != nil {
			return URL{}, mapStoreError(op, err)
		}
		return urls[0], nil
	default:
		return URL{}, errx.E(op, errx.Ambiguous,
			fmt.Errorf("filter matches %d rows, exactly one required", len(urls)))
	}
}

func (s *pgStore) RecordClick(ctx context.Context, filter Filter, clientInfo string, now time.Time) (URL, error) {
	const op = "shorturl.store.RecordClick"

	if clientInfo == "" {
		return URL{}, errx.E(op, errx.Invalid, errors.New("client info is not set"))
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return URL{}, mapStoreError(op, err)
	}
	defer tx.Rollback(ctx)

	// FOR UPDATE serializes concurrent clicks on the same row; the counter
	// is read and written under the row lock, so no increment is lost.
	where, args := filter.whereClause(1)
	query := "SELECT " + urlColumns + " FROM urls" + where + " FOR UPDATE"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return URL{}, mapStoreError(op, err)
	}

	urls, err := collectURLs(rows)
	if err != nil {
		return URL{}, mapStoreError(op, err)
	}

	switch len(urls) {
	case 0:
		return URL{}, errx.E(op, errx.NotFound, errors.New("no row matches the filter"))
	case 1:
		// fall through to the update
	default:
		return URL{}, errx.E(op, errx.Ambiguous,
			fmt.Errorf("filter matches %d rows, click target must be unambiguous", len(urls)))
	}

	target := urls[0]
	row := tx.QueryRow(ctx,
		"UPDATE urls SET client_info = $1, clicked_at = $2, nclicks = $3 WHERE id = $4 RETURNING "+urlColumns,
		clientInfo, now, target.NClicks+1, target.ID)

	updated, err := scanURL(row)
	if err != nil {
		return URL{}, mapStoreError(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return URL{}, mapStoreError(op, err)
	}
	return updated, nil
}
