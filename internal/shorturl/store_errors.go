package shorturl

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/urlstore/internal/errx"
)

func isShortURLUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" &&
		pgErr.ConstraintName == "urls_short_url_key"
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23514"
}

// mapStoreError translates a pgx-level failure into the most specific error
// kind detectable from the underlying error.
func mapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isShortURLUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	case isCheckViolation(err):
		return errx.E(op, errx.Invalid, err)

	case errors.Is(err, context.DeadlineExceeded):
		return errx.E(op, errx.Unavailable, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}
