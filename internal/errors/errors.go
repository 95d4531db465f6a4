// Package errors provides error handling for lotalloc.
//
// It re-exports github.com/cockroachdb/errors so every package wraps and
// inspects errors the same way, and defines the sentinels used to classify
// data problems:
//
//	// configuration error: a join/lookup column is absent
//	return errors.Wrapf(errors.ErrMissingColumn, "tolerance table: %s", col)
//
//	// empty-result error: the join produced nothing
//	if errors.Is(err, errors.ErrEmptyJoin) { ... }
//
// Parse errors are never surfaced; see package values.
package errors

import (
	"strings"

	crdb "github.com/cockroachdb/errors"
)

// #region re-exports

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// #endregion re-exports

// #region sentinels

// Sentinel errors. Wrap these to add context while keeping errors.Is working.
var (
	// ErrMissingColumn is a configuration error: a required join or lookup
	// column is absent from an input table.
	ErrMissingColumn = New("missing required column")

	// ErrEmptyJoin indicates the lot x tolerance join produced zero rows.
	ErrEmptyJoin = New("join produced no rows")

	// ErrEmptyResult indicates a stage produced zero output rows.
	ErrEmptyResult = New("empty result")

	// ErrInvalidConfig indicates configuration values that cannot be used.
	ErrInvalidConfig = New("invalid configuration")

	// ErrNotFound indicates the requested run, lot or species does not exist.
	ErrNotFound = New("not found")
)

// MissingColumns builds a configuration error naming the absent columns of
// table, with the full list of available columns attached as a detail.
func MissingColumns(table string, missing, available []string) error {
	err := Wrapf(ErrMissingColumn, "%s: %s", table, strings.Join(missing, ", "))
	err = WithDetailf(err, "available columns: %s", strings.Join(available, " | "))
	return WithHint(err, "fix the input table headers; the run cannot continue without them")
}

// EmptyJoin builds an empty-join error carrying both input row counts.
func EmptyJoin(left string, leftRows int, right string, rightRows int) error {
	err := WithDetailf(ErrEmptyJoin, "%s rows=%d, %s rows=%d", left, leftRows, right, rightRows)
	return WithHint(err, "check that ESPECIE and LINEA PRODUCTO values match between the tables")
}

// IsDataError reports whether err is one of the data-problem sentinels
// (configuration or empty-result errors).
func IsDataError(err error) bool {
	return err != nil && IsAny(err, ErrMissingColumn, ErrEmptyJoin, ErrEmptyResult)
}

// #endregion sentinels
