// Package xerrors re-exports github.com/cockroachdb/errors and defines the
// error kinds used at every boundary in udl (HTTP, webhook dispatch, plugin
// load). Kinds are sentinel errors so errors.Is keeps working through any
// amount of Wrap/WithDetail/WithHint wrapping.
package xerrors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping.
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing context.
var (
	WithHint   = crdb.WithHint
	WithDetail = crdb.WithDetail
)

// Inspection.
var (
	Is     = crdb.Is
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Kind sentinels, per spec §7. Wrap one of these with Wrap/Wrapf so
// errors.Is(err, xerrors.NotFound) still reports true after wrapping.
var (
	InvalidInput     = crdb.New("invalid input")
	NotFound         = crdb.New("not found")
	Unauthorized     = crdb.New("unauthorized")
	MethodNotAllowed = crdb.New("method not allowed")
	Timeout          = crdb.New("timeout")
	Transport        = crdb.New("transport error")
	Internal         = crdb.New("internal error")
)

// HTTPStatus maps a kind sentinel to the status code it surfaces as at an
// HTTP boundary. Unrecognized kinds map to 500.
func HTTPStatus(err error) int {
	switch {
	case Is(err, InvalidInput):
		return 400
	case Is(err, Unauthorized):
		return 401
	case Is(err, NotFound):
		return 404
	case Is(err, MethodNotAllowed):
		return 405
	case Is(err, Timeout):
		return 504
	case Is(err, Transport):
		return 502
	default:
		return 500
	}
}
