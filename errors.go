package transit

import (
	"github.com/pkg/errors"
)

var (
	// ErrUnknownStop means a free-text stop query resolved to nothing,
	// even fuzzily. Callers surface it with suggestions.
	ErrUnknownStop = errors.New("unknown stop")

	// ErrNoRoute means the timetable never links the two stops.
	ErrNoRoute = errors.New("no route available")

	// ErrNoServiceIn7Days means a link exists but nothing runs inside
	// the look-ahead window.
	ErrNoServiceIn7Days = errors.New("no service within 7 days")

	// ErrMalformedRealtime means the trip-update bytes did not decode.
	// The scheduled journey survives; only the overlay is skipped.
	ErrMalformedRealtime = errors.New("malformed realtime feed")

	// ErrCancelled and ErrTimeout are request-lifecycle outcomes.
	ErrCancelled = errors.New("request cancelled")
	ErrTimeout   = errors.New("request timed out")
)
