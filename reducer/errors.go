package reducer

import (
	"context"
	"errors"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrDecode            = errors.New("decode failure")
	ErrIO                = errors.New("io failure")
	ErrEncode            = errors.New("encode or scale failure")
	ErrBudgetNotMet      = errors.New("budget not met within bounds")

	// ErrScratchCleanup accompanies ErrIO when only the scratch delete failed.
	// The target was written and holds the encoding of Outcome.Probe.
	ErrScratchCleanup = errors.New("scratch file not removed")
)

// errorKind returns a short label used for statistics and log fields.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrEncode):
		return "encode"
	case errors.Is(err, ErrBudgetNotMet):
		return "budget_not_met"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}
