package normalize

import (
	"context"
	"errors"

	"paper-pal/api/internal/llm"
	"paper-pal/api/internal/util"
)

var (
	// ErrMalformedJSON means the extracted object does not decode.
	ErrMalformedJSON = errors.New("malformed json")
	// ErrShapeMismatch means the object decoded but lacks what the task needs.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Reasons reported by Classify.
const (
	ReasonUpstream        = "upstream_error"
	ReasonTransport       = "transport_error"
	ReasonTimeout         = "timeout"
	ReasonNoJSON          = "no_json"
	ReasonMalformedJSON   = "malformed_json"
	ReasonShapeMismatch   = "shape_mismatch"
	ReasonEmptyCompletion = "empty_completion"
	ReasonUnknown         = "unknown"
)

// Classify maps a pipeline failure to a short reason for logs and the
// X-Fallback-Reason header.
func Classify(err error) string {
	var (
		up *llm.UpstreamError
		tr *llm.TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &up):
		return ReasonUpstream
	case errors.As(err, &tr):
		return ReasonTransport
	case errors.Is(err, llm.ErrEmptyCompletion):
		return ReasonEmptyCompletion
	case errors.Is(err, util.ErrNoJSONFound):
		return ReasonNoJSON
	case errors.Is(err, ErrMalformedJSON):
		return ReasonMalformedJSON
	case errors.Is(err, ErrShapeMismatch):
		return ReasonShapeMismatch
	}
	return ReasonUnknown
}
