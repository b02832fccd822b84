package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for extraction and validation failures. Their messages are
// the rejection reasons reported to operators.
var (
	ErrMissingFields        = errors.New("missing required fields")
	ErrInvalidVehicleType   = errors.New("invalid vehicle type id")
	ErrEntitiesNotValidated = errors.New("entities not validated")
	ErrInvalidSeasonLabel   = errors.New("invalid season label")
	ErrInvalidTimestamp     = errors.New("invalid timestamp")
	ErrMalformedDocument    = errors.New("malformed document")
	ErrUnknownCollection    = errors.New("unknown collection")
)

// Rejection records a sub-record that failed validation. It is reported,
// never raised.
type Rejection struct {
	Kind   Collection
	Key    string // best-known identifier of the rejected record
	Ref    string // other endpoint key, for edges
	Err    error
	Detail string
}

// Reason is the human-readable rejection reason.
func (r Rejection) Reason() string {
	if r.Err == nil {
		return "unknown"
	}
	return r.Err.Error()
}

func (r Rejection) String() string {
	s := fmt.Sprintf("%s %q: %s", r.Kind, r.Key, r.Reason())
	if r.Ref != "" {
		s = fmt.Sprintf("%s %q -> %q: %s", r.Kind, r.Key, r.Ref, r.Reason())
	}
	if r.Detail != "" {
		s += " (" + r.Detail + ")"
	}
	return s
}
