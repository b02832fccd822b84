package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The exports are hand-edited often enough that optional attributes show up
// as the wrong JSON type: numeric phone numbers, ages written as 36.0,
// prices quoted as strings. The types below decode any scalar they can make
// sense of and leave the field unset otherwise, so one odd attribute never
// costs the whole document.

// scalar returns the text of a JSON string, number or boolean. ok is false
// for null, objects and arrays.
func scalar(b []byte) (s string, ok bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return "", false
	}
	switch b[0] {
	case '"':
		if err := json.Unmarshal(b, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[', 'n':
		return "", false
	}
	return string(b), true
}

// FlexString is an optional text attribute. Numbers and booleans keep their
// literal form; null, objects and arrays decode as empty.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	s, _ := scalar(b)
	*f = FlexString(s)
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexInt is an optional integer attribute. Numeric strings are accepted and
// fractions are truncated.
type FlexInt struct {
	Value int
	Valid bool
}

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	*f = FlexInt{}
	if v, ok := number(b); ok && math.Abs(v) <= 1<<53 {
		*f = FlexInt{Value: int(v), Valid: true}
	}
	return nil
}

// FlexFloat is an optional numeric attribute. Numeric strings are accepted.
type FlexFloat struct {
	Value float64
	Valid bool
}

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	*f = FlexFloat{}
	if v, ok := number(b); ok {
		*f = FlexFloat{Value: v, Valid: true}
	}
	return nil
}

// Ptr returns nil when the value is unset.
func (f FlexFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// FlexBool is an optional flag. Strings such as "true" or "0" are accepted.
type FlexBool struct {
	Value bool
	Valid bool
}

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	*f = FlexBool{}
	s, ok := scalar(b)
	if !ok {
		return nil
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
		*f = FlexBool{Value: v, Valid: true}
	}
	return nil
}

// Ptr returns nil when the value is unset.
func (f FlexBool) Ptr() *bool {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

func number(b []byte) (float64, bool) {
	s, ok := scalar(b)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
