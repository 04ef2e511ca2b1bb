package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when a timestamp is stored as a string.
var timestampLayouts = []string{
	time.RFC3339Nano,
	TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// coerceNumber converts a stored value into a Number. Numeric kinds pass
// through, numeric strings are parsed, and anything else (including NaN and
// infinities) is marked invalid.
func coerceNumber(v any, ok bool) Number {
	if !ok || v == nil {
		return Number{State: FieldAbsent}
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := parseNumericString(string(x))
		if err != nil {
			return Number{State: FieldInvalid}
		}
		f = parsed
	case string:
		parsed, err := parseNumericString(x)
		if err != nil {
			return Number{State: FieldInvalid}
		}
		f = parsed
	default:
		return Number{State: FieldInvalid}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{State: FieldInvalid}
	}
	return Number{State: FieldValid, Value: f}
}

// parseNumericString parses a decimal number with optional surrounding
// whitespace. Empty strings and hexadecimal literals are rejected.
func parseNumericString(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}

// coerceTimestamp converts a stored value into a Timestamp. Numbers are not
// accepted because their epoch unit is ambiguous.
func coerceTimestamp(v any, ok bool) Timestamp {
	if !ok || v == nil {
		return Timestamp{State: FieldAbsent}
	}

	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return Timestamp{State: FieldInvalid}
		}
		return Timestamp{State: FieldValid, Time: x.UTC()}
	case string:
		if t, ok := parseTimestampString(x); ok {
			return Timestamp{State: FieldValid, Time: t}
		}
		return Timestamp{State: FieldInvalid}
	default:
		return Timestamp{State: FieldInvalid}
	}
}

func parseTimestampString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// coerceText converts a stored value into an optional string. Strings pass
// through; other scalars are formatted; nil and missing values are absent.
func coerceText(v any, ok bool) *string {
	if !ok || v == nil {
		return nil
	}
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case fmt.Stringer:
		s = x.String()
	default:
		s = fmt.Sprint(x)
	}
	return &s
}
