package scenario

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coercion names the conversion applied to a raw cell.
type Coercion string

const (
	// CoerceAuto keeps integers and floats numeric and everything else as text.
	CoerceAuto   Coercion = "auto"
	CoerceInt    Coercion = "int"
	CoerceFloat  Coercion = "float"
	CoerceString Coercion = "string"
	// CoerceBool is true only when the cell equals "true" ignoring case.
	CoerceBool Coercion = "bool"
)

var (
	errEmptyCell   = errors.New("empty cell")
	errNotNumeric  = errors.New("not numeric")
	errNotIntegral = errors.New("not an integral value")
)

// Valid reports whether c is a known coercion. The zero value means auto.
func (c Coercion) Valid() bool {
	switch c {
	case "", CoerceAuto, CoerceInt, CoerceFloat, CoerceString, CoerceBool:
		return true
	}
	return false
}

func (c Coercion) String() string {
	if c == "" {
		return string(CoerceAuto)
	}
	return string(c)
}

// Apply converts raw to the Go value written into a document.
func (c Coercion) Apply(raw string) (any, error) {
	switch c {
	case "", CoerceAuto:
		return inferValue(raw), nil
	case CoerceInt:
		return parseInt(raw)
	case CoerceFloat:
		return parseFloat(raw)
	case CoerceString:
		return raw, nil
	case CoerceBool:
		return strings.ToLower(raw) == "true", nil
	}
	return nil, fmt.Errorf("unknown coercion %q", string(c))
}

func inferValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if v, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil && isFinite(v) {
		return v
	}
	return raw
}

func parseInt(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, errEmptyCell
	}
	if v, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || !isFinite(f) {
		return 0, errNotNumeric
	}
	if f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, errNotIntegral
	}
	return int64(f), nil
}

func parseFloat(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, errEmptyCell
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || !isFinite(f) {
		return 0, errNotNumeric
	}
	return f, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Profile selects how column values are coerced.
type Profile string

const (
	// ProfileTyped applies each field's declared coercion.
	ProfileTyped Profile = "typed"
	// ProfileAllString writes every value as text.
	ProfileAllString Profile = "all-string"
)

// ParseProfile resolves a profile name; empty means typed.
func ParseProfile(value string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(value))) {
	case "", ProfileTyped:
		return ProfileTyped, nil
	case ProfileAllString, "string", "all_string":
		return ProfileAllString, nil
	}
	return "", fmt.Errorf("%w: unknown coercion profile %q", ErrInvalidMapping, value)
}

func formatConstant(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
