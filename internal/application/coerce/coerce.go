// Package coerce turns loosely formatted model replies into JSON values.
package coerce

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/waste3d/courseforge/internal/domain"
)

var fencePattern = regexp.MustCompile("(?i)^```(?:json)?\\s*|\\s*```$")

// Contenter is implemented by chat messages that carry their text in a content field.
type Contenter interface {
	GetContent() string
}

// Coerce parses x into a JSON value. Already decoded maps and slices pass through
// unchanged, so Coerce(Coerce(x)) == Coerce(x) for structured input.
func Coerce(x any) (any, error) {
	switch v := x.(type) {
	case nil:
		return nil, fmt.Errorf("%w: empty reply", domain.ErrInvalidModelOutput)
	case map[string]any, []any:
		return v, nil
	case string:
		return fromText(v)
	case []byte:
		return fromText(strings.ToValidUTF8(string(v), "\uFFFD"))
	case Contenter:
		return fromText(v.GetContent())
	default:
		return fromText(fmt.Sprint(v))
	}
}

// Object is Coerce narrowed to a JSON object.
func Object(x any) (map[string]any, error) {
	v, err := Coerce(x)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object, got %T", domain.ErrInvalidModelOutput, v)
	}
	return obj, nil
}

// StripFences removes a leading ```json (or bare ```) marker and a trailing ```.
func StripFences(s string) string {
	return fencePattern.ReplaceAllString(strings.TrimSpace(s), "")
}

func fromText(s string) (any, error) {
	// 1. Как есть
	v, err := parse(s)
	if err == nil {
		return unwrapEncoded(v), nil
	}

	// 2. Без markdown-ограждения
	v, fencedErr := parse(StripFences(s))
	if fencedErr == nil {
		return unwrapEncoded(v), nil
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrInvalidModelOutput, err)
}

// unwrapEncoded handles replies that were JSON-encoded twice: a JSON string whose
// content is itself (possibly fenced) JSON. Only an inner object or array is unwrapped,
// so a string like "42" stays a string.
func unwrapEncoded(v any) any {
	inner, ok := v.(string)
	if !ok {
		return v
	}
	decoded, err := parse(StripFences(inner))
	if err != nil {
		return inner
	}
	switch decoded.(type) {
	case map[string]any, []any:
		return decoded
	}
	return inner
}

func parse(s string) (any, error) {
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}
