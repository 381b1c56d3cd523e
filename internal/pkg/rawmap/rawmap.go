// Package rawmap decodes loosely typed settings maps (YAML sections, JSON bodies,
// stored presets) into typed structs.
package rawmap

import (
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
)

// Decode decodes m into out using mapstructure tags.
// Keys are canonicalized to snake_case first, so "limitMode", "limit-mode" and
// "limit_mode" all address the same field. Values are weakly typed ("3" decodes into
// an int, 1 into a bool). Decoding continues past bad fields; the returned error
// lists every field that could not be decoded.
func Decode(m map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(Canonicalize(m)); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	return nil
}

// Canonicalize returns a copy of m with snake_case keys.
// Nested maps are canonicalized too.
func Canonicalize(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = Canonicalize(nested)
		}
		out[SnakeCase(k)] = v
	}
	return out
}

// SnakeCase converts camelCase, kebab-case and space separated keys to snake_case.
func SnakeCase(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	prevLower := false
	for _, r := range strings.TrimSpace(key) {
		switch {
		case r == '-' || r == ' ' || r == '_':
			if b.Len() > 0 {
				b.WriteByte('_')
			}
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}
