package server

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// QueryParams is an ordered mapping of decoded query parameters.
//
// Keys keep the order of their first occurrence; a repeated key overwrites the earlier value.
type QueryParams struct {
	keys   []string
	values map[string]string
}

// ParseQuery splits a raw query string into [QueryParams].
//
// Items are separated by '&' and split on the first '='. Items without '=' are dropped.
// Only the value is percent-decoded; a value that fails to decode becomes the empty string.
func ParseQuery(raw string) QueryParams {
	q := QueryParams{values: make(map[string]string)}
	if raw == "" {
		return q
	}

	for item := range strings.SplitSeq(raw, "&") {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		q.set(key, decodeValue(value))
	}
	return q
}

func (q *QueryParams) set(key, value string) {
	if _, exists := q.values[key]; !exists {
		q.keys = append(q.keys, key)
	}
	q.values[key] = value
}

// Lookup returns a pointer to the value for key, or nil when absent.
func (q QueryParams) Lookup(key string) *string {
	v, ok := q.values[key]
	if !ok {
		return nil
	}
	return &v
}

// Keys returns the keys in first-occurrence order.
func (q QueryParams) Keys() []string {
	return append([]string(nil), q.keys...)
}

// decodeValue percent-decodes v. '+' is left as-is.
func decodeValue(v string) string {
	decoded, err := url.PathUnescape(v)
	if err != nil || !utf8.ValidString(decoded) {
		return ""
	}
	return decoded
}
