package server

import (
	"errors"
	"strings"
)

// CallbackPrefix is the path prefix the handler interprets as an OAuth redirect.
const CallbackPrefix = "/callback/"

// UnknownProvider is reported when a callback path has no provider segment.
const UnknownProvider = "unknown"

// ErrMalformedRequest is returned when the request line has fewer than two tokens.
var ErrMalformedRequest = errors.New("malformed request line")

// RequestLine is the parsed first line of an HTTP request.
type RequestLine struct {
	Method  string
	Target  string // path including any query string
	Version string // empty when the client omitted it
}

// ParseRequestLine parses the first line of raw request bytes as "METHOD TARGET VERSION".
//
// Invalid UTF-8 is replaced rather than rejected. Only the first line is inspected.
func ParseRequestLine(data []byte) (RequestLine, error) {
	text := strings.ToValidUTF8(string(data), "�")

	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSuffix(line, "\r")

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return RequestLine{}, ErrMalformedRequest
	}

	rl := RequestLine{Method: fields[0], Target: fields[1]}
	if len(fields) > 2 {
		rl.Version = fields[2]
	}
	return rl, nil
}

// Path returns the target up to the first '?'.
func (r RequestLine) Path() string {
	path, _, _ := strings.Cut(r.Target, "?")
	return path
}

// RawQuery returns everything after the first '?' and whether a '?' was present.
func (r RequestLine) RawQuery() (string, bool) {
	_, query, ok := strings.Cut(r.Target, "?")
	return query, ok
}

// IsCallback reports whether the path starts with [CallbackPrefix].
func (r RequestLine) IsCallback() bool {
	return strings.HasPrefix(r.Target, CallbackPrefix)
}

// Provider extracts the provider segment from a callback path.
//
// "/callback/google/extra" yields "google"; "/callback/" yields [UnknownProvider].
func (r RequestLine) Provider() string {
	return ProviderFromPath(r.Path())
}

// ProviderFromPath returns the path segment following [CallbackPrefix].
func ProviderFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, CallbackPrefix)
	if !ok {
		return UnknownProvider
	}
	provider, _, _ := strings.Cut(rest, "/")
	if provider == "" {
		return UnknownProvider
	}
	return provider
}
