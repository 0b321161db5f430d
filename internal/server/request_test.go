package server

import (
	"errors"
	"testing"
)

func TestParseRequestLine(t *testing.T) {
	tt := []struct {
		name    string
		data    string
		want    RequestLine
		wantErr bool
	}{
		{
			name: "full request",
			data: "GET /callback/google?code=abc123&state=xyz HTTP/1.1\r\nHost: 127.0.0.1\r\n\r\n",
			want: RequestLine{Method: "GET", Target: "/callback/google?code=abc123&state=xyz", Version: "HTTP/1.1"},
		},
		{
			name: "bare newline",
			data: "GET /favicon.ico HTTP/1.1\nHost: x\n\n",
			want: RequestLine{Method: "GET", Target: "/favicon.ico", Version: "HTTP/1.1"},
		},
		{
			name: "missing version",
			data: "GET /callback/github",
			want: RequestLine{Method: "GET", Target: "/callback/github"},
		},
		{
			name: "extra whitespace",
			data: "  POST \t /x   HTTP/1.0 ",
			want: RequestLine{Method: "POST", Target: "/x", Version: "HTTP/1.0"},
		},
		{
			name: "invalid utf-8 is replaced",
			data: "GET /a\xffb HTTP/1.1\r\n",
			want: RequestLine{Method: "GET", Target: "/a�b", Version: "HTTP/1.1"},
		},
		{
			name:    "single token",
			data:    "GET\r\n",
			wantErr: true,
		},
		{
			name:    "empty first line",
			data:    "\r\nGET / HTTP/1.1\r\n",
			wantErr: true,
		},
		{
			name:    "empty input",
			data:    "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRequestLine([]byte(tc.data))
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedRequest) {
					t.Errorf("ParseRequestLine() error = %v, want ErrMalformedRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRequestLine() unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseRequestLine() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRequestLine(t *testing.T) {
	tt := []struct {
		target     string
		path       string
		query      string
		hasQuery   bool
		isCallback bool
		provider   string
	}{
		{"/callback/google?code=a", "/callback/google", "code=a", true, true, "google"},
		{"/callback/github/extra?x=1", "/callback/github/extra", "x=1", true, true, "github"},
		{"/callback/?code=a", "/callback/", "code=a", true, true, UnknownProvider},
		{"/callback/", "/callback/", "", false, true, UnknownProvider},
		{"/callback/okta", "/callback/okta", "", false, true, "okta"},
		{"/callback/a?b?c", "/callback/a", "b?c", true, true, "a"},
		{"/callback", "/callback", "", false, false, UnknownProvider},
		{"/favicon.ico", "/favicon.ico", "", false, false, UnknownProvider},
	}

	for _, tc := range tt {
		t.Run(tc.target, func(t *testing.T) {
			r := RequestLine{Method: "GET", Target: tc.target}

			if got := r.Path(); got != tc.path {
				t.Errorf("Path() = %q, want %q", got, tc.path)
			}

			query, ok := r.RawQuery()
			if ok != tc.hasQuery || query != tc.query {
				t.Errorf("RawQuery() = (%q, %v), want (%q, %v)", query, ok, tc.query, tc.hasQuery)
			}

			if got := r.IsCallback(); got != tc.isCallback {
				t.Errorf("IsCallback() = %v, want %v", got, tc.isCallback)
			}

			if got := r.Provider(); got != tc.provider {
				t.Errorf("Provider() = %q, want %q", got, tc.provider)
			}
		})
	}
}
