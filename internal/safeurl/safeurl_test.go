package safeurl

import "testing"

func TestIsHTTPOrHTTPS(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"http://example.com/stream.ts", true},
		{"https://example.com/stream.m3u8", true},
		{"file:///etc/passwd", false},
		{"ftp://example.com/file", false},
		{"", false},
		{"://bad", false},
	}
	for _, tc := range cases {
		if got := IsHTTPOrHTTPS(tc.url); got != tc.want {
			t.Errorf("IsHTTPOrHTTPS(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestRewriteInsecure(t *testing.T) {
	got := RewriteInsecure("/proxy", "http://host/stream.ts")
	want := "/proxy?url=http%3A%2F%2Fhost%2Fstream.ts"
	if got != want {
		t.Errorf("rewrite = %q, want %q", got, want)
	}
}

func TestRewriteInsecure_secureUnchanged(t *testing.T) {
	src := "https://host/stream.m3u8"
	if got := RewriteInsecure("/proxy", src); got != src {
		t.Errorf("secure source rewritten: %q", got)
	}
}

func TestRewriteInsecure_schemeCaseInsensitive(t *testing.T) {
	got := RewriteInsecure("/proxy", "HTTP://host/a.ts")
	if got == "HTTP://host/a.ts" {
		t.Error("upper-case http scheme should still be rewritten")
	}
}
