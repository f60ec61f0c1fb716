package util

import "testing"

func TestQuoteURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://a.b/c", "https%3A//a.b/c"},
		{"https://a.b/c?d=1&e=2", "https%3A//a.b/c%3Fd%3D1%26e%3D2"},
		{"plain-text_~.", "plain-text_~."},
		{"ü", "%C3%BC"},
	}
	for _, tt := range tests {
		if got := QuoteURL(tt.in); got != tt.want {
			t.Errorf("QuoteURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNetlocAndOrigin(t *testing.T) {
	if got := Netloc("https://srv.example:8443/a/b.m3u8?x=1"); got != "srv.example:8443" {
		t.Errorf("Netloc = %q", got)
	}
	if got := Origin("https://srv.example/a/b.ts"); got != "https://srv.example" {
		t.Errorf("Origin = %q", got)
	}
	if got := Origin("not a url"); got != "" {
		t.Errorf("Origin of garbage = %q", got)
	}
}

func TestIsHTTPURL(t *testing.T) {
	tests := map[string]bool{
		"http://cdn/seg1.ts":  true,
		"HTTPS://cdn/seg1.ts": true,
		"seg1.ts":             false,
		"#EXTINF:4.0,":        false,
		"http":                false,
		"":                    false,
	}
	for in, want := range tests {
		if got := IsHTTPURL(in); got != want {
			t.Errorf("IsHTTPURL(%q) = %v, want %v", in, got, want)
		}
	}
}
