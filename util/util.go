package util

import (
	"net/url"
	"strings"
)

const quoteSafe = "_.-~/"

// QuoteURL percent-encodes everything except unreserved characters and '/',
// which is how browsers of the upstream's era sent the referer of a player page.
func QuoteURL(s string) string {
	var sb strings.Builder
	const hex = "0123456789ABCDEF"
	for i := 0; i < len(s); i++ {
		b := s[i]
		if ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9') || strings.IndexByte(quoteSafe, b) >= 0 {
			sb.WriteByte(b)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[b>>4])
		sb.WriteByte(hex[b&0x0f])
	}
	return sb.String()
}

// Netloc returns the authority (host[:port]) of rawURL, or "" when it does not parse.
func Netloc(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Origin returns scheme://host of rawURL.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func IsHTTPURL(s string) bool {
	if len(s) < len("http://") {
		return false
	}
	lower := strings.ToLower(s[:min(len(s), len("https://"))])
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
