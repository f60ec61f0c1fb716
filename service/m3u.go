package service

import (
	"strings"

	"github.com/snowie2000/stepdaddylive/model"
)

// M3UGenerate renders the catalog as an extended M3U playlist pointing at our
// /stream endpoint. base is the public address of this server.
func M3UGenerate(channels []model.Channel, base string) string {
	base = strings.TrimSuffix(base, "/")
	var m3u strings.Builder
	m3u.WriteString("#EXTM3U\n")
	for _, ch := range channels {
		m3u.WriteString("#EXTINF:-1")
		if ch.Logo != "" {
			m3u.WriteString(` tvg-logo="`)
			m3u.WriteString(AbsoluteURL(base, ch.Logo))
			m3u.WriteString(`"`)
		}
		m3u.WriteString(",")
		m3u.WriteString(ch.Name)
		m3u.WriteString("\n")
		m3u.WriteString(StreamURL(base, ch.ID))
		m3u.WriteString("\n")
	}
	return m3u.String()
}

// StreamURL is where players fetch the rewritten manifest of a channel.
func StreamURL(base, id string) string {
	return strings.TrimSuffix(base, "/") + "/stream/" + id + ".m3u8"
}

// AbsoluteURL prefixes root-relative paths with base.
func AbsoluteURL(base, p string) string {
	if strings.HasPrefix(p, "/") {
		return base + p
	}
	return p
}
