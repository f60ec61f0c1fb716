package service

import (
	"net/url"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/grafov/m3u8"
	"github.com/snowie2000/stepdaddylive/util"
)

const keyTag = "#EXT-X-KEY:"

// the value group excludes whitespace padding inside the quotes
var keyURIPattern = regexp2.MustCompile(`URI\s*=\s*"\s*(.*?)\s*"`, regexp2.None)

// Rewriter points key and segment references of a manifest back at us.
type Rewriter struct {
	codec        *util.Codec
	prefix       string
	proxyContent bool
}

// NewRewriter builds a rewriter. prefix is the public base url put in front of
// /key and /content paths; empty gives root-relative paths.
func NewRewriter(codec *util.Codec, prefix string, proxyContent bool) *Rewriter {
	return &Rewriter{
		codec:        codec,
		prefix:       strings.TrimSuffix(prefix, "/"),
		proxyContent: proxyContent,
	}
}

func (r *Rewriter) KeyPath(keyURL, serverOrigin string) string {
	return r.prefix + "/key/" + r.codec.Encode(keyURL) + "/" + r.codec.Encode(serverOrigin)
}

func (r *Rewriter) ContentPath(target string) string {
	return r.prefix + "/content/" + r.codec.Encode(target)
}

func (r *Rewriter) LogoPath(logo string) string {
	return r.prefix + "/logo/" + r.codec.Encode(logo)
}

// Rewrite processes the manifest line by line. serverOrigin is the authority
// of the server the manifest came from; key fetches present it as referer.
// Every output line ends with "\n"; lines are never dropped or reordered.
func (r *Rewriter) Rewrite(manifest, serverOrigin string) string {
	return r.rewrite(manifest, serverOrigin, nil)
}

// RewriteFrom rewrites a playlist fetched from source. Relative segment lines
// and key URIs are resolved against source first, so nested playlists relayed
// from another path still point at fetchable urls.
func (r *Rewriter) RewriteFrom(manifest, source string) string {
	base, err := url.Parse(source)
	if err != nil {
		return r.Rewrite(manifest, util.Netloc(source))
	}
	resolve := func(ref string) string {
		u, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return base.ResolveReference(u).String()
	}
	return r.rewrite(manifest, base.Host, resolve)
}

func (r *Rewriter) rewrite(manifest, serverOrigin string, resolve func(string) string) string {
	var sb strings.Builder
	sb.Grow(len(manifest) + len(manifest)/2)
	for _, line := range splitLines(manifest) {
		sb.WriteString(r.rewriteLine(line, serverOrigin, resolve))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (r *Rewriter) rewriteLine(line, serverOrigin string, resolve func(string) string) string {
	switch {
	case strings.HasPrefix(line, keyTag):
		return r.rewriteKey(line, serverOrigin, resolve)
	case resolve != nil && line != "" && !strings.HasPrefix(line, "#"):
		line = resolve(line)
	}
	if r.proxyContent && util.IsHTTPURL(line) {
		return r.ContentPath(line)
	}
	return line
}

// rewriteKey swaps only the matched URI value; the rest of the tag is kept byte for byte.
func (r *Rewriter) rewriteKey(line, serverOrigin string, resolve func(string) string) string {
	m, err := keyURIPattern.FindStringMatch(line)
	if err != nil || m == nil {
		return line
	}
	g := m.GroupByNumber(1)
	if g == nil || g.Length == 0 {
		return line
	}
	keyURL := g.String()
	if resolve != nil {
		keyURL = resolve(keyURL)
	}
	// regexp2 reports rune offsets
	start := byteOffset(line, g.Index)
	end := byteOffset(line, g.Index+g.Length)
	return line[:start] + r.KeyPath(keyURL, serverOrigin) + line[end:]
}

// byteOffset maps a rune index onto line. Invalid bytes count as one rune
// each, the same way regexp2 decodes its input.
func byteOffset(line string, runeIndex int) int {
	n := 0
	for i := range line {
		if n == runeIndex {
			return i
		}
		n++
	}
	return len(line)
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines
}

// Inspect reports whether manifest is a master or a media playlist.
func Inspect(manifest string) (m3u8.ListType, error) {
	_, listType, err := m3u8.DecodeFrom(strings.NewReader(manifest), false)
	return listType, err
}

func listTypeName(t m3u8.ListType) string {
	switch t {
	case m3u8.MASTER:
		return "master"
	case m3u8.MEDIA:
		return "media"
	}
	return "unknown"
}
