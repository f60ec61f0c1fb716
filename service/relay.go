package service

import (
	"bytes"
	"context"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/snowie2000/stepdaddylive/global"
	"github.com/snowie2000/stepdaddylive/metrics"
	"github.com/snowie2000/stepdaddylive/util"
)

const (
	playlistMime    = "application/vnd.apple.mpegurl"
	maxPlaylistSize = 4 << 20
	maxLogoSize     = 2 << 20
)

// Relay serves the byte endpoints: keys, segments and logos.
type Relay struct {
	codec      *util.Codec
	upstream   *Upstream
	rewriter   *Rewriter
	keyTimeout time.Duration
	logos      *cache.Cache
}

func NewRelay(codec *util.Codec, upstream *Upstream, rewriter *Rewriter, keyTimeout time.Duration) *Relay {
	return &Relay{
		codec:      codec,
		upstream:   upstream,
		rewriter:   rewriter,
		keyTimeout: keyTimeout,
		logos:      global.LogoCache,
	}
}

// FetchKey decodes the key url and the origin of the manifest server, then
// fetches the key presenting that origin. The bytes are returned untouched.
func (r *Relay) FetchKey(ctx context.Context, encURL, encHost string) ([]byte, error) {
	keyURL, err := r.codec.Decode(encURL)
	if err != nil {
		return nil, err
	}
	host, err := r.codec.Decode(encHost)
	if err != nil {
		return nil, err
	}
	if r.keyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.keyTimeout)
		defer cancel()
	}
	key, err := r.upstream.Get(ctx, "key", keyURL, r.upstream.Headers(host+"/", host))
	if err != nil {
		UpdateStatus("key", Error, err.Error())
		return nil, err
	}
	metrics.BytesRelayed.WithLabelValues("key").Add(float64(len(key)))
	UpdateStatus("key", Ok, "Live!")
	return key, nil
}

// Content is an upstream body on its way to the client. Length is -1 when unknown.
type Content struct {
	ContentType string
	Length      int64
	Body        io.ReadCloser
}

// OpenContent decodes a segment url and opens it upstream. Playlists met on
// the way (variants of a master playlist) are rewritten before relaying; any
// other body is streamed as is. The caller closes Body.
func (r *Relay) OpenContent(ctx context.Context, encURL string) (*Content, error) {
	target, err := r.codec.Decode(encURL)
	if err != nil {
		return nil, err
	}
	origin := util.Origin(target)
	resp, err := r.upstream.Open(ctx, "content", target, r.upstream.Headers(origin+"/", origin))
	if err != nil {
		UpdateStatus("content", Error, err.Error())
		return nil, err
	}
	UpdateStatus("content", Ok, "Live!")
	if looksLikePlaylist(target, resp.Header.Get("Content-Type")) {
		defer global.CloseBody(resp)
		body, err := readAll(resp.Body, maxPlaylistSize)
		if err != nil {
			return nil, &UpstreamError{Op: "content", URL: target, Err: err}
		}
		if listType, err := Inspect(string(body)); err == nil {
			log.Printf("[content] rewriting %s playlist from %s\n", listTypeName(listType), util.Netloc(target))
			rewritten := r.rewriter.RewriteFrom(string(body), target)
			metrics.BytesRelayed.WithLabelValues("content").Add(float64(len(rewritten)))
			return &Content{
				ContentType: playlistMime,
				Length:      int64(len(rewritten)),
				Body:        io.NopCloser(strings.NewReader(rewritten)),
			}, nil
		}
		log.Println("[content] playlist-like response is not m3u, relaying as is:", util.Netloc(target))
		metrics.BytesRelayed.WithLabelValues("content").Add(float64(len(body)))
		return &Content{
			ContentType: resp.Header.Get("Content-Type"),
			Length:      int64(len(body)),
			Body:        io.NopCloser(bytes.NewReader(body)),
		}, nil
	}
	return &Content{
		ContentType: contentType(target, resp),
		Length:      resp.ContentLength,
		Body:        &countingBody{ReadCloser: resp.Body, op: "content"},
	}, nil
}

// Logo is a cached image.
type Logo struct {
	ContentType string
	Data        []byte
}

// FetchLogo relays a channel logo, keeping it in memory for later requests.
func (r *Relay) FetchLogo(ctx context.Context, encURL string) (*Logo, error) {
	target, err := r.codec.Decode(encURL)
	if err != nil {
		return nil, err
	}
	if v, ok := r.logos.Get(target); ok {
		logo := v.(*Logo)
		metrics.BytesRelayed.WithLabelValues("logo").Add(float64(len(logo.Data)))
		return logo, nil
	}
	resp, err := r.upstream.Open(ctx, "logo", target, r.upstream.Headers("", ""))
	if err != nil {
		return nil, err
	}
	defer global.CloseBody(resp)
	data, err := readAll(resp.Body, maxLogoSize)
	if err != nil {
		return nil, &UpstreamError{Op: "logo", URL: target, Err: err}
	}
	logo := &Logo{ContentType: contentType(target, resp), Data: data}
	r.logos.Set(target, logo, cache.DefaultExpiration)
	metrics.BytesRelayed.WithLabelValues("logo").Add(float64(len(data)))
	return logo, nil
}

func looksLikePlaylist(target, ct string) bool {
	ct = strings.ToLower(ct)
	if strings.Contains(ct, "mpegurl") {
		return true
	}
	if u, err := url.Parse(target); err == nil {
		return strings.EqualFold(path.Ext(u.Path), ".m3u8")
	}
	return false
}

func contentType(target string, resp *http.Response) string {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	if u, err := url.Parse(target); err == nil {
		if ct := mime.TypeByExtension(path.Ext(u.Path)); ct != "" {
			return ct
		}
	}
	return "application/octet-stream"
}

type countingBody struct {
	io.ReadCloser
	op string
}

func (c *countingBody) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	if n > 0 {
		metrics.BytesRelayed.WithLabelValues(c.op).Add(float64(n))
	}
	return n, err
}

func init() {
	mime.AddExtensionType(".ts", "video/mp2t")
	mime.AddExtensionType(".m3u8", playlistMime)
}
