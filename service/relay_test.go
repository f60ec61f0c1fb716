package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/snowie2000/stepdaddylive/util"
)

var testKey = []byte{0x00, 0x01, 0xfe, 0xff, 0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80, 0x90, 0xa0, 0xb0, 0xc0}

type fakeCDN struct {
	keyReferer atomic.Value
	keyOrigin  atomic.Value
	logoHits   atomic.Int32
}

func (f *fakeCDN) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/key/1":
		f.keyReferer.Store(r.Header.Get("Referer"))
		f.keyOrigin.Store(r.Header.Get("Origin"))
		w.Write(testKey)
	case "/slow-key":
		time.Sleep(500 * time.Millisecond)
		w.Write(testKey)
	case "/seg.ts":
		w.Header().Set("Content-Type", "video/mp2t")
		w.Write(bytes.Repeat([]byte{0x47}, 188*4))
	case "/variant.m3u8":
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.Write([]byte("#EXTM3U\n#EXTINF:4,\nhttps://cdn.example/a.ts\n"))
	case "/hls/rel.m3u8":
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.Write([]byte("#EXTM3U\n#EXT-X-KEY:METHOD=AES-128,URI=\"k.bin\"\n#EXTINF:4,\nseg1.ts\n#EXTINF:4,\n/root.ts\n"))
	case "/big.m3u8":
		w.Write([]byte("#EXTM3U\n"))
		w.Write(bytes.Repeat([]byte("#EXTINF:4,\nhttps://cdn.example/a.ts\n"), maxPlaylistSize/32))
	case "/big-logo.png":
		f.logoHits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(bytes.Repeat([]byte{0x89}, maxLogoSize+1))
	case "/fake.m3u8":
		w.Write([]byte("not a playlist"))
	case "/logo.png":
		f.logoHits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG fake"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestRelay(t *testing.T, keyTimeout time.Duration) (*Relay, *fakeCDN, string) {
	t.Helper()
	cdn := &fakeCDN{}
	up, srv := newTestUpstream(t, cdn)
	codec := testCodec(t)
	r := NewRelay(codec, up, NewRewriter(codec, "", true), keyTimeout)
	r.logos = cache.New(time.Minute, time.Minute)
	return r, cdn, srv.URL
}

func TestFetchKey(t *testing.T) {
	r, cdn, base := newTestRelay(t, time.Minute)
	codec := testCodec(t)
	host := util.Netloc(base)

	key, err := r.FetchKey(context.Background(), codec.Encode(base+"/key/1"), codec.Encode(host))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(key, testKey) {
		t.Errorf("key = %x", key)
	}
	if cdn.keyReferer.Load() != host+"/" || cdn.keyOrigin.Load() != host {
		t.Errorf("headers referer=%v origin=%v", cdn.keyReferer.Load(), cdn.keyOrigin.Load())
	}
}

func TestFetchKeyErrors(t *testing.T) {
	r, _, base := newTestRelay(t, 100*time.Millisecond)
	codec := testCodec(t)
	host := codec.Encode(util.Netloc(base))

	if _, err := r.FetchKey(context.Background(), "!!bad!!", host); !errors.Is(err, util.ErrDecode) {
		t.Errorf("bad url token: %v", err)
	}
	if _, err := r.FetchKey(context.Background(), codec.Encode(base+"/key/1"), "AAAA"); !errors.Is(err, util.ErrDecode) {
		t.Errorf("bad host token: %v", err)
	}

	_, err := r.FetchKey(context.Background(), codec.Encode(base+"/missing"), host)
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.StatusCode != http.StatusNotFound {
		t.Errorf("missing key: %v", err)
	}

	if _, err := r.FetchKey(context.Background(), codec.Encode(base+"/slow-key"), host); err == nil {
		t.Error("slow key should time out")
	}
}

func TestOpenContent(t *testing.T) {
	r, _, base := newTestRelay(t, time.Minute)
	codec := testCodec(t)

	seg, err := r.OpenContent(context.Background(), codec.Encode(base+"/seg.ts"))
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(seg.Body)
	seg.Body.Close()
	if len(data) != 188*4 || seg.ContentType != "video/mp2t" {
		t.Errorf("segment: %d bytes, %q", len(data), seg.ContentType)
	}

	variant, err := r.OpenContent(context.Background(), codec.Encode(base+"/variant.m3u8"))
	if err != nil {
		t.Fatal(err)
	}
	data, _ = io.ReadAll(variant.Body)
	variant.Body.Close()
	want := r.rewriter.Rewrite("#EXTM3U\n#EXTINF:4,\nhttps://cdn.example/a.ts\n", util.Netloc(base+"/variant.m3u8"))
	if string(data) != want || variant.ContentType != playlistMime {
		t.Errorf("variant = %q (%s)", data, variant.ContentType)
	}
	if variant.Length != int64(len(want)) {
		t.Errorf("length = %d", variant.Length)
	}

	fake, err := r.OpenContent(context.Background(), codec.Encode(base+"/fake.m3u8"))
	if err != nil {
		t.Fatal(err)
	}
	data, _ = io.ReadAll(fake.Body)
	if string(data) != "not a playlist" {
		t.Errorf("non-m3u body altered: %q", data)
	}

	if _, err := r.OpenContent(context.Background(), "@@"); !errors.Is(err, util.ErrDecode) {
		t.Errorf("bad token: %v", err)
	}
	_, err = r.OpenContent(context.Background(), codec.Encode(base+"/nothing"))
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.StatusCode != http.StatusNotFound {
		t.Errorf("missing segment: %v", err)
	}
}

func TestOpenContentResolvesRelativeVariant(t *testing.T) {
	r, _, base := newTestRelay(t, time.Minute)
	codec := testCodec(t)
	host := util.Netloc(base)

	variant, err := r.OpenContent(context.Background(), codec.Encode(base+"/hls/rel.m3u8"))
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(variant.Body)
	variant.Body.Close()
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %q", lines)
	}
	if want := `#EXT-X-KEY:METHOD=AES-128,URI="` + r.rewriter.KeyPath(base+"/hls/k.bin", host) + `"`; lines[1] != want {
		t.Errorf("key line = %q, want %q", lines[1], want)
	}
	if want := r.rewriter.ContentPath(base + "/hls/seg1.ts"); lines[3] != want {
		t.Errorf("segment = %q, want %q", lines[3], want)
	}
	if want := r.rewriter.ContentPath(base + "/root.ts"); lines[5] != want {
		t.Errorf("root-relative segment = %q, want %q", lines[5], want)
	}

	seg := strings.TrimPrefix(lines[3], "/content/")
	target, err := codec.Decode(seg)
	if err != nil || target != base+"/hls/seg1.ts" {
		t.Errorf("segment target = %q, %v", target, err)
	}
}

func TestOversizeBodiesAreRejected(t *testing.T) {
	r, cdn, base := newTestRelay(t, time.Minute)
	codec := testCodec(t)

	_, err := r.OpenContent(context.Background(), codec.Encode(base+"/big.m3u8"))
	var ue *UpstreamError
	if !errors.As(err, &ue) || !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("oversize playlist: %v", err)
	}

	enc := codec.Encode(base + "/big-logo.png")
	for i := 0; i < 2; i++ {
		_, err := r.FetchLogo(context.Background(), enc)
		if !errors.As(err, &ue) || !errors.Is(err, ErrBodyTooLarge) {
			t.Errorf("oversize logo: %v", err)
		}
	}
	if n := r.logos.ItemCount(); n != 0 {
		t.Errorf("%d logos cached, want none", n)
	}
	if n := cdn.logoHits.Load(); n != 2 {
		t.Errorf("logo fetched %d times, want 2", n)
	}
}

func TestReadAllLimit(t *testing.T) {
	data, err := readAll(strings.NewReader("12345"), 5)
	if err != nil || string(data) != "12345" {
		t.Errorf("exact limit: %q, %v", data, err)
	}
	if _, err := readAll(strings.NewReader("123456"), 5); !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("one byte over: %v", err)
	}
}

func TestFetchLogoCaches(t *testing.T) {
	r, cdn, base := newTestRelay(t, time.Minute)
	enc := testCodec(t).Encode(base + "/logo.png")
	for i := 0; i < 3; i++ {
		logo, err := r.FetchLogo(context.Background(), enc)
		if err != nil {
			t.Fatal(err)
		}
		if logo.ContentType != "image/png" || !strings.HasPrefix(string(logo.Data), "\x89PNG") {
			t.Errorf("logo = %+v", logo)
		}
	}
	if n := cdn.logoHits.Load(); n != 1 {
		t.Errorf("logo fetched %d times, want 1", n)
	}
}

func TestLooksLikePlaylist(t *testing.T) {
	tests := []struct {
		url, ct string
		want    bool
	}{
		{"http://a/b.ts", "video/mp2t", false},
		{"http://a/b.m3u8?token=1", "", true},
		{"http://a/B.M3U8", "text/plain", true},
		{"http://a/play", "application/x-mpegURL", true},
		{"http://a/play", "", false},
	}
	for _, tt := range tests {
		if got := looksLikePlaylist(tt.url, tt.ct); got != tt.want {
			t.Errorf("looksLikePlaylist(%q, %q) = %v", tt.url, tt.ct, got)
		}
	}
}
