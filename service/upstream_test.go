package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
)

func TestUpstreamHeaders(t *testing.T) {
	u := NewUpstream(UpstreamOptions{BaseURL: "https://site.example/"})
	if u.BaseURL() != "https://site.example" {
		t.Errorf("BaseURL = %q", u.BaseURL())
	}
	h := u.Headers("", "")
	if h["Referer"] != "https://site.example" || h["User-Agent"] != DefaultUserAgent {
		t.Errorf("default headers = %v", h)
	}
	if _, ok := h["Origin"]; ok {
		t.Error("Origin should be absent when empty")
	}
	h = u.Headers("k.example/", "k.example")
	if h["Referer"] != "k.example/" || h["Origin"] != "k.example" {
		t.Errorf("key headers = %v", h)
	}
}

func TestUpstreamAPI(t *testing.T) {
	var gotQuery, gotReferer string
	up, srv := newTestUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte(`{}`))
	}))
	q := url.Values{}
	q.Set("id", "51")
	if _, err := up.API(context.Background(), "get_stream", q); err != nil {
		t.Fatal(err)
	}
	if gotQuery != "type=get_stream&id=51" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotReferer != srv.URL {
		t.Errorf("referer = %q", gotReferer)
	}
}

func TestUpstreamStatusError(t *testing.T) {
	up, srv := newTestUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	_, err := up.Get(context.Background(), "manifest", srv.URL+"/x.m3u8", up.Headers("", ""))
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.StatusCode != http.StatusTeapot || ue.Op != "manifest" {
		t.Fatalf("err = %v", err)
	}
	if ue.Error() != "upstream manifest: HTTP 418" {
		t.Errorf("message = %q", ue.Error())
	}
	if _, err := up.Open(context.Background(), "content", srv.URL+"/a.ts", nil); !errors.As(err, &ue) {
		t.Errorf("Open err = %v", err)
	}
}
