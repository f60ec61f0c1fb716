package service

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/snowie2000/stepdaddylive/util"
)

// Resolver turns a channel id into a rewritten live manifest.
type Resolver struct {
	upstream *Upstream
	rewriter *Rewriter
}

func NewResolver(upstream *Upstream, rewriter *Rewriter) *Resolver {
	return &Resolver{upstream: upstream, rewriter: rewriter}
}

type streamInfo struct {
	URL string `json:"url"`
}

// Resolve asks upstream for the stream url of channelID, fetches the manifest
// behind it and returns it rewritten. Nothing is cached.
func (r *Resolver) Resolve(ctx context.Context, channelID string) (string, error) {
	streamURL, err := r.StreamURL(ctx, channelID)
	if err != nil {
		return "", err
	}
	body, err := r.upstream.Get(ctx, "manifest", streamURL, r.upstream.Headers(util.QuoteURL(streamURL), ""))
	if err != nil {
		return "", err
	}
	return r.rewriter.Rewrite(string(body), util.Netloc(streamURL)), nil
}

// StreamURL calls get_stream for channelID and returns the url field.
func (r *Resolver) StreamURL(ctx context.Context, channelID string) (string, error) {
	query := url.Values{}
	query.Set("id", channelID)
	body, err := r.upstream.API(ctx, "get_stream", query)
	if err != nil {
		return "", err
	}
	var info streamInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", &UpstreamError{Op: "get_stream", URL: r.upstream.BaseURL(), Err: ErrNoStreamURL}
	}
	if info.URL == "" {
		return "", &UpstreamError{Op: "get_stream", URL: r.upstream.BaseURL(), Err: ErrNoStreamURL}
	}
	return info.URL, nil
}
