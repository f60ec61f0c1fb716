package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/imroc/req/v3"
	"github.com/snowie2000/stepdaddylive/global"
	"github.com/snowie2000/stepdaddylive/metrics"
	"go.uber.org/ratelimit"
)

const DefaultUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:137.0) Gecko/20100101 Firefox/137.0"

var (
	ErrNoStreamURL        = errors.New("no stream url in api response")
	ErrCatalogUnavailable = errors.New("channel catalog unavailable")
	ErrBodyTooLarge       = errors.New("upstream body too large")
)

// UpstreamError is a non-success status or an unusable body from the upstream site.
type UpstreamError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("upstream %s: HTTP %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
	}
	return "upstream " + e.Op + " failed"
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

type UpstreamOptions struct {
	BaseURL     string // site root, e.g. https://daddylive.sx
	ProxyURL    string // optional socks5/http proxy
	Impersonate string // chrome, firefox, safari or none
	APIRate     int    // api.php calls per second, <= 0 for no limit
}

// Upstream is the one outbound client shared by every request path.
type Upstream struct {
	client  *req.Client
	stream  *req.Client // same settings, body left unread for relaying
	baseURL string
	limiter ratelimit.Limiter
}

func NewUpstream(opt UpstreamOptions) *Upstream {
	client := req.C().EnableInsecureSkipVerify()
	switch strings.ToLower(opt.Impersonate) {
	case "chrome":
		client.ImpersonateChrome()
	case "firefox":
		client.ImpersonateFirefox()
	case "safari":
		client.ImpersonateSafari()
	}
	if dial := global.DialerWithProxy(opt.ProxyURL); dial != nil {
		client.SetDial(dial)
	}
	limiter := ratelimit.NewUnlimited()
	if opt.APIRate > 0 {
		limiter = ratelimit.New(opt.APIRate)
	}
	return &Upstream{
		client:  client,
		stream:  client.Clone().DisableAutoReadResponse(),
		baseURL: strings.TrimSuffix(opt.BaseURL, "/"),
		limiter: limiter,
	}
}

func (u *Upstream) BaseURL() string {
	return u.baseURL
}

// Headers builds the browser-like header set upstream checks for hotlinking.
// An empty referer means the site root.
func (u *Upstream) Headers(referer, origin string) map[string]string {
	if referer == "" {
		referer = u.baseURL
	}
	h := map[string]string{
		"Referer":    referer,
		"User-Agent": DefaultUserAgent,
	}
	if origin != "" {
		h["Origin"] = origin
	}
	return h
}

// Get fetches target and reads the whole body. A non-2xx status is an *UpstreamError.
func (u *Upstream) Get(ctx context.Context, op, target string, headers map[string]string) ([]byte, error) {
	resp, err := u.client.R().SetContext(ctx).SetHeaders(headers).Get(target)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("upstream %s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequests.WithLabelValues(op, "status").Inc()
		return nil, &UpstreamError{Op: op, URL: target, StatusCode: resp.StatusCode}
	}
	body, err := resp.ToBytes()
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("upstream %s: %w", op, err)
	}
	metrics.UpstreamRequests.WithLabelValues(op, "ok").Inc()
	return body, nil
}

// Open starts a request and hands back the unread response. The caller closes the body.
func (u *Upstream) Open(ctx context.Context, op, target string, headers map[string]string) (*http.Response, error) {
	resp, err := u.stream.R().SetContext(ctx).SetHeaders(headers).Get(target)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("upstream %s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		global.CloseBody(resp.Response)
		metrics.UpstreamRequests.WithLabelValues(op, "status").Inc()
		return nil, &UpstreamError{Op: op, URL: target, StatusCode: resp.StatusCode}
	}
	metrics.UpstreamRequests.WithLabelValues(op, "ok").Inc()
	return resp.Response, nil
}

// API calls {base}/api.php?type=kind with extra query values, rate limited.
func (u *Upstream) API(ctx context.Context, kind string, query url.Values) ([]byte, error) {
	target := u.baseURL + "/api.php?type=" + url.QueryEscape(kind)
	if len(query) > 0 {
		target += "&" + query.Encode()
	}
	u.limiter.Take()
	return u.Get(ctx, kind, target, u.Headers("", ""))
}

// readAll reads at most limit bytes. A longer body is an error, never a silent cut.
func readAll(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, limit)
	}
	return data, nil
}
