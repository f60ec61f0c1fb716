// utils
package global

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"

	httpproxy "github.com/fopina/net-proxy-httpconnect/proxy"
	"golang.org/x/net/proxy"
)

// DialFunc is the dial hook accepted by the upstream client.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// DialerWithProxy returns a dial hook that tunnels through proxyUrl
// (socks5://, http:// or https://). A bare host:port is treated as socks5,
// the way the original socks5 setting was written. Returns nil when no proxy is set.
func DialerWithProxy(proxyUrl string) DialFunc {
	proxyUrl = strings.TrimSpace(proxyUrl)
	if proxyUrl == "" {
		return nil
	}
	if !strings.Contains(proxyUrl, "://") {
		proxyUrl = "socks5://" + proxyUrl
	}
	d := &net.Dialer{
		Timeout: HttpClientTimeout,
	}
	u, err := url.Parse(proxyUrl)
	if err != nil {
		log.Println("Proxy setup error:", err)
		return nil
	}
	p, err := proxy.FromURL(u, d)
	if err != nil {
		log.Println("Proxy setup error:", err)
		return nil
	}
	if cd, ok := p.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return p.Dial(network, addr)
	}
}

func CloseBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

func init() {
	httpproxy.RegisterSchemes()
}
