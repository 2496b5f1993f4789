package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	tls "github.com/refraction-networking/utls"
	xproxy "golang.org/x/net/proxy"
)

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec *tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection, so the
	// server must never be offered it.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = &spec
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// newChromeTransport builds a transport that presents a Chrome TLS
// fingerprint and routes through proxyURL when it is non-empty.
// Supported proxy schemes: http, https, socks5, socks5h.
func newChromeTransport(proxyURL string) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	dial := dialFunc(dialer.DialContext)

	transport := &http.Transport{
		ForceAttemptHTTP2:   false,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", proxyURL, err)
		}
		switch u.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		case "socks5", "socks5h":
			d, err := xproxy.FromURL(u, dialer)
			if err != nil {
				return nil, fmt.Errorf("socks5 proxy %q: %w", u.Host, err)
			}
			cd, ok := d.(xproxy.ContextDialer)
			if !ok {
				return nil, fmt.Errorf("socks5 proxy %q: dialer does not support contexts", u.Host)
			}
			dial = cd.DialContext
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
	}

	transport.DialContext = dial
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialTLSChrome(ctx, dial, network, addr)
	}
	return transport, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via utls.
func dialTLSChrome(ctx context.Context, dial dialFunc, network, addr string) (net.Conn, error) {
	rawConn, err := dial(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	var tlsConn *tls.UConn
	if chromeH1Spec != nil {
		tlsConn = tls.UClient(rawConn, &tls.Config{ServerName: host}, tls.HelloCustom)
		if err := tlsConn.ApplyPreset(chromeH1Spec); err != nil {
			rawConn.Close()
			return nil, fmt.Errorf("apply tls spec: %w", err)
		}
	} else {
		tlsConn = tls.UClient(rawConn, &tls.Config{
			ServerName: host,
			NextProtos: []string{"http/1.1"},
		}, tls.HelloGolang)
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// limitedTransport caps how much of each response body can be read.
type limitedTransport struct {
	base     http.RoundTripper
	maxBytes int64
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || t.maxBytes <= 0 {
		return resp, err
	}
	resp.Body = limitedBody{Reader: io.LimitReader(resp.Body, t.maxBytes), Closer: resp.Body}
	return resp, nil
}

type limitedBody struct {
	io.Reader
	io.Closer
}

func (t *limitedTransport) CloseIdleConnections() {
	if ci, ok := t.base.(interface{ CloseIdleConnections() }); ok {
		ci.CloseIdleConnections()
	}
}
