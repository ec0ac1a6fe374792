// Package httpclient provides an SSRF-hardened HTTP client for requests
// to externally-configured URLs — a GraphQL introspection endpoint (spec
// §4.8 mode 1) is project config, not a trusted internal address, so
// every request and redirect hop gets the same scheme/private-IP checks.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/udlcore/udl/internal/xerrors"
)

const maxRedirects = 10

// SaferClient wraps http.Client so every request — and every redirect
// hop, via CheckRedirect — is validated before it leaves the process.
type SaferClient struct {
	*http.Client
	blockPrivateIP bool
}

// NewSaferClient builds a client whose DialContext resolves the target
// host itself (rather than trusting net/http's own resolution) and
// rejects it if any resolved address is private, loopback, or otherwise
// non-routable — closing the DNS-rebinding gap a hostname-only check
// would leave open.
func NewSaferClient(timeout time.Duration) *SaferClient {
	c := &SaferClient{
		Client:         &http.Client{Timeout: timeout},
		blockPrivateIP: true,
	}

	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return xerrors.Newf("stopped after %d redirects", maxRedirects)
		}
		if err := c.validateURL(req.URL); err != nil {
			return xerrors.Wrap(err, "redirect blocked")
		}
		return nil
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	c.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, xerrors.Wrap(err, "invalid address")
			}
			ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
			if err != nil {
				return nil, xerrors.Wrapf(err, "resolving host %q", host)
			}
			for _, ip := range ips {
				if isPrivateIP(ip) {
					return nil, xerrors.Newf("private IP address blocked: %s", ip)
				}
			}
			return dialer.DialContext(ctx, network, addr)
		},
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return c
}

// validateURL rejects anything that isn't a plain http(s) URL with a
// resolvable hostname — a GraphQL introspection endpoint (spec §4.11
// "--endpoint") is always one of these, never a file:// or unix socket
// reference, so the scheme check doubles as input validation for the
// one call site this client serves.
func (c *SaferClient) validateURL(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return xerrors.Newf("introspection endpoint scheme %q not allowed", u.Scheme)
	}

	if strings.Contains(u.String(), "@") {
		return xerrors.New("introspection endpoint contains an @ character (possible SSRF attempt)")
	}

	hostname := u.Hostname()
	if hostname == "" {
		return xerrors.New("introspection endpoint has no hostname")
	}

	if c.blockPrivateIP {
		if isLocalhost(hostname) {
			return xerrors.New("introspection endpoint resolves to localhost")
		}
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return xerrors.Newf("introspection endpoint resolves to a private IP: %s", hostname)
		}
	}

	return nil
}

// isPrivateIP reports whether ip is private, loopback, link-local, or
// otherwise non-routable from the public internet.
func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified()
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" || hostname == "localhost.localdomain" || strings.HasSuffix(hostname, ".localhost")
}

// Do validates req's URL before dispatching it — the hostname check here
// is the one line of defense for non-redirect requests; DialContext
// covers the DNS-rebinding case CheckRedirect and this can't.
func (c *SaferClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.validateURL(req.URL); err != nil {
		return nil, xerrors.Wrap(err, "request blocked by SSRF protection")
	}
	return c.Client.Do(req)
}

// WrapClient builds a SaferClient around an existing http.Client with
// SSRF protection disabled — for tests exercising Fetch against an
// httptest.Server, which only ever binds loopback addresses.
func WrapClient(client *http.Client) *SaferClient {
	return &SaferClient{Client: client, blockPrivateIP: false}
}
