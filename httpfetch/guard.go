package httpfetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

const maxRedirects = 10

// isBlockedIP reports whether ip is private, loopback, link-local or
// unspecified.
func isBlockedIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

// lookupPublic resolves host and fails if any address is blocked.
func lookupPublic(ctx context.Context, host string) ([]net.IPAddr, error) {
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("httpfetch: no addresses found for host %s", host)
	}
	for _, ip := range ips {
		if isBlockedIP(ip.IP) {
			return nil, fmt.Errorf("httpfetch: blocked request to private address %s (%s)", host, ip.IP)
		}
	}
	return ips, nil
}

// guard returns a copy of c that dials only public addresses.
func guard(c *http.Client) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	guarded := *c
	guarded.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := lookupPublic(ctx, host)
			if err != nil {
				return nil, err
			}
			return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
		},
	}
	guarded.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("httpfetch: stopped after %d redirects", maxRedirects)
		}
		_, err := lookupPublic(req.Context(), req.URL.Hostname())
		return err
	}
	return &guarded
}
