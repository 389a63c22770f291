// Package http provides the outbound HTTP client shared by the scrapers.
package http

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// maxRedirects caps redirect chains; listing pages redirect at most once or twice.
const maxRedirects = 5

// ErrTooManyRedirects is returned when a response redirects more than maxRedirects times.
var ErrTooManyRedirects = errors.New("too many redirects")

// NewHTTPClient creates an HTTP client configured for scraping.
//
// Settings:
//   - Proxy: honoured when HTTP_PROXY and friends are set
//   - Dialer.Timeout: TCP connect timeout, shorter than the default
//   - MaxIdleConns / IdleConnTimeout: connection reuse across the catalog
//   - TLSHandshakeTimeout: upper bound for the HTTPS handshake
//   - Jar: keeps session cookies the site sets on the first response
//   - CheckRedirect: stops after maxRedirects hops
//   - Client.Timeout: whole-request timeout passed by the caller
//
// http.DefaultClient has no timeout, so always use a configured client.
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	// cookiejar.New only fails for a non-nil PublicSuffixList.
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout:   timeout,
		Transport: t,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("%w: %s", ErrTooManyRedirects, req.URL)
			}
			return nil
		},
	}
}
