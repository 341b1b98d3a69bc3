// Package earthdata searches NASA's Common Metadata Repository (CMR) for
// granules and downloads them through Earthdata Login.
package earthdata

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultCMRURL is the production CMR endpoint.
const DefaultCMRURL = "https://cmr.earthdata.nasa.gov"

// Client is a CMR search and granule download client.
type Client struct {
	logger   *slog.Logger
	httpCli  *http.Client
	cmrURL   string
	creds    Credentials
	maxConns int
	// loginHost receives basic credentials on redirect.
	loginHost string
}

// NewClient creates a new client. maxConns bounds the number of concurrent
// downloads and connections per host.
func NewClient(logger *slog.Logger, cmrURL string, maxConns int, creds Credentials) (*Client, error) {
	u, err := url.Parse(cmrURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("CMR URL %q must be http or https", cmrURL)
	}
	if maxConns < 1 {
		return nil, fmt.Errorf("maxConns must be positive, got %d", maxConns)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	c := &Client{
		logger:    logger,
		cmrURL:    u.String(),
		creds:     creds,
		maxConns:  maxConns,
		loginHost: LoginHost,
	}
	c.httpCli = &http.Client{
		Jar: jar,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        maxConns,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: maxConns,
			MaxConnsPerHost:     maxConns,
		},
		CheckRedirect: c.checkRedirect,
	}
	return c, nil
}

// checkRedirect re-applies credentials that net/http strips when a data
// host redirects to Earthdata Login.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	c.authorize(req, via[0].URL.Host)
	return nil
}

// authorize adds credentials to req. Basic credentials only ever go to the
// login host; a token also goes to the host the download started from.
func (c *Client) authorize(req *http.Request, origin string) {
	host := req.URL.Host
	switch {
	case c.creds.Token != "" && (host == c.loginHost || host == origin):
		req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	case c.creds.Username != "" && host == c.loginHost:
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
	}
}
