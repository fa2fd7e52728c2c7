// Package api implements the HTTP client for the chat endpoint.
package api

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/charmbracelet/log"

	"github.com/diogo/chatwidget/internal/config"
	"github.com/diogo/chatwidget/internal/models"
)

// HTTPDoer is the part of tls_client.HttpClient the chat client uses
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the chat endpoint. A Client is safe for concurrent use,
// though the widget never has more than one request in flight.
type Client struct {
	httpClient HTTPDoer
	jar        http.CookieJar
	// externalHTTP is set when the transport was injected and does not
	// manage the jar on its own
	externalHTTP bool

	baseURL  *url.URL
	endpoint *url.URL

	csrfCookie    string
	csrfHeader    string
	timeout       time.Duration
	clientProfile string

	logger *log.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the TLS client, mainly for tests
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithCookieJar sets the jar holding the site cookies
func WithCookieJar(jar http.CookieJar) ClientOption {
	return func(c *Client) {
		c.jar = jar
	}
}

// WithEndpointPath overrides the chat endpoint path
func WithEndpointPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.endpoint = c.baseURL.ResolveReference(&url.URL{Path: path})
		}
	}
}

// WithCSRF sets the name of the anti-forgery cookie and the header it is echoed in
func WithCSRF(cookieName, headerName string) ClientOption {
	return func(c *Client) {
		if cookieName != "" {
			c.csrfCookie = cookieName
		}
		if headerName != "" {
			c.csrfHeader = headerName
		}
	}
}

// WithTimeout bounds every request; zero means no timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithClientProfile selects the TLS fingerprint, e.g. "chrome_120"
func WithClientProfile(name string) ClientOption {
	return func(c *Client) {
		c.clientProfile = name
	}
}

// WithLogger sets the client logger
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the chat server at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	client := &Client{
		baseURL:       base,
		endpoint:      base.ResolveReference(&url.URL{Path: models.EndpointChat}),
		csrfCookie:    models.DefaultCSRFCookie,
		csrfHeader:    models.DefaultCSRFHeader,
		clientProfile: "chrome_120",
		logger:        log.New(io.Discard),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.jar == nil {
		client.jar = tls_client.NewCookieJar()
	}

	client.externalHTTP = client.httpClient != nil
	if client.httpClient == nil {
		profile, ok := profiles.MappedTLSClients[client.clientProfile]
		if !ok {
			profile = profiles.Chrome_120
		}

		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout / time.Second)),
			tls_client.WithClientProfile(profile),
			tls_client.WithCookieJar(client.jar),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// NewClientFromConfig creates a client from the user configuration
func NewClientFromConfig(cfg config.Config, opts ...ClientOption) (*Client, error) {
	base := []ClientOption{
		WithEndpointPath(cfg.EndpointPath),
		WithCSRF(cfg.CSRFCookieName, cfg.CSRFHeader),
		WithTimeout(cfg.Timeout()),
		WithClientProfile(cfg.ClientProfile),
	}
	return NewClient(cfg.BaseURL, append(base, opts...)...)
}

// BaseURL returns the page URL the client is bound to
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Endpoint returns the chat endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// SeedCookies stores cookies obtained out of band (a cookies file or a
// browser profile) so they are sent with every request
func (c *Client) SeedCookies(cookies *config.Cookies) {
	if cookies == nil {
		return
	}

	var jarCookies []*http.Cookie
	for name, value := range cookies.ToMap() {
		jarCookies = append(jarCookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	if len(jarCookies) > 0 {
		c.jar.SetCookies(c.baseURL, jarCookies)
	}
}

// CSRFToken returns the anti-forgery cookie for the endpoint, or "" when
// the server has not issued one
func (c *Client) CSRFToken() string {
	for _, cookie := range c.jar.Cookies(c.endpoint) {
		if cookie.Name == c.csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

// withTimeout derives a request context bounded by the client timeout
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// Close releases idle connections held by the transport
func (c *Client) Close() {
	if closer, ok := c.httpClient.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}
