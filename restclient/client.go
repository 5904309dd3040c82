package restclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"simple-restclient/restclient/domain"
)

var _ Requester = (*Client)(nil)

const defaultTimeout = 30 * time.Second

// Client é o executor direto: uma chamada HTTP por operação, sem estado por chamada.
// Status >= 400 não é erro aqui; use Response.CheckStatus.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     log.FieldLogger
}

type clientConfig struct {
	// timeout da chamada inteira (conexão, redirects e leitura dos headers)
	timeout   time.Duration
	transport http.RoundTripper
	limiters  domain.LimiterStore
	userAgent string
	logger    log.FieldLogger
}

type ClientOption func(*clientConfig)

// WithTimeout define o timeout por chamada. 0 = sem timeout. Padrão: 30s.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.timeout = d }
}

// WithTransport troca o transporte (padrão: http.DefaultTransport).
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) { c.transport = rt }
}

// WithThrottle faz cada round trip esperar o limiter do host de destino
// (ex: infra.HostLimiters).
func WithThrottle(limiters domain.LimiterStore) ClientOption {
	return func(c *clientConfig) { c.limiters = limiters }
}

func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) { c.userAgent = ua }
}

func WithLogger(logger log.FieldLogger) ClientOption {
	return func(c *clientConfig) { c.logger = logger }
}

func NewClient(opts ...ClientOption) *Client {
	cfg := clientConfig{
		timeout:   defaultTimeout,
		transport: http.DefaultTransport,
		logger:    log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	transport := cfg.transport
	if cfg.limiters != nil {
		transport = &throttledTransport{limiters: cfg.limiters, next: transport}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.timeout,
			Transport: transport,
		},
		userAgent: cfg.userAgent,
		logger:    cfg.logger,
	}
}

func (c *Client) Get(ctx context.Context, rawURL string, headers Headers) (*Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, headers)
}

func (c *Client) Post(ctx context.Context, rawURL string, body Body, headers Headers) (*Response, error) {
	return c.do(ctx, http.MethodPost, rawURL, body, headers)
}

func (c *Client) Put(ctx context.Context, rawURL string, body Body, headers Headers) (*Response, error) {
	return c.do(ctx, http.MethodPut, rawURL, body, headers)
}

func (c *Client) Delete(ctx context.Context, rawURL string, headers Headers) (*Response, error) {
	return c.do(ctx, http.MethodDelete, rawURL, nil, headers)
}

func (c *Client) Head(ctx context.Context, rawURL string, headers Headers) (*Response, error) {
	return c.do(ctx, http.MethodHead, rawURL, nil, headers)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body Body, headers Headers) (*Response, error) {
	u, err := parseAbsolute(rawURL)
	if err != nil {
		return nil, err
	}

	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		reader, contentType, err = body.encode()
		if err != nil {
			return nil, errors.Wrap(err, "cannot encode body")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(log.Fields{
			"method": method,
			"url":    u.Redacted(),
		}).Debug("http request failed")
		return nil, errors.Wrap(err, "http request error")
	}
	c.logger.WithFields(log.Fields{
		"method":  method,
		"url":     u.Redacted(),
		"status":  resp.StatusCode,
		"elapsed": time.Since(start),
	}).Debug("http request done")

	return newResponse(resp), nil
}

func parseAbsolute(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid url")
	}
	if !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.Wrapf(ErrNotAbsolute, "invalid url %q", rawURL)
	}
	return u, nil
}
