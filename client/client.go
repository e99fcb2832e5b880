package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/internal/metrics"
	"github.com/jrsteele09/readcomp/sessions"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// RefreshPath is where an access token is exchanged for a new one.
const RefreshPath = "/api/token/refresh/"

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "readcomp-client"
)

// Refresh outcomes recorded in metrics.
const (
	refreshSuccess   = "success"
	refreshRejected  = "rejected"
	refreshTransport = "transport"
	refreshCleared   = "cleared"
)

// SessionExpiredHandler is told when a call ends the session because
// authorization could not be restored.
type SessionExpiredHandler interface {
	SessionExpired(ctx context.Context)
}

type SessionExpiredFunc func(ctx context.Context)

func (f SessionExpiredFunc) SessionExpired(ctx context.Context) {
	f(ctx)
}

// Client sends API calls with the stored bearer token and transparently
// refreshes it once when the server rejects it.
type Client struct {
	baseURL    *url.URL
	store      sessions.Store
	tokens     *StoreTokenSource
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.ClientMetrics
	userAgent  string
	onExpired  SessionExpiredHandler
	refreshes  singleflight.Group

	expiredMu  sync.Mutex
	expired    bool
	expiredGen uint64
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithSessionExpiredHandler(handler SessionExpiredHandler) Option {
	return func(c *Client) {
		c.onExpired = handler
	}
}

func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, store sessions.Store, options ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client.New base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client.New base url %q: %w", baseURL, errors.ErrInvalidRequest)
	}
	c := &Client{
		baseURL:    u,
		store:      store,
		tokens:     NewStoreTokenSource(store),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zerolog.Nop(),
		userAgent:  defaultUserAgent,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// SetSessionExpiredHandler replaces the hook after construction, for
// components that need the client to exist before they do.
func (c *Client) SetSessionExpiredHandler(handler SessionExpiredHandler) {
	c.onExpired = handler
}

func (c *Client) Store() sessions.Store {
	return c.store
}

// Do performs req. A 401 or 403 on an authenticated request triggers at
// most one refresh and at most one replay. When authorization cannot be
// restored the session is cleared, the expiry hook fires, and the error
// is errors.ErrSessionExpired.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.SkipAuth {
		resp, err := c.send(ctx, req, nil)
		if err != nil {
			return nil, err
		}
		return c.result(resp)
	}

	sess, hasSession, err := c.store.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "Client.Do read session")
	}
	var tok *oauth2.Token
	if hasSession && sess.AccessToken != "" {
		if tok, err = c.tokens.Token(); err != nil {
			return nil, errors.Wrapf(err, "Client.Do token")
		}
	}

	resp, err := c.send(ctx, req, tok)
	if err != nil {
		return nil, err
	}
	if !isAuthFailure(resp.Status) {
		return c.result(resp)
	}

	if !hasSession || !sess.HasRefreshToken() {
		return nil, c.expire(ctx, sess, "no refresh token")
	}

	access, err := c.refresh(ctx, sess)
	if err != nil {
		return nil, err
	}

	retry, err := c.send(ctx, req, &oauth2.Token{AccessToken: access, TokenType: tokenTypeBearer})
	if err != nil {
		return nil, err
	}
	if isAuthFailure(retry.Status) {
		return nil, c.expire(ctx, sess, "rejected after refresh")
	}
	return c.result(retry)
}

// DoJSON performs req and decodes a 2xx body into out when out is non-nil.
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// refresh returns an access token to replay with. Concurrent callers
// holding the same refresh token share one exchange.
func (c *Client) refresh(ctx context.Context, sess sessions.Session) (string, error) {
	results := c.refreshes.DoChan(sess.RefreshToken, func() (any, error) {
		return c.exchange(context.WithoutCancel(ctx), sess)
	})

	select {
	case <-ctx.Done():
		return "", &errors.TransportError{Method: http.MethodPost, Path: RefreshPath, Err: ctx.Err()}
	case r := <-results:
		if r.Shared {
			c.logger.Debug().Msg("joined in-flight token refresh")
		}
		switch {
		case r.Err == nil:
			return r.Val.(string), nil
		case errors.Is(r.Err, errors.ErrSessionExpired):
			return "", r.Err
		case errors.Is(r.Err, errRefreshRejected):
			return "", c.expire(ctx, sess, "refresh rejected")
		}
		c.logger.Warn().Err(r.Err).Msg("token refresh failed")
		return "", c.expire(ctx, sess, "refresh failed")
	}
}

var errRefreshRejected = errors.New("refresh rejected")

// exchange posts the refresh token unless another call has already
// refreshed this session, in which case the stored token is reused.
func (c *Client) exchange(ctx context.Context, sess sessions.Session) (string, error) {
	current, ok, err := c.store.Read()
	if err != nil {
		return "", errors.Wrapf(err, "Client.exchange read session")
	}
	if !ok || current.Generation != sess.Generation {
		c.metrics.RecordRefreshOutcome(refreshCleared)
		return "", fmt.Errorf("%w: %w", errors.ErrSessionExpired, errors.ErrSessionCleared)
	}
	if current.AccessToken != "" && current.AccessToken != sess.AccessToken {
		return current.AccessToken, nil
	}

	c.metrics.IncrementRefreshAttempts()

	req, err := NewJSONRequest(http.MethodPost, RefreshPath, apimodel.RefreshRequest{Refresh: sess.RefreshToken})
	if err != nil {
		return "", err
	}
	resp, err := c.send(ctx, req.WithoutAuth(), nil)
	if err != nil {
		c.metrics.RecordRefreshOutcome(refreshTransport)
		return "", err
	}
	if resp.Status < 200 || resp.Status > 299 {
		c.metrics.RecordRefreshOutcome(refreshRejected)
		return "", fmt.Errorf("%w: %w", errRefreshRejected, &errors.HTTPError{Status: resp.Status, Body: resp.Body})
	}

	var refreshed apimodel.RefreshResponse
	if err := resp.Decode(&refreshed); err != nil || refreshed.Access == "" {
		c.metrics.RecordRefreshOutcome(refreshRejected)
		return "", fmt.Errorf("%w: no access token in response", errRefreshRejected)
	}

	if err := c.store.ReplaceAccess(sess.Generation, refreshed.Access); err != nil {
		c.metrics.RecordRefreshOutcome(refreshCleared)
		if errors.Is(err, sessions.ErrSessionCleared) {
			c.logger.Info().Msg("session ended while refreshing, discarding new access token")
			return "", fmt.Errorf("%w: %w", errors.ErrSessionExpired, err)
		}
		return "", errors.Wrapf(err, "Client.exchange store access token")
	}
	c.metrics.RecordRefreshOutcome(refreshSuccess)
	c.logger.Debug().Msg("access token refreshed")
	return refreshed.Access, nil
}

// expire clears the session the failing call started from and fires the
// hook once per session generation, however many calls fail with it. A
// session saved by a newer login is left alone.
func (c *Client) expire(ctx context.Context, sess sessions.Session, reason string) error {
	current, ok, err := c.store.Read()
	if err != nil || !ok || current.Generation == sess.Generation {
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Err(clearErr).Msg("failed to clear session")
		}
	}

	c.expiredMu.Lock()
	first := !c.expired || c.expiredGen != sess.Generation
	c.expired, c.expiredGen = true, sess.Generation
	c.expiredMu.Unlock()
	if !first {
		return fmt.Errorf("%w: %s", errors.ErrSessionExpired, reason)
	}

	c.metrics.IncrementSessionExpired()
	c.logger.Info().Str("reason", reason).Msg("session expired")
	if c.onExpired != nil {
		c.onExpired.SessionExpired(ctx)
	}
	return fmt.Errorf("%w: %s", errors.ErrSessionExpired, reason)
}

// send issues one HTTP attempt and reads the full body. Only transport
// failures are returned as errors.
func (c *Client) send(ctx context.Context, req *Request, tok *oauth2.Token) (*Response, error) {
	target := c.resolve(req)

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, &errors.TransportError{Method: req.Method, Path: req.Path, Err: err}
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", ContentTypeJSON)
	httpReq.Header.Set("User-Agent", c.userAgent)
	requestID := uuid.NewString()
	httpReq.Header.Set(headerRequestID, requestID)
	if tok != nil && !req.SkipAuth {
		tok.SetAuthHeader(httpReq)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.Method, 0, time.Since(start))
		c.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.Path).Str("request_id", requestID).Msg("request failed")
		return nil, &errors.TransportError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	c.metrics.ObserveRequest(req.Method, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &errors.TransportError{Method: req.Method, Path: req.Path, Err: err}
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	return &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

func (c *Client) resolve(req *Request) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String()
}

// result maps a final response to the error taxonomy.
func (c *Client) result(resp *Response) (*Response, error) {
	if resp.Status >= 200 && resp.Status <= 299 {
		return resp, nil
	}
	if resp.Status == http.StatusBadRequest {
		if v := errors.ParseValidationError(resp.Body); v != nil {
			return nil, v
		}
	}
	return nil, &errors.HTTPError{Status: resp.Status, Body: resp.Body}
}

func isAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
