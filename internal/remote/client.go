// Package remote is the typed HTTP client for the upstream LMS REST API.
// Every call is a single attempt; failures come back as *errors.Error of
// kind REMOTE carrying the upstream status.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-portal/internal/models"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
	"github.com/noah-isme/lms-portal/pkg/middleware/requestid"
)

// DefaultPublicEndpoints are reachable without a bearer token.
var DefaultPublicEndpoints = []string{"/auth/register", "/auth/login", "/auth/sample"}

const maxErrorBody = 4 << 10

// Recorder receives one observation per upstream call.
type Recorder interface {
	ObserveUpstreamCall(method, endpoint string, status int, duration time.Duration)
}

// Client holds the transport shared by every session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	public     []string
	recorder   Recorder
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPublicEndpoints overrides the token-free path prefixes.
func WithPublicEndpoints(paths []string) Option {
	return func(c *Client) {
		if len(paths) > 0 {
			c.public = paths
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New constructs a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		public:     DefaultPublicEndpoints,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "lms_client"))
	return c
}

// As returns an API bound to the caller's bearer token.
func (c *Client) As(token string) *API {
	return &API{c: c, token: token}
}

// Register creates an account. It is a public endpoint.
func (c *Client) Register(ctx context.Context, req models.RegistrationRequest) error {
	return c.do(ctx, "", http.MethodPost, "/auth/register", "/auth/register", req, nil)
}

// Ping checks that the upstream answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, appErrors.ErrRemoteUnavailable.Message)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) isPublic(path string) bool {
	for _, p := range c.public {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// do sends one request. endpoint is the path template used as metrics label.
func (c *Client) do(ctx context.Context, token, method, path, endpoint string, body, dest interface{}) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode upstream request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" && !c.isPublic(path) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, endpoint, 0, start)
		c.logger.Warn("upstream unreachable", zap.String("method", method), zap.String("endpoint", endpoint), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, appErrors.ErrRemoteUnavailable.Message)
	}
	defer resp.Body.Close()
	c.observe(method, endpoint, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := upstreamMessage(raw)
		c.logger.Info("upstream rejected request",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message),
		)
		return appErrors.Remote(fmt.Errorf("%s %s: status %d", method, endpoint, resp.StatusCode), resp.StatusCode, message)
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, "failed to read upstream response")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return appErrors.Remote(errEmptyBody, resp.StatusCode, "upstream returned no payload")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return appErrors.Remote(fmt.Errorf("decode %s: %w", endpoint, err), resp.StatusCode, "unexpected upstream response")
	}
	return nil
}

func (c *Client) observe(method, endpoint string, status int, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveUpstreamCall(method, endpoint, status, time.Since(start))
	}
}

// errEmptyBody marks a 2xx response without a payload.
var errEmptyBody = errors.New("empty upstream response")

// upstreamMessage picks a human readable message from an error body.
func upstreamMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		return appErrors.ErrRemote.Message
	}
	return text
}
