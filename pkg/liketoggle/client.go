// Package liketoggle toggles the "favorited" state of a Warbler message over
// the JSON like endpoint and mirrors the answer onto a star icon.
package liketoggle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anonto42/warbler/internal/logger"
)

const (
	// DefaultBaseURL is the local development server.
	DefaultBaseURL = "http://localhost:5000"

	// CSRFHeader carries the anti-forgery token of a cookie session.
	CSRFHeader = "X-CSRFToken"

	maxBodyBytes = 1 << 20
)

var (
	ErrMissingMessageID = errors.New("liketoggle: message id is empty")
	ErrMissingFavorited = errors.New("liketoggle: response has no favorited field")
)

// StatusError is returned for any non-2xx answer of the server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("liketoggle: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("liketoggle: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Request identifies one toggle. The message ID is opaque to the client.
type Request struct {
	MessageID string
	CSRFToken string
}

type Result struct {
	MessageID string
	Favorited bool
}

// Client talks to one Warbler server. Headers are set per request, so a
// Client can be shared by any number of controls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	bearer     string
	log        logger.Logger
}

// Option is a function that configures the Client.
type Option func(*Client)

// NewClient creates a client for baseURL, or DefaultBaseURL when it is empty.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithCookieJar keeps the session and csrf cookies between requests.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithBearerToken authenticates with a JWT instead of a cookie session.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.bearer = token
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// BaseURL returns the server root every request is made against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Toggle flips the like of the current user on req.MessageID and returns the
// state the server settled on.
func (c *Client) Toggle(ctx context.Context, req Request) (Result, error) {
	if req.MessageID == "" {
		return Result{}, ErrMissingMessageID
	}

	endpoint := c.baseURL + "/api/messages/" + url.PathEscape(req.MessageID) + "/like"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("liketoggle: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.CSRFToken != "" {
		httpReq.Header.Set(CSRFHeader, req.CSRFToken)
	}

	var payload struct {
		Favorited *bool `json:"favorited"`
	}
	if err := c.do(httpReq, &payload); err != nil {
		c.log.Warn("like toggle failed", logger.String("message_id", req.MessageID), logger.Error(err))
		return Result{}, err
	}
	if payload.Favorited == nil {
		return Result{}, ErrMissingFavorited
	}

	c.log.Debug("like toggled",
		logger.String("message_id", req.MessageID),
		logger.Bool("favorited", *payload.Favorited))
	return Result{MessageID: req.MessageID, Favorited: *payload.Favorited}, nil
}

// SignIn exchanges a username and password for a bearer token. The client
// keeps using its own credentials; pass the token to WithBearerToken.
func (c *Client) SignIn(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("liketoggle: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	var payload struct {
		Token string `json:"token"`
	}
	if err := c.do(httpReq, &payload); err != nil {
		return "", err
	}
	if payload.Token == "" {
		return "", errors.New("liketoggle: login response has no token")
	}
	return payload.Token, nil
}

func (c *Client) do(httpReq *http.Request, out interface{}) error {
	if c.bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("liketoggle: %s %s: %w", httpReq.Method, httpReq.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("liketoggle: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("liketoggle: decode response: %w", err)
	}
	return nil
}
