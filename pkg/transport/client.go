package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"

	"github.com/Ngote-Technologies/skedlii-go/pkg/credentials"
	"github.com/Ngote-Technologies/skedlii-go/pkg/observability"
)

// Version selects which backend a request goes to
type Version string

const (
	VersionV1 Version = "v1"
	VersionV2 Version = "v2"
)

// Request headers stamped by the pipeline
const (
	headerTimestamp    = "X-Request-Timestamp"
	headerOrganization = "X-Organization-Id"
)

const refreshPath = "/auth/refresh"

// authEndpoints never receive a bearer header. Matching is exact path or
// path suffix, never substring containment: "/auth/login" must not match
// "/oauth/login-audit".
var authEndpoints = []string{
	"/auth/login",
	"/auth/register",
	"/auth/refresh",
	"/auth/forgot-password",
	"/auth/reset-password",
}

func isAuthPath(path string) bool {
	for _, endpoint := range authEndpoints {
		if path == endpoint || strings.HasSuffix(path, endpoint) {
			return true
		}
	}
	return false
}

func isResetPasswordPath(path string) bool {
	return path == "/auth/reset-password" || strings.HasSuffix(path, "/auth/reset-password")
}

// Notifier surfaces user-visible session events; the web client shows toasts,
// the CLI prints, tests capture
type Notifier interface {
	SessionExpired(message string)
}

// Options configures a Client
type Options struct {
	V1BaseURL string
	V2BaseURL string

	// V2Enabled is the global default; V2Features overrides per feature
	V2Enabled  bool
	V2Features map[string]bool

	Timeout time.Duration

	Tokens *credentials.TokenStore

	// OrganizationID supplies the active organization for the v2 context
	// header. Looked up lazily on each request so the session store can
	// register it after construction without an init cycle.
	OrganizationID func() string

	// OnForcedLogout performs local session cleanup after an unrecoverable
	// 401. It must not make API calls through this client.
	OnForcedLogout func()

	Notifier Notifier

	Logger  *logrus.Logger
	Metrics *observability.Metrics

	// HTTPClient overrides the default otelhttp-instrumented client
	HTTPClient *http.Client
}

// Client routes requests to the v1 or v2 backend and applies the shared
// request/response pipeline
type Client struct {
	v1BaseURL  string
	v2BaseURL  string
	v2Enabled  bool
	v2Features map[string]bool

	http    *http.Client
	tokens  *credentials.TokenStore
	orgID   func() string
	logout  func()
	notify  Notifier
	log     *logrus.Logger
	metrics *observability.Metrics

	// expiredNotified is the one-shot latch in front of the session-expired
	// notification. Reset only explicitly, when the next session begins.
	expiredNotified atomic.Bool

	refreshGroup singleflight.Group
}

// New creates a Client from Options
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(otel.GetTracerProvider()),
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return r.Method + " " + r.URL.Path
				}),
			),
		}
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		v1BaseURL:  strings.TrimRight(opts.V1BaseURL, "/"),
		v2BaseURL:  strings.TrimRight(opts.V2BaseURL, "/"),
		v2Enabled:  opts.V2Enabled,
		v2Features: opts.V2Features,
		http:       httpClient,
		tokens:     opts.Tokens,
		orgID:      opts.OrganizationID,
		logout:     opts.OnForcedLogout,
		notify:     opts.Notifier,
		log:        log,
		metrics:    opts.Metrics,
	}
}

// SetOrganizationProvider registers the lazy organization-context lookup
func (c *Client) SetOrganizationProvider(provider func() string) {
	c.orgID = provider
}

// SetForcedLogout registers the local cleanup hook for unrecoverable 401s
func (c *Client) SetForcedLogout(hook func()) {
	c.logout = hook
}

// ResolveVersion picks the backend for a call: explicit override, then the
// per-feature flag, then the global default
func (c *Client) ResolveVersion(feature string, override Version) Version {
	if override != "" {
		return override
	}
	if feature != "" {
		if enabled, ok := c.v2Features[feature]; ok {
			if enabled {
				return VersionV2
			}
			return VersionV1
		}
	}
	if c.v2Enabled {
		return VersionV2
	}
	return VersionV1
}

// ResetSessionExpiredLatch re-arms the one-shot session-expired notification.
// Called when a new session begins; also the testing hook.
func (c *Client) ResetSessionExpiredLatch() {
	c.expiredNotified.Store(false)
}

// Request describes one API call
type Request struct {
	Method  string
	Path    string
	Feature string
	Version Version // optional explicit override
	Body    any
	Query   url.Values
}

// Do executes a request through the pipeline and unmarshals a 2xx JSON
// response into out (which may be nil)
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	version := c.ResolveVersion(req.Feature, req.Version)
	return c.execute(ctx, version, req, out, true)
}

func (c *Client) execute(ctx context.Context, version Version, req Request, out any, allowRefresh bool) error {
	httpReq, err := c.buildRequest(ctx, version, req)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.Path, err)
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read response from %s: %w", req.Path, readErr)
	}

	c.metrics.IncAPIRequest(string(version), req.Method, strconv.Itoa(resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return c.handleUnauthorized(ctx, version, req, out, body, allowRefresh)
	case resp.StatusCode == http.StatusForbidden:
		// The UI is expected to have hidden the action already; log only.
		c.log.WithFields(logrus.Fields{
			"path":    req.Path,
			"version": version,
		}).Warn("request forbidden")
		return c.normalizeError(version, resp.StatusCode, body)
	case resp.StatusCode >= 400:
		return c.normalizeError(version, resp.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.Path, err)
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, version Version, req Request) (*http.Request, error) {
	base := c.v1BaseURL
	if version == VersionV2 {
		base = c.v2BaseURL
	}
	fullURL := base + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	bodyBytes, err := c.encodeBody(version, req)
	if err != nil {
		return nil, err
	}
	var bodyReader io.Reader
	if bodyBytes != nil {
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", req.Path, err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if bodyBytes != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(headerTimestamp, time.Now().UTC().Format(time.RFC3339))

	if !isAuthPath(req.Path) {
		if token := c.bearerToken(version); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
		if version == VersionV2 && c.orgID != nil {
			if orgID := c.orgID(); orgID != "" {
				httpReq.Header.Set(headerOrganization, orgID)
			}
		}
	}

	return httpReq, nil
}

// encodeBody marshals the request body. On the v2 refresh endpoint the
// stored refresh token is merged into the body so callers do not handle
// refresh credentials themselves.
func (c *Client) encodeBody(version Version, req Request) ([]byte, error) {
	mergeRefresh := version == VersionV2 &&
		(req.Path == refreshPath || strings.HasSuffix(req.Path, refreshPath))

	if req.Body == nil && !mergeRefresh {
		return nil, nil
	}

	if !mergeRefresh {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body for %s: %w", req.Path, err)
		}
		return data, nil
	}

	merged := map[string]any{}
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body for %s: %w", req.Path, err)
		}
		if err := json.Unmarshal(raw, &merged); err != nil {
			return nil, fmt.Errorf("refresh request body must be an object: %w", err)
		}
	}
	if c.tokens != nil {
		merged["refreshToken"] = c.tokens.RefreshToken()
	}
	return json.Marshal(merged)
}

func (c *Client) bearerToken(version Version) string {
	if c.tokens == nil {
		return ""
	}
	if version == VersionV2 {
		return c.tokens.AccessToken()
	}
	return c.tokens.V1Token()
}

func (c *Client) handleUnauthorized(ctx context.Context, version Version, req Request, out any, body []byte, allowRefresh bool) error {
	// Expired reset tokens are expected on the password-reset endpoint;
	// skip all recovery and notification handling there.
	if isResetPasswordPath(req.Path) {
		return c.normalizeError(version, http.StatusUnauthorized, body)
	}

	if allowRefresh && version == VersionV2 && c.tokens != nil && c.tokens.RefreshToken() != "" {
		if err := c.refreshTokens(ctx); err == nil {
			// Retry exactly once with the new access token; a second 401
			// falls through to forced logout.
			return c.execute(ctx, version, req, out, false)
		}
	}

	c.forceSessionExpired()
	return fmt.Errorf("%w: %s", ErrSessionExpired, req.Path)
}

// refreshTokens performs the v2 refresh exchange. Concurrent callers share a
// single in-flight refresh through singleflight, so a burst of 401s causes
// one network round-trip and every waiter retries with the same new pair.
func (c *Client) refreshTokens(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		refreshToken := c.tokens.RefreshToken()
		if refreshToken == "" {
			return nil, fmt.Errorf("no refresh token available")
		}

		payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
		if err != nil {
			return nil, err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.v2BaseURL+refreshPath, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set(headerTimestamp, time.Now().UTC().Format(time.RFC3339))

		resp, err := c.http.Do(httpReq)
		if err != nil {
			c.metrics.IncTokenRefresh("failure")
			return nil, fmt.Errorf("token refresh failed: %w", err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			c.metrics.IncTokenRefresh("failure")
			return nil, fmt.Errorf("token refresh failed: %w", readErr)
		}
		if resp.StatusCode >= 400 {
			c.metrics.IncTokenRefresh("failure")
			return nil, c.normalizeError(VersionV2, resp.StatusCode, body)
		}

		var result struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			c.metrics.IncTokenRefresh("failure")
			return nil, fmt.Errorf("failed to decode refresh response: %w", err)
		}
		if err := c.tokens.SetV2Pair(result.AccessToken, result.RefreshToken); err != nil {
			c.metrics.IncTokenRefresh("failure")
			return nil, err
		}

		c.metrics.IncTokenRefresh("success")
		c.log.Debug("access token refreshed")
		return nil, nil
	})
	return err
}

// forceSessionExpired notifies the user once per session and triggers local
// logout cleanup. The latch guarantees concurrent failing requests produce a
// single notification; cleanup itself is idempotent and runs every time.
func (c *Client) forceSessionExpired() {
	if c.expiredNotified.CompareAndSwap(false, true) {
		if c.notify != nil {
			c.notify.SessionExpired("Your session has expired. Please log in again.")
		}
	} else {
		c.metrics.IncSessionExpiredSuppressed()
	}
	if c.logout != nil {
		c.logout()
	}
}

func (c *Client) normalizeError(version Version, status int, body []byte) error {
	if version == VersionV2 {
		return normalizeV2Error(status, body)
	}
	return &HTTPError{Status: status, Body: string(body)}
}
