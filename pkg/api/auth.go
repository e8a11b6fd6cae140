package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Ngote-Technologies/skedlii-go/pkg/config"
	"github.com/Ngote-Technologies/skedlii-go/pkg/observability"
	"github.com/Ngote-Technologies/skedlii-go/pkg/transport"
	"github.com/sirupsen/logrus"
)

// AuthService binds the authentication endpoints of both backend versions
type AuthService struct {
	client  *transport.Client
	adapter adapter
	log     *logrus.Logger
}

// NewAuthService creates an AuthService over the shared transport. A nil
// logger falls back to a default logrus logger; metrics may be nil.
func NewAuthService(client *transport.Client, log *logrus.Logger, metrics *observability.Metrics) *AuthService {
	if log == nil {
		log = logrus.New()
	}
	return &AuthService{
		client:  client,
		adapter: adapter{log: log, metrics: metrics},
		log:     log,
	}
}

// Login authenticates with email and password. The session version records
// which backend answered so token storage can route the credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	version := s.client.ResolveVersion(config.FeatureAuth, "")
	var raw json.RawMessage
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/auth/login",
		Feature: config.FeatureAuth,
		Body:    map[string]string{"email": email, "password": password},
	}, &raw)
	if err != nil {
		return nil, err
	}
	return s.adapter.decodeSession(version, raw)
}

// Register creates an account and returns the authenticated session
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	version := s.client.ResolveVersion(config.FeatureAuth, "")
	var raw json.RawMessage
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/auth/register",
		Feature: config.FeatureAuth,
		Body:    req,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return s.adapter.decodeSession(version, raw)
}

// Me fetches the current user
func (s *AuthService) Me(ctx context.Context) (*Me, error) {
	version := s.client.ResolveVersion(config.FeatureAuth, "")
	var raw json.RawMessage
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/auth/me",
		Feature: config.FeatureAuth,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return s.adapter.decodeMe(version, raw)
}

// RefreshPermissions refetches the authorization state, scoped to the given
// organization when one is passed
func (s *AuthService) RefreshPermissions(ctx context.Context, organizationID string) (*PermissionRefresh, error) {
	var body any
	if organizationID != "" {
		body = map[string]string{"organizationId": organizationID}
	}
	var out PermissionRefresh
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/auth/refresh-permissions",
		Feature: config.FeatureAuth,
		Body:    body,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the session server-side. Callers treat failures as
// non-fatal: local credential cleanup proceeds regardless.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/auth/logout",
		Feature: config.FeatureAuth,
	}, nil)
}

// DeleteAccount permanently deletes the current account
func (s *AuthService) DeleteAccount(ctx context.Context, password string) error {
	return s.client.Do(ctx, transport.Request{
		Method:  http.MethodDelete,
		Path:    "/auth/me",
		Feature: config.FeatureAuth,
		Body:    map[string]string{"password": password},
	}, nil)
}

// ForgotPassword requests a password-reset email
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.client.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/auth/forgot-password",
		Feature: config.FeatureAuth,
		Body:    map[string]string{"email": email},
	}, nil)
}

// ResetPassword consumes a reset token. A 401 here means the token expired;
// the transport surfaces it as a plain error without touching the session.
func (s *AuthService) ResetPassword(ctx context.Context, token, email, newPassword string) error {
	return s.client.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/auth/reset-password",
		Feature: config.FeatureAuth,
		Body:    map[string]string{"token": token, "email": email, "newPassword": newPassword},
	}, nil)
}

// SecurityEvents lists recent authentication events, newest first, capped at
// limit when it is positive. The legacy backend has no event log, so the v1
// path returns an empty list without a request.
func (s *AuthService) SecurityEvents(ctx context.Context, limit int) ([]SecurityEvent, error) {
	version := s.client.ResolveVersion(config.FeatureAuth, "")
	if version == transport.VersionV1 {
		s.log.Debug("security events unavailable on legacy backend")
		return []SecurityEvent{}, nil
	}
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": []string{strconv.Itoa(limit)}}
	}
	var out struct {
		Events []SecurityEvent `json:"events"`
	}
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/auth/events",
		Feature: config.FeatureAuth,
		Version: transport.VersionV2,
		Query:   query,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Events == nil {
		out.Events = []SecurityEvent{}
	}
	return out.Events, nil
}
