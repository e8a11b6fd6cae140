package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ngote-Technologies/skedlii-go/pkg/credentials"
	"github.com/Ngote-Technologies/skedlii-go/pkg/rbac"
	"github.com/Ngote-Technologies/skedlii-go/pkg/transport"
)

func newAuthFixture(t *testing.T, handler http.Handler, v2Enabled bool) *AuthService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	files, err := credentials.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { files.Close() })

	client := transport.New(transport.Options{
		V1BaseURL: server.URL,
		V2BaseURL: server.URL,
		V2Enabled: v2Enabled,
		Timeout:   5 * time.Second,
		Tokens:    credentials.NewTokenStore(files),
	})
	return NewAuthService(client, nil, nil)
}

func TestLoginV2(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body["email"])

		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
			"user":         map[string]string{"id": "u-1", "email": "a@b.c"},
			"userRole":     "org_owner",
			"userType":     "organization",
		})
	}).Methods(http.MethodPost)

	service := newAuthFixture(t, router, true)
	sess, err := service.Login(context.Background(), "a@b.c", "pw")

	require.NoError(t, err)
	assert.Equal(t, transport.VersionV2, sess.Version)
	assert.Equal(t, "access-1", sess.AccessToken)
	assert.Equal(t, rbac.RoleOrgOwner, sess.Role)
	assert.False(t, sess.HasServerComputedPermissions())
}

func TestLoginV1InvalidCredentials(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid email or password"}`))
	}).Methods(http.MethodPost)

	service := newAuthFixture(t, router, false)
	_, err := service.Login(context.Background(), "a@b.c", "wrong")

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, transport.StatusFromError(err))
	assert.Equal(t, "Invalid email or password", transport.MessageFromError(err))
}

func TestSecurityEventsShortCircuitOnV1(t *testing.T) {
	var called bool
	router := mux.NewRouter()
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{}`))
	})

	service := newAuthFixture(t, router, false)
	events, err := service.SecurityEvents(context.Background(), 10)

	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
	assert.False(t, called, "legacy backend has no event log, no request is made")
}

func TestSecurityEventsV2(t *testing.T) {
	var gotLimit string
	router := mux.NewRouter()
	router.HandleFunc("/auth/events", func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		json.NewEncoder(w).Encode(map[string]any{
			"events": []map[string]string{
				{"id": "ev-1", "type": "login", "ipAddress": "10.0.0.1"},
			},
		})
	}).Methods(http.MethodGet)

	service := newAuthFixture(t, router, true)
	events, err := service.SecurityEvents(context.Background(), 25)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "login", events[0].Type)
	assert.Equal(t, "25", gotLimit)
}

func TestDeleteAccountTargetsCurrentUser(t *testing.T) {
	var gotBody map[string]string
	router := mux.NewRouter()
	router.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{}`))
	}).Methods(http.MethodDelete)

	service := newAuthFixture(t, router, true)
	require.NoError(t, service.DeleteAccount(context.Background(), "hunter2"))

	assert.Equal(t, map[string]string{"password": "hunter2"}, gotBody)
}

func TestResetPasswordPayload(t *testing.T) {
	var gotBody map[string]string
	router := mux.NewRouter()
	router.HandleFunc("/auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{}`))
	}).Methods(http.MethodPost)

	service := newAuthFixture(t, router, true)
	require.NoError(t, service.ResetPassword(context.Background(), "tok-1", "a@b.c", "new-pw"))

	assert.Equal(t, map[string]string{
		"token":       "tok-1",
		"email":       "a@b.c",
		"newPassword": "new-pw",
	}, gotBody)
}

func TestRefreshPermissionsScopesToOrganization(t *testing.T) {
	var gotBody map[string]any
	router := mux.NewRouter()
	router.HandleFunc("/auth/refresh-permissions", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"organizationId": "org-7", "userRole": "admin"})
	}).Methods(http.MethodPost)

	service := newAuthFixture(t, router, true)
	refreshed, err := service.RefreshPermissions(context.Background(), "org-7")

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"organizationId": "org-7"}, gotBody)
	assert.Equal(t, "org-7", refreshed.OrganizationID)
	assert.Equal(t, rbac.RoleAdmin, refreshed.Role)
}
