package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ngote-Technologies/skedlii-go/pkg/api"
	"github.com/Ngote-Technologies/skedlii-go/pkg/credentials"
	"github.com/Ngote-Technologies/skedlii-go/pkg/events"
	"github.com/Ngote-Technologies/skedlii-go/pkg/rbac"
	"github.com/Ngote-Technologies/skedlii-go/pkg/transport"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fixture struct {
	store  *Store
	tokens *credentials.TokenStore
	files  *credentials.FileStore
	bus    *events.Bus
	client *transport.Client
}

func newFixture(t *testing.T, handler http.Handler, v2Enabled bool) *fixture {
	t.Helper()
	return newFixtureWithDir(t, handler, v2Enabled, t.TempDir())
}

func newFixtureWithDir(t *testing.T, handler http.Handler, v2Enabled bool, dir string) *fixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	files, err := credentials.NewFileStore(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { files.Close() })
	tokens := credentials.NewTokenStore(files)

	client := transport.New(transport.Options{
		V1BaseURL: server.URL,
		V2BaseURL: server.URL,
		V2Enabled: v2Enabled,
		Timeout:   5 * time.Second,
		Tokens:    tokens,
	})

	bus := events.NewBus(nil)
	auth := api.NewAuthService(client, nil, nil)
	store := NewStore(auth, client, tokens, files, bus, newTestLogger())

	return &fixture{store: store, tokens: tokens, files: files, bus: bus, client: client}
}

func v1LoginHandler(t *testing.T, user map[string]any) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"token": "v1-jwt", "user": user})
	}).Methods(http.MethodPost)
	router.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}).Methods(http.MethodPost)
	return router
}

func TestLoginFallbackDerivesFlags(t *testing.T) {
	handler := v1LoginHandler(t, map[string]any{
		"_id":            "u-1",
		"email":          "owner@acme.test",
		"userType":       "organization",
		"role":           "admin",
		"organizationId": "org-1",
		"subscriptionInfo": map[string]any{
			"hasValidSubscription": true,
			"subscriptionTier":     "pro",
		},
	})
	f := newFixture(t, handler, false)

	result := f.store.Login(context.Background(), "owner@acme.test", "pw")
	require.True(t, result.OK, "login failed: %s", result.Message)

	assert.Equal(t, StateAuthenticated, f.store.State())
	assert.Equal(t, "v1-jwt", f.tokens.V1Token())

	flags := f.store.Flags()
	assert.True(t, flags.IsAdmin)
	assert.False(t, flags.CanManageOrganization, "only the owner manages the organization")
	assert.False(t, flags.CanManageBilling)
	assert.True(t, flags.CanConnectSocialAccounts)
	assert.True(t, flags.CanCreateTeams)
}

func TestLoginServerTrustOverridesLocalMatrix(t *testing.T) {
	// The server says a member can manage the organization; the client takes
	// the server's word over its own matrix.
	handler := v1LoginHandler(t, map[string]any{
		"_id":            "u-2",
		"email":          "m@acme.test",
		"userType":       "organization",
		"role":           "member",
		"organizationId": "org-1",
		"computedPermissions": map[string]any{
			"isAdmin":               false,
			"canManageOrganization": true,
		},
		"subscriptionInfo": map[string]any{"hasValidSubscription": true},
	})
	f := newFixture(t, handler, false)

	result := f.store.Login(context.Background(), "m@acme.test", "pw")
	require.True(t, result.OK)

	assert.True(t, f.store.Flags().CanManageOrganization)
}

func TestLoginFailureIsStructured(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid email or password"}`))
	}).Methods(http.MethodPost)

	f := newFixture(t, router, false)
	result := f.store.Login(context.Background(), "a@b.c", "wrong")

	assert.False(t, result.OK)
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Equal(t, "Invalid email or password", result.Message)
	assert.Equal(t, StateAnonymous, f.store.State())
	assert.Empty(t, f.tokens.V1Token())
}

func TestLoginEmitsAuthenticated(t *testing.T) {
	handler := v1LoginHandler(t, map[string]any{
		"_id": "u-1", "email": "a@b.c", "userType": "individual",
	})
	f := newFixture(t, handler, false)

	var gotUserID any
	f.bus.On(events.TopicSessionAuthenticated, func(payload any) { gotUserID = payload })

	result := f.store.Login(context.Background(), "a@b.c", "pw")
	require.True(t, result.OK)
	assert.Equal(t, "u-1", gotUserID)
}

func TestLogoutIsIdempotent(t *testing.T) {
	var serverLogouts int
	router := mux.NewRouter()
	router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"token": "v1-jwt",
			"user":  map[string]any{"_id": "u-1", "email": "a@b.c", "userType": "individual"},
		})
	}).Methods(http.MethodPost)
	router.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		serverLogouts++
		w.Write([]byte(`{}`))
	}).Methods(http.MethodPost)

	f := newFixture(t, router, false)
	require.True(t, f.store.Login(context.Background(), "a@b.c", "pw").OK)

	var clearedEvents int
	f.bus.On(events.TopicSessionCleared, func(any) { clearedEvents++ })

	f.store.Logout(context.Background())
	f.store.Logout(context.Background())

	assert.Equal(t, StateAnonymous, f.store.State())
	assert.Nil(t, f.store.User())
	assert.Empty(t, f.tokens.V1Token())
	assert.Equal(t, 1, serverLogouts, "second logout has no token and skips the server call")
	assert.Equal(t, 2, clearedEvents)
}

func TestLogoutClearsStateEvenWhenServerFails(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"token": "v1-jwt",
			"user":  map[string]any{"_id": "u-1", "email": "a@b.c", "userType": "individual"},
		})
	}).Methods(http.MethodPost)
	router.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}).Methods(http.MethodPost)

	f := newFixture(t, router, false)
	require.True(t, f.store.Login(context.Background(), "a@b.c", "pw").OK)

	f.store.Logout(context.Background())

	assert.Equal(t, StateAnonymous, f.store.State())
	assert.Empty(t, f.tokens.V1Token())
}

func TestFetchUserDataWithoutTokenIsNoop(t *testing.T) {
	var called bool
	router := mux.NewRouter()
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{}`))
	})

	f := newFixture(t, router, false)
	require.NoError(t, f.store.FetchUserData(context.Background()))

	assert.False(t, called, "anonymous clients never hit the backend")
	assert.Equal(t, StateAnonymous, f.store.State())
}

func TestUpdateSubscriptionInfoRecomputesOnFallback(t *testing.T) {
	handler := v1LoginHandler(t, map[string]any{
		"_id":            "u-1",
		"email":          "m@acme.test",
		"userType":       "organization",
		"role":           "member",
		"organizationId": "org-1",
		"subscriptionInfo": map[string]any{
			"hasValidSubscription": true,
			"subscriptionTier":     "pro",
		},
	})
	f := newFixture(t, handler, false)
	require.True(t, f.store.Login(context.Background(), "m@acme.test", "pw").OK)
	require.True(t, f.store.Flags().CanConnectSocialAccounts)

	var updated bool
	f.bus.On(events.TopicSubscriptionUpdated, func(any) { updated = true })

	f.store.UpdateSubscriptionInfo(api.SubscriptionInfo{HasValidSubscription: false, Tier: rbac.TierFree})

	assert.False(t, f.store.Flags().CanConnectSocialAccounts, "lapsed subscription revokes the flag")
	assert.True(t, updated)
}

func TestUpdateSubscriptionInfoRecomputesOverServerFlags(t *testing.T) {
	// Server-computed flags were derived from the old subscription; a lapse
	// reported out-of-band must revoke them, not defer to the stale block.
	handler := v1LoginHandler(t, map[string]any{
		"_id":            "u-1",
		"email":          "m@acme.test",
		"userType":       "organization",
		"role":           "member",
		"organizationId": "org-1",
		"computedPermissions": map[string]any{
			"canConnectSocialAccounts": true,
			"canCreateTeams":           true,
		},
		"subscriptionInfo": map[string]any{
			"hasValidSubscription": true,
			"subscriptionTier":     "pro",
		},
	})
	f := newFixture(t, handler, false)
	require.True(t, f.store.Login(context.Background(), "m@acme.test", "pw").OK)
	require.True(t, f.store.Flags().CanConnectSocialAccounts)

	f.store.UpdateSubscriptionInfo(api.SubscriptionInfo{HasValidSubscription: false, Tier: rbac.TierFree})

	flags := f.store.Flags()
	assert.False(t, flags.CanConnectSocialAccounts, "lapsed subscription revokes the flag")
	assert.False(t, flags.CanCreateTeams)
}

func TestRefreshPermissionsDefaultsToSessionOrganization(t *testing.T) {
	var gotBody map[string]any
	router := mux.NewRouter()
	router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"token": "v1-jwt",
			"user": map[string]any{
				"_id": "u-1", "email": "a@b.c", "userType": "organization",
				"role": "member", "organizationId": "org-1",
			},
		})
	}).Methods(http.MethodPost)
	router.HandleFunc("/auth/refresh-permissions", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"organizationId": "org-1",
			"userRole":       "admin",
			"userType":       "organization",
			"computedPermissions": map[string]any{
				"isAdmin": true,
			},
			"subscriptionInfo": map[string]any{"hasValidSubscription": true},
		})
	}).Methods(http.MethodPost)

	f := newFixture(t, router, false)
	require.True(t, f.store.Login(context.Background(), "a@b.c", "pw").OK)

	require.NoError(t, f.store.RefreshPermissions(context.Background(), ""))

	assert.Equal(t, map[string]any{"organizationId": "org-1"}, gotBody)
	assert.True(t, f.store.Flags().IsAdmin)
	assert.Equal(t, rbac.RoleAdmin, f.store.UserContext().UserRole)
}

func TestSessionRestoresFromDisk(t *testing.T) {
	handler := v1LoginHandler(t, map[string]any{
		"_id":            "u-1",
		"email":          "a@b.c",
		"userType":       "organization",
		"role":           "org_owner",
		"organizationId": "org-1",
		"subscriptionInfo": map[string]any{
			"hasValidSubscription": true,
			"subscriptionTier":     "pro",
		},
	})
	dir := t.TempDir()
	f := newFixtureWithDir(t, handler, false, dir)
	require.True(t, f.store.Login(context.Background(), "a@b.c", "pw").OK)
	require.NoError(t, f.files.Close())

	reborn := newFixtureWithDir(t, handler, false, dir)

	assert.Equal(t, StateAuthenticated, reborn.store.State())
	require.NotNil(t, reborn.store.User())
	assert.Equal(t, "u-1", reborn.store.User().ID)
	assert.Equal(t, "org-1", reborn.store.OrganizationID())
	assert.True(t, reborn.store.Flags().CanManageOrganization)
}

func TestForcedLogoutClearsSessionLocally(t *testing.T) {
	firstLogin := true
	router := mux.NewRouter()
	router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if firstLogin {
			firstLogin = false
			json.NewEncoder(w).Encode(map[string]any{
				"token": "v1-jwt",
				"user":  map[string]any{"_id": "u-1", "email": "a@b.c", "userType": "individual"},
			})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}).Methods(http.MethodPost)
	router.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	f := newFixture(t, router, false)
	require.True(t, f.store.Login(context.Background(), "a@b.c", "pw").OK)

	err := f.client.Do(context.Background(), transport.Request{
		Method:  http.MethodGet,
		Path:    "/posts",
		Version: transport.VersionV1,
	}, nil)

	assert.ErrorIs(t, err, transport.ErrSessionExpired)
	assert.Equal(t, StateAnonymous, f.store.State())
	assert.Empty(t, f.tokens.V1Token())
	assert.Nil(t, f.store.User())
}

func TestUserContextComposesOrganizationRole(t *testing.T) {
	handler := v1LoginHandler(t, map[string]any{
		"_id":            "u-1",
		"email":          "a@b.c",
		"userType":       "organization",
		"role":           "member",
		"organizationId": "org-1",
		"subscriptionInfo": map[string]any{
			"hasValidSubscription": true,
			"subscriptionTier":     "creator",
		},
	})
	f := newFixture(t, handler, false)
	require.True(t, f.store.Login(context.Background(), "a@b.c", "pw").OK)

	f.store.SetOrganizationRoleProvider(func() rbac.Role { return rbac.RoleAdmin })

	uc := f.store.UserContext()
	assert.Equal(t, rbac.RoleMember, uc.UserRole)
	assert.Equal(t, rbac.RoleAdmin, uc.OrganizationRole)
	assert.Equal(t, rbac.TierCreator, uc.SubscriptionTier)
	assert.True(t, uc.HasValidSubscription)
}
