package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Ngote-Technologies/skedlii-go/pkg/api"
	"github.com/Ngote-Technologies/skedlii-go/pkg/credentials"
	"github.com/Ngote-Technologies/skedlii-go/pkg/events"
	"github.com/Ngote-Technologies/skedlii-go/pkg/rbac"
	"github.com/Ngote-Technologies/skedlii-go/pkg/transport"
)

// State is the lifecycle phase of the session
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateRefreshing     State = "refreshing"
)

// LoginResult is the structured outcome of a login or registration attempt.
// Failures carry a user-presentable message instead of a raw error so callers
// never have to parse transport errors themselves.
type LoginResult struct {
	OK         bool
	StatusCode int
	Message    string
}

// persistedAuth is the subset of session state written to disk. Tokens are
// deliberately excluded; the token store owns those under separate keys.
type persistedAuth struct {
	User         api.User                 `json:"user"`
	Role         rbac.Role                `json:"userRole,omitempty"`
	Type         rbac.UserType            `json:"userType,omitempty"`
	OrgID        string                   `json:"organizationId,omitempty"`
	Computed     *api.ComputedPermissions `json:"computedPermissions,omitempty"`
	Subscription *api.SubscriptionInfo    `json:"subscriptionInfo,omitempty"`
	ServerTrust  bool                     `json:"serverTrust"`
}

type persistedTeams struct {
	Teams []api.Team `json:"teams"`
}

// Store holds the authenticated user and everything derived from them
type Store struct {
	mu sync.RWMutex

	state        State
	user         *api.User
	role         rbac.Role
	userType     rbac.UserType
	orgID        string
	teams        []api.Team
	computed     rbac.DerivedFlags
	permissions  []rbac.Permission
	subscription api.SubscriptionInfo
	serverTrust  bool

	auth    *api.AuthService
	client  *transport.Client
	tokens  *credentials.TokenStore
	files   *credentials.FileStore
	bus     *events.Bus
	log     *logrus.Logger
	orgRole func() rbac.Role
}

// NewStore builds a session store, restores any persisted session from disk,
// and registers itself as the transport's forced-logout hook. The hook only
// clears local state; it never calls the backend, which keeps an expired
// session from triggering further unauthorized requests.
func NewStore(auth *api.AuthService, client *transport.Client, tokens *credentials.TokenStore, files *credentials.FileStore, bus *events.Bus, log *logrus.Logger) *Store {
	s := &Store{
		state:  StateAnonymous,
		auth:   auth,
		client: client,
		tokens: tokens,
		files:  files,
		bus:    bus,
		log:    log,
	}
	s.restore()
	client.SetForcedLogout(s.clearLocal)
	return s
}

// SetOrganizationRoleProvider lets the organization store contribute the role
// the user holds in the active organization without a package cycle
func (s *Store) SetOrganizationRoleProvider(provider func() rbac.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgRole = provider
}

// State returns the current lifecycle phase
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the authenticated user, or nil
func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Teams returns the user's teams
func (s *Store) Teams() []api.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Team, len(s.teams))
	copy(out, s.teams)
	return out
}

// Flags returns the current derived permission flags
func (s *Store) Flags() rbac.DerivedFlags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.computed
}

// Subscription returns the current subscription state
func (s *Store) Subscription() api.SubscriptionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscription
}

// OrganizationID returns the active organization recorded at login
func (s *Store) OrganizationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orgID
}

// UserContext assembles the access-control view of the current session for
// the rbac checker
func (s *Store) UserContext() rbac.UserContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uc := rbac.UserContext{
		UserType:             s.userType,
		UserRole:             s.role,
		HasValidSubscription: s.subscription.HasValidSubscription,
		SubscriptionTier:     s.subscription.Tier,
	}
	if s.orgRole != nil {
		uc.OrganizationRole = s.orgRole()
	}
	return uc
}

// Login authenticates and establishes the session. The result is structured:
// a failed attempt reports the backend's message and status, and leaves the
// store anonymous.
func (s *Store) Login(ctx context.Context, email, password string) LoginResult {
	s.setState(StateAuthenticating)

	sess, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.setState(StateAnonymous)
		s.log.WithField("email", email).WithError(err).Warn("login failed")
		return LoginResult{
			StatusCode: transport.StatusFromError(err),
			Message:    transport.MessageFromError(err),
		}
	}
	if err := s.establish(sess); err != nil {
		s.setState(StateAnonymous)
		return LoginResult{Message: transport.MessageFromError(err)}
	}
	return LoginResult{OK: true}
}

// Register creates an account and establishes the session exactly as Login
// does
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) LoginResult {
	s.setState(StateAuthenticating)

	sess, err := s.auth.Register(ctx, req)
	if err != nil {
		s.setState(StateAnonymous)
		s.log.WithField("email", req.Email).WithError(err).Warn("registration failed")
		return LoginResult{
			StatusCode: transport.StatusFromError(err),
			Message:    transport.MessageFromError(err),
		}
	}
	if err := s.establish(sess); err != nil {
		s.setState(StateAnonymous)
		return LoginResult{Message: transport.MessageFromError(err)}
	}
	return LoginResult{OK: true}
}

// establish persists tokens, applies the session state, and announces the
// authentication. Permission state follows the server when present and the
// local role matrix otherwise.
func (s *Store) establish(sess *api.Session) error {
	if sess.Version == transport.VersionV2 {
		if err := s.tokens.SetV2Pair(sess.AccessToken, sess.RefreshToken); err != nil {
			return err
		}
	} else {
		if err := s.tokens.SetV1Token(sess.Token); err != nil {
			return err
		}
	}

	// A fresh login always re-arms session-expiry notification.
	s.client.ResetSessionExpiredLatch()

	s.mu.Lock()
	s.state = StateAuthenticated
	user := sess.User
	s.user = &user
	s.role = sess.Role
	s.userType = sess.Type
	s.orgID = sess.OrganizationID
	s.teams = sess.Teams
	s.applyPermissionStateLocked(sess.Computed, sess.Subscription)
	s.persistLocked()
	s.mu.Unlock()

	s.bus.Emit(events.TopicSessionAuthenticated, sess.User.ID)
	return nil
}

func (s *Store) applyPermissionStateLocked(computed *api.ComputedPermissions, sub *api.SubscriptionInfo) {
	s.serverTrust = computed != nil && sub != nil
	if s.serverTrust {
		s.computed = computed.DerivedFlags
		s.permissions = computed.Permissions
		s.subscription = *sub
		return
	}
	// Legacy responses omit the computed block; derive the flags from the
	// role matrix and assume the subscription is whatever was last known.
	if sub != nil {
		s.subscription = *sub
	}
	s.computed = rbac.ComputeDerivedFlags(s.userType, s.role, s.subscription.HasValidSubscription)
	s.permissions = nil
}

// FetchUserData refreshes the user profile from the backend. Without a stored
// token it does nothing: an anonymous client has no user to fetch.
func (s *Store) FetchUserData(ctx context.Context) error {
	if s.tokens.V1Token() == "" && !s.tokens.HasV2Pair() {
		return nil
	}

	me, err := s.auth.Me(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	user := me.User
	s.user = &user
	s.role = me.Role
	s.userType = me.Type
	if me.OrganizationID != "" {
		s.orgID = me.OrganizationID
	}
	if me.Teams != nil {
		s.teams = me.Teams
	}
	s.applyPermissionStateLocked(me.Computed, me.Subscription)
	s.persistLocked()
	s.mu.Unlock()
	return nil
}

// RefreshPermissions refetches authorization state and overwrites the local
// copy unconditionally; unlike login there is no fallback path here. An empty
// organizationID scopes the refresh to the session's current organization.
func (s *Store) RefreshPermissions(ctx context.Context, organizationID string) error {
	s.setState(StateRefreshing)

	if organizationID == "" {
		s.mu.RLock()
		organizationID = s.orgID
		s.mu.RUnlock()
	}
	refreshed, err := s.auth.RefreshPermissions(ctx, organizationID)
	if err != nil {
		s.setState(StateAuthenticated)
		return err
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.role = refreshed.Role
	s.userType = refreshed.Type
	if refreshed.OrganizationID != "" {
		s.orgID = refreshed.OrganizationID
	}
	s.serverTrust = true
	s.computed = refreshed.Computed.DerivedFlags
	s.permissions = refreshed.Computed.Permissions
	s.subscription = refreshed.Subscription
	s.persistLocked()
	s.mu.Unlock()
	return nil
}

// UpdateSubscriptionInfo applies a subscription change reported out-of-band.
// Derived flags are always rederived from the new subscription and the
// existing role and type; server-computed flags predate the change and a
// lapsed subscription must not keep granting through them.
func (s *Store) UpdateSubscriptionInfo(sub api.SubscriptionInfo) {
	s.mu.Lock()
	s.subscription = sub
	s.computed = rbac.ComputeDerivedFlags(s.userType, s.role, sub.HasValidSubscription)
	s.persistLocked()
	s.mu.Unlock()

	s.bus.Emit(events.TopicSubscriptionUpdated, sub)
}

// Logout ends the session. The server call is best-effort: local state is
// cleared whether or not it succeeds, and calling Logout on an already-clear
// session is a no-op beyond the cleared event.
func (s *Store) Logout(ctx context.Context) {
	if s.tokens.V1Token() != "" || s.tokens.HasV2Pair() {
		if err := s.auth.Logout(ctx); err != nil {
			s.log.WithError(err).Debug("server logout failed, clearing local session anyway")
		}
	}
	s.clearLocal()
}

// clearLocal wipes tokens, persisted state, and in-memory session fields. It
// doubles as the transport's forced-logout hook and therefore must never make
// an API call.
func (s *Store) clearLocal() {
	s.files.ClearAll()

	s.mu.Lock()
	s.state = StateAnonymous
	s.user = nil
	s.role = ""
	s.userType = ""
	s.orgID = ""
	s.teams = nil
	s.computed = rbac.DerivedFlags{}
	s.permissions = nil
	s.subscription = api.SubscriptionInfo{}
	s.serverTrust = false
	s.mu.Unlock()

	s.bus.Emit(events.TopicSessionCleared, nil)
}

// Reset clears in-memory state without touching disk. Intended for tests.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAnonymous
	s.user = nil
	s.role = ""
	s.userType = ""
	s.orgID = ""
	s.teams = nil
	s.computed = rbac.DerivedFlags{}
	s.permissions = nil
	s.subscription = api.SubscriptionInfo{}
	s.serverTrust = false
}

func (s *Store) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Store) persistLocked() {
	auth := persistedAuth{
		Role:         s.role,
		Type:         s.userType,
		OrgID:        s.orgID,
		Subscription: &s.subscription,
		ServerTrust:  s.serverTrust,
	}
	if s.user != nil {
		auth.User = *s.user
	}
	if s.serverTrust {
		auth.Computed = &api.ComputedPermissions{
			DerivedFlags: s.computed,
			Permissions:  s.permissions,
		}
	}
	if err := s.files.SetJSON(credentials.KeyAuthStorage, auth); err != nil {
		s.log.WithError(err).Warn("failed to persist session state")
	}
	if err := s.files.SetJSON(credentials.KeyTeamStorage, persistedTeams{Teams: s.teams}); err != nil {
		s.log.WithError(err).Warn("failed to persist team state")
	}
}

// restore loads persisted session state. A stored user without any stored
// token is stale; it is ignored and the next ClearAll removes it.
func (s *Store) restore() {
	var auth persistedAuth
	found, err := s.files.GetJSON(credentials.KeyAuthStorage, &auth)
	if err != nil {
		s.log.WithError(err).Warn("failed to restore session state")
		return
	}
	if !found || auth.User.ID == "" {
		return
	}
	if s.tokens.V1Token() == "" && !s.tokens.HasV2Pair() {
		s.log.Debug("persisted session has no tokens, staying anonymous")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	user := auth.User
	s.user = &user
	s.role = auth.Role
	s.userType = auth.Type
	s.orgID = auth.OrgID
	if auth.Subscription != nil {
		s.subscription = *auth.Subscription
	}
	s.applyPermissionStateLocked(auth.Computed, auth.Subscription)

	var teams persistedTeams
	if found, err := s.files.GetJSON(credentials.KeyTeamStorage, &teams); err == nil && found {
		s.teams = teams.Teams
	}
}
