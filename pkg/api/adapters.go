package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ngote-Technologies/skedlii-go/pkg/observability"
	"github.com/Ngote-Technologies/skedlii-go/pkg/rbac"
	"github.com/Ngote-Technologies/skedlii-go/pkg/transport"
	"github.com/sirupsen/logrus"
)

// v1 user objects carry mongo-style identifiers and bundle org, team, and
// permission state directly on the user document.
type v1User struct {
	ID             string                `json:"_id"`
	Email          string                `json:"email"`
	Name           string                `json:"name"`
	UserType       rbac.UserType         `json:"userType"`
	Role           rbac.Role             `json:"role"`
	OrganizationID string                `json:"organizationId"`
	Organization   *v1Organization       `json:"organization"`
	Teams          []v1Team              `json:"teams"`
	Computed       *ComputedPermissions  `json:"computedPermissions"`
	Subscription   *SubscriptionInfo     `json:"subscriptionInfo"`
	CreatedAt      time.Time             `json:"createdAt"`
}

type v1Organization struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type v1Team struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	OrganizationID string `json:"organizationId"`
}

type v1AuthResponse struct {
	Token string `json:"token"`
	User  v1User `json:"user"`
}

type v2User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type v2AuthResponse struct {
	AccessToken    string               `json:"accessToken"`
	RefreshToken   string               `json:"refreshToken"`
	User           v2User               `json:"user"`
	OrganizationID string               `json:"organizationId"`
	Role           rbac.Role            `json:"userRole"`
	Type           rbac.UserType        `json:"userType"`
	Computed       *ComputedPermissions `json:"computedPermissions"`
	Subscription   *SubscriptionInfo    `json:"subscriptionInfo"`
}

type v2MeResponse struct {
	User          v2User          `json:"user"`
	Organizations []OrgMembership `json:"organizations"`
	Role          rbac.Role       `json:"userRole"`
	Type          rbac.UserType   `json:"userType"`
}

// adapter decodes version-specific wire payloads into the internal model and
// records every legacy response that forces the client-side permission
// fallback.
type adapter struct {
	log     *logrus.Logger
	metrics *observability.Metrics
}

func (a adapter) decodeSession(version transport.Version, raw json.RawMessage) (*Session, error) {
	switch version {
	case transport.VersionV1:
		var resp v1AuthResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("api: decode v1 auth response: %w", err)
		}
		sess := &Session{
			Version:        transport.VersionV1,
			Token:          resp.Token,
			User:           userFromV1(resp.User),
			OrganizationID: resp.User.OrganizationID,
			Teams:          teamsFromV1(resp.User.Teams),
			Role:           resp.User.Role,
			Type:           resp.User.UserType,
			Computed:       resp.User.Computed,
			Subscription:   resp.User.Subscription,
		}
		if sess.OrganizationID == "" && resp.User.Organization != nil {
			sess.OrganizationID = resp.User.Organization.ID
		}
		a.noteFallback(sess)
		return sess, nil
	case transport.VersionV2:
		var resp v2AuthResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("api: decode v2 auth response: %w", err)
		}
		sess := &Session{
			Version:        transport.VersionV2,
			AccessToken:    resp.AccessToken,
			RefreshToken:   resp.RefreshToken,
			User:           userFromV2(resp.User),
			OrganizationID: resp.OrganizationID,
			Role:           resp.Role,
			Type:           resp.Type,
			Computed:       resp.Computed,
			Subscription:   resp.Subscription,
		}
		a.noteFallback(sess)
		return sess, nil
	default:
		return nil, fmt.Errorf("api: unknown version %q", version)
	}
}

func (a adapter) decodeMe(version transport.Version, raw json.RawMessage) (*Me, error) {
	switch version {
	case transport.VersionV1:
		var user v1User
		if err := json.Unmarshal(raw, &user); err != nil {
			return nil, fmt.Errorf("api: decode v1 user: %w", err)
		}
		me := &Me{
			User:           userFromV1(user),
			OrganizationID: user.OrganizationID,
			Teams:          teamsFromV1(user.Teams),
			Role:           user.Role,
			Type:           user.UserType,
			Computed:       user.Computed,
			Subscription:   user.Subscription,
		}
		if me.OrganizationID == "" && user.Organization != nil {
			me.OrganizationID = user.Organization.ID
		}
		return me, nil
	case transport.VersionV2:
		var resp v2MeResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("api: decode v2 user: %w", err)
		}
		me := &Me{
			User:        userFromV2(resp.User),
			Memberships: resp.Organizations,
			Role:        resp.Role,
			Type:        resp.Type,
		}
		if len(resp.Organizations) > 0 {
			me.OrganizationID = resp.Organizations[0].OrganizationID
		}
		return me, nil
	default:
		return nil, fmt.Errorf("api: unknown version %q", version)
	}
}

func (a adapter) noteFallback(sess *Session) {
	if sess.HasServerComputedPermissions() {
		return
	}
	if a.log != nil {
		a.log.WithFields(logrus.Fields{
			"version": string(sess.Version),
			"user_id": sess.User.ID,
		}).Info("auth response missing computed permissions, using client-side derivation")
	}
	a.metrics.IncPermissionFallback()
}

func userFromV1(u v1User) User {
	return User{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func userFromV2(u v2User) User {
	return User{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func teamsFromV1(teams []v1Team) []Team {
	if len(teams) == 0 {
		return nil
	}
	out := make([]Team, 0, len(teams))
	for _, t := range teams {
		out = append(out, Team{ID: t.ID, Name: t.Name, OrganizationID: t.OrganizationID})
	}
	return out
}
