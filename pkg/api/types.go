package api

import (
	"time"

	"github.com/Ngote-Technologies/skedlii-go/pkg/rbac"
	"github.com/Ngote-Technologies/skedlii-go/pkg/transport"
)

// User is the internal user representation shared across backend versions
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Team is a team the user belongs to within an organization
type Team struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// SubscriptionInfo describes the account's subscription state
type SubscriptionInfo struct {
	HasValidSubscription bool                  `json:"hasValidSubscription"`
	Tier                 rbac.SubscriptionTier `json:"subscriptionTier,omitempty"`
	Status               string                `json:"subscriptionStatus,omitempty"`
	PlanLimits           map[string]int        `json:"planLimits,omitempty"`
}

// ComputedPermissions carries server-computed authorization state: the five
// coarse flags plus the expanded permission list when the backend sends one
type ComputedPermissions struct {
	rbac.DerivedFlags
	Permissions []rbac.Permission `json:"permissions,omitempty"`
}

// Session is the internal result of a successful login or registration,
// independent of which backend produced it. Computed and Subscription are nil
// when a legacy response omitted them; the session store then falls back to
// client-side computation.
type Session struct {
	Version transport.Version `json:"version"`

	// Token is the v1 single token; AccessToken/RefreshToken the v2 pair
	Token        string `json:"token,omitempty"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`

	User           User                  `json:"user"`
	OrganizationID string                `json:"organizationId,omitempty"`
	Teams          []Team                `json:"teams,omitempty"`
	Role           rbac.Role             `json:"userRole,omitempty"`
	Type           rbac.UserType         `json:"userType,omitempty"`
	Computed       *ComputedPermissions  `json:"computedPermissions,omitempty"`
	Subscription   *SubscriptionInfo     `json:"subscriptionInfo,omitempty"`
}

// HasServerComputedPermissions reports whether the server-trust path applies:
// both computed permissions and subscription info must be present
func (s *Session) HasServerComputedPermissions() bool {
	return s.Computed != nil && s.Subscription != nil
}

// OrgMembership is one entry of the v2 "current user" organization list
type OrgMembership struct {
	OrganizationID string    `json:"orgId"`
	Role           rbac.Role `json:"role"`
}

// Me is the internal "current user" representation. v1 fills the bundle
// fields (teams, single organization, computed state); v2 fills Memberships.
type Me struct {
	User           User
	OrganizationID string
	Teams          []Team
	Memberships    []OrgMembership
	Role           rbac.Role
	Type           rbac.UserType
	Computed       *ComputedPermissions
	Subscription   *SubscriptionInfo
}

// PermissionRefresh is the response of the refresh-permissions endpoint.
// Unlike login, there is no fallback: every field overwrites session state
// unconditionally.
type PermissionRefresh struct {
	OrganizationID string              `json:"organizationId"`
	Computed       ComputedPermissions `json:"computedPermissions"`
	Subscription   SubscriptionInfo    `json:"subscriptionInfo"`
	Role           rbac.Role           `json:"userRole"`
	Type           rbac.UserType       `json:"userType"`
}

// SecurityEvent is an entry of the v2 auth event log
type SecurityEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Email            string        `json:"email"`
	Password         string        `json:"password"`
	Name             string        `json:"name"`
	UserType         rbac.UserType `json:"userType"`
	OrganizationName string        `json:"organizationName,omitempty"`
}

// Organization is an organization record as the backend reports it
type Organization struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	OwnerID            string         `json:"ownerId,omitempty"`
	Settings           map[string]any `json:"settings,omitempty"`
	IsActive           bool           `json:"isActive"`
	SubscriptionStatus string         `json:"subscriptionStatus,omitempty"`
}

// OrganizationWithRole is the per-relationship projection returned by the
// user-organizations listing: the organization plus the viewer's role in it
type OrganizationWithRole struct {
	Organization
	Role        rbac.Role `json:"role"`
	JoinedAt    time.Time `json:"joinedAt,omitempty"`
	MemberCount int       `json:"memberCount,omitempty"`
}

// CreateOrganizationRequest is the organization creation payload
type CreateOrganizationRequest struct {
	Name     string         `json:"name"`
	Settings map[string]any `json:"settings,omitempty"`
}

// UpdateOrganizationRequest is the organization update payload; nil fields
// are left unchanged
type UpdateOrganizationRequest struct {
	Name     *string        `json:"name,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// AddMemberRequest is the membership creation payload
type AddMemberRequest struct {
	Email string    `json:"email"`
	Role  rbac.Role `json:"role"`
}

// Invitation is an invitation record
type Invitation struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Email          string    `json:"email"`
	Role           rbac.Role `json:"role"`
	ExpiresAt      time.Time `json:"expiresAt,omitempty"`
}

// CreateInvitationRequest is the invitation creation payload
type CreateInvitationRequest struct {
	OrganizationID string    `json:"organizationId"`
	Email          string    `json:"email"`
	Role           rbac.Role `json:"role"`
}

// InvitationVerification is the result of verifying an invitation token
type InvitationVerification struct {
	Valid            bool   `json:"valid"`
	Email            string `json:"email,omitempty"`
	OrganizationID   string `json:"organizationId,omitempty"`
	OrganizationName string `json:"organizationName,omitempty"`
	RequiresPassword bool   `json:"requiresPassword,omitempty"`
}

// AcceptInvitationResult is the result of accepting an invitation
type AcceptInvitationResult struct {
	OrganizationID string `json:"organizationId"`
	UserID         string `json:"userId"`
}
