package rbac

// Role represents a user's position inside an organization
type Role string

const (
	RoleOrgOwner   Role = "org_owner"
	RoleAdmin      Role = "admin"
	RoleMember     Role = "member"
	RoleUser       Role = "user"
	RoleViewer     Role = "viewer"
	RoleSuperAdmin Role = "super_admin"
)

// Roles returns every enumerated role
func Roles() []Role {
	return []Role{RoleOrgOwner, RoleAdmin, RoleMember, RoleUser, RoleViewer, RoleSuperAdmin}
}

// UserType distinguishes standalone accounts from organization accounts.
// Individual users own their account outright and bypass the role matrix.
type UserType string

const (
	UserTypeIndividual   UserType = "individual"
	UserTypeOrganization UserType = "organization"
)

// Permission is an atomic authorization token checked against a role's
// fixed permission set
type Permission string

const (
	// Organization management
	PermOrganizationView     Permission = "organization:view"
	PermOrganizationManage   Permission = "organization:manage"
	PermOrganizationDelete   Permission = "organization:delete"
	PermOrganizationSettings Permission = "organization:settings"

	// Member management
	PermMembersView        Permission = "members:view"
	PermMembersInvite      Permission = "members:invite"
	PermMembersRemove      Permission = "members:remove"
	PermMembersManageRoles Permission = "members:manage_roles"

	// Team management
	PermTeamsView          Permission = "teams:view"
	PermTeamsCreate        Permission = "teams:create"
	PermTeamsEdit          Permission = "teams:edit"
	PermTeamsDelete        Permission = "teams:delete"
	PermTeamsManageMembers Permission = "teams:manage_members"

	// Social account management
	PermSocialView       Permission = "social_accounts:view"
	PermSocialConnect    Permission = "social_accounts:connect"
	PermSocialDisconnect Permission = "social_accounts:disconnect"
	PermSocialManage     Permission = "social_accounts:manage"

	// Content
	PermContentView     Permission = "content:view"
	PermContentCreate   Permission = "content:create"
	PermContentEdit     Permission = "content:edit"
	PermContentDelete   Permission = "content:delete"
	PermContentSchedule Permission = "content:schedule"
	PermContentPublish  Permission = "content:publish"

	// Collections
	PermCollectionsView   Permission = "collections:view"
	PermCollectionsCreate Permission = "collections:create"
	PermCollectionsEdit   Permission = "collections:edit"
	PermCollectionsDelete Permission = "collections:delete"

	// Analytics
	PermAnalyticsView   Permission = "analytics:view"
	PermAnalyticsExport Permission = "analytics:export"

	// Billing
	PermBillingView   Permission = "billing:view"
	PermBillingManage Permission = "billing:manage"
)

// AllPermissions returns the full permission universe
func AllPermissions() []Permission {
	return []Permission{
		PermOrganizationView, PermOrganizationManage, PermOrganizationDelete, PermOrganizationSettings,
		PermMembersView, PermMembersInvite, PermMembersRemove, PermMembersManageRoles,
		PermTeamsView, PermTeamsCreate, PermTeamsEdit, PermTeamsDelete, PermTeamsManageMembers,
		PermSocialView, PermSocialConnect, PermSocialDisconnect, PermSocialManage,
		PermContentView, PermContentCreate, PermContentEdit, PermContentDelete, PermContentSchedule, PermContentPublish,
		PermCollectionsView, PermCollectionsCreate, PermCollectionsEdit, PermCollectionsDelete,
		PermAnalyticsView, PermAnalyticsExport,
		PermBillingView, PermBillingManage,
	}
}

// SubscriptionTier represents a plan level with a total order used for
// feature gating
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierCreator    SubscriptionTier = "creator"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"

	// TierTeam and TierTrial appear in subscription state coming from the
	// backend but are intentionally absent from the rank table. Where they
	// should sit in the order is an unresolved product question; until it is
	// answered they compare as TierFree and the comparison is counted so the
	// gap stays visible. See DESIGN.md.
	TierTeam  SubscriptionTier = "team"
	TierTrial SubscriptionTier = "trial"
)

// UserContext is the single input to every access-control decision. It is an
// ephemeral snapshot rebuilt from the session and organization stores; it is
// never mutated in place.
type UserContext struct {
	UserType             UserType
	UserRole             Role
	HasValidSubscription bool
	SubscriptionTier     SubscriptionTier
	OrganizationRole     Role
}

// DerivedFlags are the coarse permission booleans persisted alongside the
// session and consumed directly by UI surfaces
type DerivedFlags struct {
	IsAdmin                  bool `json:"isAdmin"`
	CanManageOrganization    bool `json:"canManageOrganization"`
	CanManageBilling         bool `json:"canManageBilling"`
	CanConnectSocialAccounts bool `json:"canConnectSocialAccounts"`
	CanCreateTeams           bool `json:"canCreateTeams"`
}
