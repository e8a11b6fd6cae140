package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func orgContext(role Role) UserContext {
	return UserContext{
		UserType:             UserTypeOrganization,
		UserRole:             role,
		HasValidSubscription: true,
		SubscriptionTier:     TierPro,
	}
}

func TestHasPermission(t *testing.T) {
	checker := NewChecker(nil, nil)

	tests := []struct {
		name string
		ctx  UserContext
		perm Permission
		want bool
	}{
		{
			name: "individual bypasses the matrix",
			ctx:  UserContext{UserType: UserTypeIndividual},
			perm: PermOrganizationDelete,
			want: true,
		},
		{
			name: "org user without role is denied",
			ctx:  UserContext{UserType: UserTypeOrganization},
			perm: PermOrganizationView,
			want: false,
		},
		{
			name: "viewer can view the organization",
			ctx:  orgContext(RoleViewer),
			perm: PermOrganizationView,
			want: true,
		},
		{
			name: "viewer cannot manage the organization",
			ctx:  orgContext(RoleViewer),
			perm: PermOrganizationManage,
			want: false,
		},
		{
			name: "unmapped role is denied",
			ctx:  orgContext(Role("ghost")),
			perm: PermOrganizationView,
			want: false,
		},
		{
			name: "owner holds billing manage",
			ctx:  orgContext(RoleOrgOwner),
			perm: PermBillingManage,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.HasPermission(tt.ctx, tt.perm))
		})
	}
}

func TestHasAnyAndAllPermissions(t *testing.T) {
	checker := NewChecker(nil, nil)
	member := orgContext(RoleMember)

	assert.True(t, checker.HasAnyPermission(member, PermOrganizationDelete, PermContentCreate))
	assert.False(t, checker.HasAnyPermission(member, PermOrganizationDelete, PermBillingManage))
	assert.True(t, checker.HasAllPermissions(member, PermContentView, PermContentCreate))
	assert.False(t, checker.HasAllPermissions(member, PermContentView, PermOrganizationDelete))
}

func TestHasSubscriptionAccess(t *testing.T) {
	checker := NewChecker(nil, nil)

	tests := []struct {
		name     string
		ctx      UserContext
		required SubscriptionTier
		want     bool
	}{
		{
			name:     "invalid subscription denies regardless of tier",
			ctx:      UserContext{SubscriptionTier: TierEnterprise},
			required: TierFree,
			want:     false,
		},
		{
			name:     "no required tier only needs validity",
			ctx:      UserContext{HasValidSubscription: true},
			required: "",
			want:     true,
		},
		{
			name:     "creator does not reach pro",
			ctx:      UserContext{HasValidSubscription: true, SubscriptionTier: TierCreator},
			required: TierPro,
			want:     false,
		},
		{
			name:     "pro reaches creator",
			ctx:      UserContext{HasValidSubscription: true, SubscriptionTier: TierPro},
			required: TierCreator,
			want:     true,
		},
		{
			name:     "equal tier suffices",
			ctx:      UserContext{HasValidSubscription: true, SubscriptionTier: TierCreator},
			required: TierCreator,
			want:     true,
		},
		{
			name:     "empty user tier defaults to free",
			ctx:      UserContext{HasValidSubscription: true},
			required: TierCreator,
			want:     false,
		},
		{
			name:     "unranked team tier compares as free",
			ctx:      UserContext{HasValidSubscription: true, SubscriptionTier: TierTeam},
			required: TierCreator,
			want:     false,
		},
		{
			name:     "unranked trial tier still passes a free requirement",
			ctx:      UserContext{HasValidSubscription: true, SubscriptionTier: TierTrial},
			required: TierFree,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.HasSubscriptionAccess(tt.ctx, tt.required))
		})
	}
}

func TestCanAccessFeature(t *testing.T) {
	checker := NewChecker(nil, nil)

	tests := []struct {
		name string
		ctx  UserContext
		spec FeatureSpec
		want bool
	}{
		{
			name: "tier gate blocks before permissions",
			ctx:  orgContext(RoleOrgOwner),
			spec: FeatureSpec{RequiredTier: TierEnterprise, Permission: PermOrganizationView},
			want: false,
		},
		{
			name: "single permission",
			ctx:  orgContext(RoleMember),
			spec: FeatureSpec{Permission: PermContentCreate},
			want: true,
		},
		{
			name: "any-of list",
			ctx:  orgContext(RoleViewer),
			spec: FeatureSpec{Permissions: []Permission{PermOrganizationDelete, PermContentView}},
			want: true,
		},
		{
			name: "all-of list",
			ctx:  orgContext(RoleViewer),
			spec: FeatureSpec{Permissions: []Permission{PermOrganizationDelete, PermContentView}, RequireAll: true},
			want: false,
		},
		{
			name: "no permission reduces to subscription validity",
			ctx:  UserContext{UserType: UserTypeOrganization, UserRole: RoleViewer, HasValidSubscription: true},
			spec: FeatureSpec{},
			want: true,
		},
		{
			name: "no permission and no subscription denies",
			ctx:  UserContext{UserType: UserTypeOrganization, UserRole: RoleOrgOwner},
			spec: FeatureSpec{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.CanAccessFeature(tt.ctx, tt.spec))
		})
	}
}

func TestCanAccessNavigation(t *testing.T) {
	checker := NewChecker(nil, nil)

	item := NavItem{
		FeatureSpec: FeatureSpec{Permission: PermOrganizationView},
		UserTypes:   []UserType{UserTypeOrganization},
		Roles:       []Role{RoleOrgOwner, RoleAdmin},
	}

	assert.True(t, checker.CanAccessNavigation(orgContext(RoleAdmin), item))
	assert.False(t, checker.CanAccessNavigation(orgContext(RoleMember), item), "role allow-list denies member")
	assert.False(t, checker.CanAccessNavigation(UserContext{
		UserType:             UserTypeIndividual,
		HasValidSubscription: true,
	}, item), "type allow-list denies individual before the bypass applies")

	open := NavItem{FeatureSpec: FeatureSpec{Permission: PermContentView}}
	assert.True(t, checker.CanAccessNavigation(orgContext(RoleViewer), open))
}

func TestComputeDerivedFlags(t *testing.T) {
	tests := []struct {
		name     string
		userType UserType
		role     Role
		validSub bool
		want     DerivedFlags
	}{
		{
			name:     "org owner",
			userType: UserTypeOrganization,
			role:     RoleOrgOwner,
			validSub: true,
			want: DerivedFlags{
				IsAdmin:                  true,
				CanManageOrganization:    true,
				CanManageBilling:         true,
				CanConnectSocialAccounts: true,
				CanCreateTeams:           true,
			},
		},
		{
			name:     "org admin manages nothing owner-only",
			userType: UserTypeOrganization,
			role:     RoleAdmin,
			validSub: true,
			want: DerivedFlags{
				IsAdmin:                  true,
				CanConnectSocialAccounts: true,
				CanCreateTeams:           true,
			},
		},
		{
			name:     "individual with subscription",
			userType: UserTypeIndividual,
			role:     "",
			validSub: true,
			want: DerivedFlags{
				CanManageBilling:         true,
				CanConnectSocialAccounts: true,
			},
		},
		{
			name:     "individual without subscription keeps billing only",
			userType: UserTypeIndividual,
			role:     "",
			validSub: false,
			want: DerivedFlags{
				CanManageBilling: true,
			},
		},
		{
			name:     "org member without subscription",
			userType: UserTypeOrganization,
			role:     RoleMember,
			validSub: false,
			want:     DerivedFlags{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeDerivedFlags(tt.userType, tt.role, tt.validSub))
		})
	}
}
