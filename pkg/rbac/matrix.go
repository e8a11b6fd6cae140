package rbac

import "fmt"

// rolePermissions is the hand-authored matrix. Every enumerated role must
// have an entry; PermissionsOf treats a missing entry as an error rather than
// an empty set.
var rolePermissions = map[Role][]Permission{
	RoleOrgOwner:   AllPermissions(),
	RoleSuperAdmin: AllPermissions(),

	RoleAdmin: {
		PermOrganizationView, PermOrganizationManage, PermOrganizationSettings,
		PermMembersView, PermMembersInvite, PermMembersRemove, PermMembersManageRoles,
		PermTeamsView, PermTeamsCreate, PermTeamsEdit, PermTeamsDelete, PermTeamsManageMembers,
		PermSocialView, PermSocialConnect, PermSocialDisconnect, PermSocialManage,
		PermContentView, PermContentCreate, PermContentEdit, PermContentDelete, PermContentSchedule, PermContentPublish,
		PermCollectionsView, PermCollectionsCreate, PermCollectionsEdit, PermCollectionsDelete,
		PermAnalyticsView, PermAnalyticsExport,
		PermBillingView,
	},

	RoleMember: {
		PermOrganizationView,
		PermMembersView,
		PermTeamsView,
		PermSocialView, PermSocialConnect,
		PermContentView, PermContentCreate, PermContentEdit, PermContentSchedule, PermContentPublish,
		PermCollectionsView, PermCollectionsCreate, PermCollectionsEdit,
		PermAnalyticsView,
	},

	RoleUser: {
		PermOrganizationView,
		PermMembersView,
		PermTeamsView,
		PermSocialView,
		PermContentView, PermContentCreate, PermContentEdit, PermContentSchedule,
		PermCollectionsView, PermCollectionsCreate,
		PermAnalyticsView,
	},

	RoleViewer: {
		PermOrganizationView,
		PermMembersView,
		PermTeamsView,
		PermSocialView,
		PermContentView,
		PermCollectionsView,
		PermAnalyticsView,
	},
}

// roleRank orders roles for management decisions. user and member are peers.
var roleRank = map[Role]int{
	RoleViewer:     1,
	RoleMember:     2,
	RoleUser:       2,
	RoleAdmin:      3,
	RoleOrgOwner:   4,
	RoleSuperAdmin: 5,
}

// PermissionsOf returns the permission set for a role. The matrix is total
// over the enumeration; an unmapped role is an error, never a silent empty
// set.
func PermissionsOf(role Role) ([]Permission, error) {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil, fmt.Errorf("rbac: no permission entry for role %q", role)
	}
	return perms, nil
}

// RankOf returns the numeric hierarchy rank of a role
func RankOf(role Role) (int, error) {
	rank, ok := roleRank[role]
	if !ok {
		return 0, fmt.Errorf("rbac: no hierarchy rank for role %q", role)
	}
	return rank, nil
}

// CanManageRole reports whether manager outranks target. Strict greater-than:
// a role never manages a peer of equal rank, including itself. Unknown roles
// fail loudly on either side.
func CanManageRole(manager, target Role) (bool, error) {
	managerRank, err := RankOf(manager)
	if err != nil {
		return false, err
	}
	targetRank, err := RankOf(target)
	if err != nil {
		return false, err
	}
	return managerRank > targetRank, nil
}

// tierRank is the fixed subscription-tier order. Tiers missing from this
// table (team, trial, anything unrecognized) rank as free.
var tierRank = map[SubscriptionTier]int{
	TierFree:       1,
	TierCreator:    2,
	TierPro:        3,
	TierEnterprise: 4,
}

// TierRank returns the rank of a tier, and whether the tier was found in the
// rank table. Callers gate features with the rank; the found flag exists so
// unranked tiers can be surfaced to metrics.
func TierRank(tier SubscriptionTier) (int, bool) {
	if rank, ok := tierRank[tier]; ok {
		return rank, true
	}
	return tierRank[TierFree], false
}
