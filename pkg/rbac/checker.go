package rbac

import (
	"github.com/sirupsen/logrus"

	"github.com/Ngote-Technologies/skedlii-go/pkg/observability"
)

// FeatureSpec declares what a feature needs before the UI may offer it: an
// optional subscription tier, and either a single permission, a permission
// list with an all/any flag, or no permission at all.
type FeatureSpec struct {
	RequiredTier SubscriptionTier // empty means no tier requirement
	Permission   Permission       // single permission, empty if unused
	Permissions  []Permission     // permission list, nil if unused
	RequireAll   bool             // conjunction over Permissions instead of disjunction
}

// NavItem extends FeatureSpec with hard allow-lists. A non-empty UserTypes or
// Roles list denies any user whose type/role is not in it before the feature
// gate is consulted.
type NavItem struct {
	FeatureSpec
	UserTypes []UserType
	Roles     []Role
}

// Checker evaluates access decisions over UserContext snapshots. Decision
// methods never return errors: absent or malformed context resolves to deny.
type Checker struct {
	log     *logrus.Logger
	metrics *observability.Metrics
}

// NewChecker creates a checker. A nil logger falls back to a default logrus
// logger; metrics may be nil.
func NewChecker(log *logrus.Logger, metrics *observability.Metrics) *Checker {
	if log == nil {
		log = logrus.New()
	}
	return &Checker{log: log, metrics: metrics}
}

// HasPermission reports whether the context holds a permission. Individual
// users bypass the matrix entirely; organization users without a role are
// denied.
func (c *Checker) HasPermission(ctx UserContext, perm Permission) bool {
	if ctx.UserType == UserTypeIndividual {
		return true
	}
	if ctx.UserRole == "" {
		return false
	}
	perms, err := PermissionsOf(ctx.UserRole)
	if err != nil {
		c.log.WithError(err).WithField("role", ctx.UserRole).Warn("permission check against unmapped role")
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission is a short-circuiting disjunction over HasPermission
func (c *Checker) HasAnyPermission(ctx UserContext, perms ...Permission) bool {
	for _, p := range perms {
		if c.HasPermission(ctx, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions is a short-circuiting conjunction over HasPermission
func (c *Checker) HasAllPermissions(ctx UserContext, perms ...Permission) bool {
	for _, p := range perms {
		if !c.HasPermission(ctx, p) {
			return false
		}
	}
	return true
}

// HasSubscriptionAccess reports whether the context's subscription satisfies
// the required tier. No subscription means no access regardless of tier; an
// empty required tier only demands a valid subscription.
func (c *Checker) HasSubscriptionAccess(ctx UserContext, required SubscriptionTier) bool {
	if !ctx.HasValidSubscription {
		return false
	}
	if required == "" {
		return true
	}
	userTier := ctx.SubscriptionTier
	if userTier == "" {
		userTier = TierFree
	}
	userRank, ranked := TierRank(userTier)
	if !ranked {
		c.log.WithField("tier", userTier).Warn("subscription tier absent from rank table, comparing as free")
		c.metrics.IncUnrankedTier(string(userTier))
	}
	requiredRank, _ := TierRank(required)
	return userRank >= requiredRank
}

// CanAccessFeature evaluates a feature gate. The subscription requirement is
// a hard gate checked first; with no declared permission, access reduces to
// having a valid subscription.
func (c *Checker) CanAccessFeature(ctx UserContext, spec FeatureSpec) bool {
	if spec.RequiredTier != "" && !c.HasSubscriptionAccess(ctx, spec.RequiredTier) {
		return false
	}
	switch {
	case spec.Permission != "":
		return c.HasPermission(ctx, spec.Permission)
	case len(spec.Permissions) > 0:
		if spec.RequireAll {
			return c.HasAllPermissions(ctx, spec.Permissions...)
		}
		return c.HasAnyPermission(ctx, spec.Permissions...)
	default:
		return ctx.HasValidSubscription
	}
}

// CanAccessNavigation evaluates a navigation item: allow-lists first, then
// the feature gate.
func (c *Checker) CanAccessNavigation(ctx UserContext, item NavItem) bool {
	if len(item.UserTypes) > 0 && !containsUserType(item.UserTypes, ctx.UserType) {
		return false
	}
	if len(item.Roles) > 0 && !containsRole(item.Roles, ctx.UserRole) {
		return false
	}
	return c.CanAccessFeature(ctx, item.FeatureSpec)
}

func containsUserType(types []UserType, t UserType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsRole(roles []Role, r Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ComputeDerivedFlags recomputes the coarse permission booleans from role,
// type, and subscription validity. This is the client-side fallback used when
// a legacy backend response omits server-computed permissions, and the local
// recompute path for subscription updates.
func ComputeDerivedFlags(userType UserType, role Role, hasValidSubscription bool) DerivedFlags {
	isOrg := userType == UserTypeOrganization
	roleHas := func(perm Permission) bool {
		perms, err := PermissionsOf(role)
		if err != nil {
			return false
		}
		for _, p := range perms {
			if p == perm {
				return true
			}
		}
		return false
	}

	return DerivedFlags{
		IsAdmin:               isOrg && (role == RoleAdmin || role == RoleOrgOwner || role == RoleSuperAdmin),
		CanManageOrganization: isOrg && role == RoleOrgOwner,
		CanManageBilling:      userType == UserTypeIndividual || (isOrg && role == RoleOrgOwner),
		CanConnectSocialAccounts: hasValidSubscription &&
			(userType == UserTypeIndividual || (isOrg && roleHas(PermSocialConnect))),
		CanCreateTeams: hasValidSubscription && isOrg && roleHas(PermTeamsCreate),
	}
}
