// Package rbac implements the Skedlii role and permission model.
//
// The model is a static, exhaustively hand-authored matrix from Role to a set
// of Permissions, composed with an independent subscription-tier gate. All
// access decisions are made over a UserContext snapshot rebuilt from the
// session and organization stores on every check; nothing in this package
// performs I/O.
//
// Lookup functions (PermissionsOf, CanManageRole, RankOf) are total over the
// enumerated roles and fail loudly on anything else: an unmapped role is a
// programming error, not an empty permission set. Decision functions on
// Checker never fail; missing context resolves to deny.
package rbac
