// Package session owns the authenticated-user lifecycle: login and
// registration, credential persistence, permission state, and logout. The
// Store trusts server-computed permissions when the backend sends them and
// derives them locally from the role matrix when it does not, and keeps both
// paths indistinguishable to callers.
package session
