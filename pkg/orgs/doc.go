// Package orgs tracks the organizations the user belongs to and which one is
// active. The active organization drives the X-Organization-Id request header
// and the role used for organization-scoped permission checks.
package orgs
