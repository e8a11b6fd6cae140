// Package cli implements the skedlii command-line client: login and logout,
// session inspection, organization management, and invitations. Commands
// share one App wiring the transport, token storage, and stores together,
// with state persisted under the configured state directory between runs.
package cli
