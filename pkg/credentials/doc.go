// Package credentials persists tokens and store snapshots to the state
// directory, one JSON document per key. It is the SDK's stand-in for browser
// localStorage: a page reload becomes a process restart, and externally
// rotated tokens (another CLI invocation refreshing the session) are picked
// up through an fsnotify watch on the directory.
//
// The v2 access and refresh tokens are a unit: they are written together and
// cleared together. A v2 session holding only one half of the pair cannot
// recover from access-token expiry, so the API never allows that state to be
// persisted.
package credentials
