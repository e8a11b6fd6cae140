// Package transport is the dual-version HTTP client under every Skedlii API
// call. It routes each request to the legacy v1 or current v2 backend,
// attaches bearer credentials outside a fixed allow-list of auth endpoints,
// injects organization context on v2 calls, normalizes v2 error payloads, and
// owns the 401 recovery contract: one shared refresh-and-retry for v2
// sessions, then forced logout with a one-shot session-expired notification.
//
// Ordering guarantees are deliberately minimal. Independent in-flight
// requests race with last-writer-wins semantics; the only ordered path is
// 401 recovery, where the refresh completes before the original request is
// retried and concurrent 401s share a single refresh via singleflight.
package transport
