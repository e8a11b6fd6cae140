// Package api provides typed bindings for the Skedlii backend endpoints over
// the dual-version transport.
//
// The two backend generations return differently shaped auth payloads (the
// legacy v1 bundle with a single token and Mongo-style ids, the v2 shape with
// an access/refresh pair and server-computed permissions). Both are decoded
// behind a per-version adapter into one internal domain model, so the
// legacy-compatibility logic lives at this boundary and nowhere else. A
// session decoded without server-computed permissions marks the legacy
// fallback path; the adapter logs and counts every such hit so the branch's
// remaining usage can be retired.
package api
