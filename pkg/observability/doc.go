// Package observability provides the SDK's structured logging setup and
// Prometheus collectors.
//
// Metrics are registered on an explicit registry passed by the caller so
// tests can use fresh registries instead of the process-global default. All
// Metrics methods are nil-receiver safe; components treat metrics as
// optional.
package observability
