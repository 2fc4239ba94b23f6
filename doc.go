// Package goGate provides a cookie-based session gate: short-lived access
// credentials, device-scoped refresh credentials recorded in Redis, and a
// transparent refresh-and-rotate exchange when the access credential expires.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goGate is the public surface. It exposes [Engine], [Builder], [Config], and value types
// ([Principal], [Identity], [TokenPair], [MetricsSnapshot]). Flow orchestration and audit
// dispatch live under internal/. HTTP wiring (the gate middleware, login-success, reissue
// and logout handlers) lives in the middleware package.
//
// # What this package must NOT do
//
//   - Expose Redis clients or key layout in its public API.
//   - Retry store operations or hide store failures behind authentication errors.
//   - Import any sub-package that re-imports goGate (no import cycles).
//
// # Performance contract
//
// Authenticate is the hot path. It performs no store round-trip. Reissue performs at most
// three (EXISTS, GET, and SET or the compare-and-swap script); CompleteLogin and Logout
// perform one.
package goGate
