// Package middleware exposes the HTTP surface of a goGate.Engine: the
// authentication gate, the login-success, reissue and logout handlers, and
// the JSON error responder.
//
// # Gate
//
// [Gate] lets allow-listed requests through untouched. Every other request
// must carry a valid access cookie. An expired access credential triggers
// Engine.Reissue; on success the downstream handler receives a
// [RequestOverride] clone of the request carrying the new credentials and the
// principal in its context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; every decision is delegated to the
// Engine.
//
// # What this package must NOT do
//
//   - Parse or create credentials directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Mutate the incoming *http.Request in place.
package middleware
