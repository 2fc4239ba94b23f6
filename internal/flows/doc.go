// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunValidate, RunReissue, RunLogin, RunLogout) accepts a
// typed dependency struct and returns a result carrying a failure kind. The
// root package maps failure kinds to its exported sentinel errors, metrics and
// audit events. Flows know nothing about HTTP: cookies and headers are read
// and written by the Engine.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the credential codec, the session store
// and the user directory. They do NOT own any of these resources; ownership
// stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goGate (to avoid import cycles).
//   - Retry store calls or write to the store after a failed check.
package flows
