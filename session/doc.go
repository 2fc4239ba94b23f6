// Package session provides the Redis-backed store that holds the current
// refresh credential for each (user, device) pair.
//
// # Record layout
//
// Each record lives at "<prefix>:<userID>:<device>" and its value is the
// refresh credential exactly as it was handed to the client. The Redis TTL is
// the credential lifetime. Writes overwrite; there is at most one live record
// per key.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Key] model. It does
// NOT interpret credentials, classify devices, or decide whether a presented
// credential is acceptable. Those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goGate, jwt, or device (no upward imports).
//   - Retry failed Redis calls.
//   - Log or otherwise copy stored values outside Redis.
package session
