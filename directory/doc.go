// Package directory provides [goGate.UserDirectory] implementations: an
// in-memory map for tests and single-process demos, and a PostgreSQL adapter
// over the application's user table.
//
// Both resolve two handles. A provider id (the OAuth2 social id) maps to the
// credential subject (the nickname), and the subject maps to the user id that
// keys session records.
//
// # What this package must NOT do
//
//   - Create, migrate or own the user table.
//   - Close a pool it did not open.
package directory
