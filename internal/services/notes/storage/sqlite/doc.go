// Package sqlite provides SQLite-backed notekeep persistence.
//
// One database file holds users and notes. Ownership checks, uniqueness, and
// conditional writes are each a single statement, so no transaction spans a
// request.
package sqlite
