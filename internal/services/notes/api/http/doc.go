// Package http exposes the notekeep JSON API.
//
// Routes under /api/notes and the user listing routes sit behind the bearer
// token gate. Failures are written as {success:false, message, fieldErrors?}.
package http
