// Package account owns the identity lifecycle: signup, login, and the
// read-only views of registered users.
//
// Inputs are NFC-normalized and validated before any storage access. Stored
// password digests never leave this package through the JSON projection of
// User.
package account
