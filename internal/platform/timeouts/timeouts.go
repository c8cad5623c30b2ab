// Package timeouts defines shared timeout constants used by notekeep
// servers.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Read limits how long an HTTP server spends reading a whole request.
const Read = 15 * time.Second

// Write limits how long an HTTP server spends writing a response.
const Write = 15 * time.Second

// Idle limits how long keep-alive connections stay open between requests.
const Idle = 60 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
