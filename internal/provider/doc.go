// Package provider runs one bb-auth provider session: it connects to the
// daemon socket, registers and subscribes, then sends heartbeats on a fixed
// cadence while draining inbound lines into a Handler until the peer hangs up
// or the connection fails.
//
// The session loop is single goroutine. The only blocking call is a read
// bounded by a deadline, so cancellation is observed within one read timeout.
package provider
