// Package protocol defines the wire format spoken between a provider and the
// bb-auth daemon: newline-delimited UTF-8 JSON objects, one message per line,
// each carrying a "type" discriminator.
//
// Outbound messages are typed structs encoded with "type" first. Inbound lines
// are kept raw and read lazily, so a provider that ignores daemon traffic never
// pays for parsing it.
package protocol
