// Package manifest builds the providers.d entry the bb-auth daemon reads to
// discover and launch this provider.
package manifest
