// Package preflight provides readiness checks for the provider's environment:
// the loaded configuration, the daemon socket, and the instance lock.
//
// The CLI "bbprovider check" command runs RunAll and renders the results. The
// provider itself does not call these checks; a connect failure at startup is
// reported directly.
package preflight
