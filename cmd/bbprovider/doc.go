// Command bbprovider is a template bb-auth provider. Run without a subcommand it
// registers with the daemon and keeps the registration alive until the daemon
// goes away. The config, check and manifest subcommands help install it.
package main
