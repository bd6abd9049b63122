// Package cli defines the sysmon command tree. The root command starts the
// monitor; the subcommands manage the config file and themes and run
// diagnostics.
package cli
