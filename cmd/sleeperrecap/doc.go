// Package main hosts the sleeperrecap CLI entrypoint and command graph.
//
// The Cobra command tree runs the weekly recap pipeline, re-audits and exports
// cached weeks offline, manages the default league id, and reads the run
// history ledger. Configuration resolution and logging setup live in the
// command context so subcommands only wire the internal packages together.
package main
