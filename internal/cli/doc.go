// Package cli wires together the Cobra command tree for the patchguard binary.
//
// It defines the root command and all subcommands (scan, github, prs,
// dashboard, rules, config, cache, hook, version), binds flags, reads
// configuration, runs the analysis engine, and returns deterministic exit
// codes for CI gating.
package cli
