// Package cmd implements the command-line interface for oplock. The root
// command performs one lock acquisition attempt and exits 0 only when the
// lock was obtained; exit code 1 covers a lost race, a connection failure
// and every other fatal error without distinguishing the cause.
//
// The package is organized into:
//
//   - root: The acquisition command itself plus the version subcommand
//   - util: Shared utilities for flag handling and configuration resolution
//     (explicit flag overrides config-file value overrides built-in default)
//
// See oplock -help for all flags.
package cmd
