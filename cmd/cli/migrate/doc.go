// Package migrate assembles the migrate command group: one subcommand per
// resource type, sharing source/target organization flags, token resolution,
// and the dry-run default.
package migrate
