// Package cli wires the orgmigrate root command: configuration loading,
// structured logging, and the migrate command group.
package cli
