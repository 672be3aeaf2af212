// Package utils bundles shared infrastructure for the orgmigrate CLI:
// the Viper-backed configuration loader and the zap logger factory.
package utils
