package migrate

import (
	"github.com/orgmigrate/orgmigrate/internal/lfs"
	"github.com/orgmigrate/orgmigrate/internal/migration"
	"github.com/orgmigrate/orgmigrate/internal/packages"
	"github.com/orgmigrate/orgmigrate/internal/secrets"
	"github.com/orgmigrate/orgmigrate/internal/teams"
)

const (
	dryRunConfigKeyConstant           = ".dry_run"
	packagesConcurrencyConfigKeyConst = ".packages.concurrency"
	packagesStagingConfigKeyConstant  = ".packages.staging_directory"
)

// Configuration captures the persisted migrate command group settings.
type Configuration struct {
	Source   migration.EndpointSettings `mapstructure:"source"`
	Target   migration.EndpointSettings `mapstructure:"target"`
	DryRun   bool                       `mapstructure:"dry_run"`
	Packages packages.Configuration     `mapstructure:"packages"`
	Teams    teams.Configuration        `mapstructure:"teams"`
	Secrets  secrets.Configuration      `mapstructure:"secrets"`
	LFS      lfs.Configuration          `mapstructure:"lfs"`
}

// DefaultConfigurationValues returns viper defaults for the migrate group.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + dryRunConfigKeyConstant:           true,
		configurationKeyPrefix + packagesConcurrencyConfigKeyConst: packages.DefaultConcurrency,
		configurationKeyPrefix + packagesStagingConfigKeyConstant:  packages.DefaultStagingDirectory,
	}
}
