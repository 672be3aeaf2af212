package migrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/execshell"
	"github.com/orgmigrate/orgmigrate/internal/githubapi"
	"github.com/orgmigrate/orgmigrate/internal/lfs"
	"github.com/orgmigrate/orgmigrate/internal/migration"
	"github.com/orgmigrate/orgmigrate/internal/packages"
	"github.com/orgmigrate/orgmigrate/internal/secrets"
	"github.com/orgmigrate/orgmigrate/internal/teams"
	"github.com/orgmigrate/orgmigrate/internal/variables"
)

const (
	migrateCommandUseConstant              = "migrate"
	migrateCommandShortDescription         = "Migrate organization assets between instances"
	migrateCommandLongDescription          = "migrate copies teams, variables, secrets, packages, and Git-LFS objects from a source organization to a target organization."
	sourceOrganizationFlagNameConstant     = "source-org"
	sourceOrganizationFlagDescription      = "Source organization name"
	targetOrganizationFlagNameConstant     = "target-org"
	targetOrganizationFlagDescription      = "Target organization name"
	dryRunFlagNameConstant                 = "dry-run"
	dryRunFlagDescriptionConstant          = "Preview the migration without mutating the target (default true)"
	missingSourceOrganizationMessage       = "source organization must be configured via --source-org or configuration"
	missingTargetOrganizationMessage       = "target organization must be configured via --target-org or configuration"
	missingSourceTokenMessageConstant      = "source token source must be configured"
	missingTargetTokenMessageConstant      = "target token source must be configured"
	sourceTokenResolveErrorTemplate        = "unable to resolve source token: %w"
	targetTokenResolveErrorTemplate        = "unable to resolve target token: %w"
	sourceClientBuildErrorTemplateConstant = "unable to build source client: %w"
	targetClientBuildErrorTemplateConstant = "unable to build target client: %w"
	subcommandBuildErrorTemplateConstant   = "unable to build migrate %s command: %w"
	teamsSubcommandNameConstant            = "teams"
	variablesSubcommandNameConstant        = "variables"
	secretsSubcommandNameConstant          = "secrets"
	packagesSubcommandNameConstant         = "packages"
	lfsSubcommandNameConstant              = "lfs"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current migrate group configuration.
type ConfigurationProvider func() Configuration

// GroupBuilder assembles the migrate command group with its subcommands.
type GroupBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	TokenResolver         *migration.TokenResolver
	CommandRunner         execshell.CommandRunner
}

// Build constructs the migrate command with every resource subcommand.
func (builder *GroupBuilder) Build() (*cobra.Command, error) {
	migrateCommand := &cobra.Command{
		Use:   migrateCommandUseConstant,
		Short: migrateCommandShortDescription,
		Long:  migrateCommandLongDescription,
	}

	migrateCommand.PersistentFlags().String(sourceOrganizationFlagNameConstant, "", sourceOrganizationFlagDescription)
	migrateCommand.PersistentFlags().String(targetOrganizationFlagNameConstant, "", targetOrganizationFlagDescription)
	migrateCommand.PersistentFlags().Bool(dryRunFlagNameConstant, true, dryRunFlagDescriptionConstant)

	targetsProvider := builder.resolveTargets

	teamsBuilder := teams.CommandBuilder{
		LoggerProvider:        teams.LoggerProvider(builder.resolveLoggerProvider()),
		ConfigurationProvider: func() teams.Configuration { return builder.resolveConfiguration().Teams },
		TargetsProvider:       targetsProvider,
	}
	teamsCommand, teamsBuildError := teamsBuilder.Build()
	if teamsBuildError != nil {
		return nil, fmt.Errorf(subcommandBuildErrorTemplateConstant, teamsSubcommandNameConstant, teamsBuildError)
	}
	migrateCommand.AddCommand(teamsCommand)

	variablesBuilder := variables.CommandBuilder{
		LoggerProvider:  variables.LoggerProvider(builder.resolveLoggerProvider()),
		TargetsProvider: targetsProvider,
	}
	variablesCommand, variablesBuildError := variablesBuilder.Build()
	if variablesBuildError != nil {
		return nil, fmt.Errorf(subcommandBuildErrorTemplateConstant, variablesSubcommandNameConstant, variablesBuildError)
	}
	migrateCommand.AddCommand(variablesCommand)

	secretsBuilder := secrets.CommandBuilder{
		LoggerProvider:        secrets.LoggerProvider(builder.resolveLoggerProvider()),
		ConfigurationProvider: func() secrets.Configuration { return builder.resolveConfiguration().Secrets },
		TargetsProvider:       targetsProvider,
	}
	secretsCommand, secretsBuildError := secretsBuilder.Build()
	if secretsBuildError != nil {
		return nil, fmt.Errorf(subcommandBuildErrorTemplateConstant, secretsSubcommandNameConstant, secretsBuildError)
	}
	migrateCommand.AddCommand(secretsCommand)

	packagesBuilder := packages.CommandBuilder{
		LoggerProvider:        packages.LoggerProvider(builder.resolveLoggerProvider()),
		ConfigurationProvider: func() packages.Configuration { return builder.resolveConfiguration().Packages },
		TargetsProvider:       targetsProvider,
		CommandRunner:         builder.CommandRunner,
	}
	packagesCommand, packagesBuildError := packagesBuilder.Build()
	if packagesBuildError != nil {
		return nil, fmt.Errorf(subcommandBuildErrorTemplateConstant, packagesSubcommandNameConstant, packagesBuildError)
	}
	migrateCommand.AddCommand(packagesCommand)

	lfsBuilder := lfs.CommandBuilder{
		LoggerProvider:        lfs.LoggerProvider(builder.resolveLoggerProvider()),
		ConfigurationProvider: func() lfs.Configuration { return builder.resolveConfiguration().LFS },
		TargetsProvider:       targetsProvider,
		CommandRunner:         builder.CommandRunner,
	}
	lfsCommand, lfsBuildError := lfsBuilder.Build()
	if lfsBuildError != nil {
		return nil, fmt.Errorf(subcommandBuildErrorTemplateConstant, lfsSubcommandNameConstant, lfsBuildError)
	}
	migrateCommand.AddCommand(lfsCommand)

	return migrateCommand, nil
}

// resolveTargets builds authenticated source and target clients from flags
// and configuration. Missing organizations or tokens fail before any API call.
func (builder *GroupBuilder) resolveTargets(command *cobra.Command) (migration.Targets, error) {
	configuration := builder.resolveConfiguration()
	logger := builder.resolveLoggerProvider()()

	sourceOrganization, sourceFlagError := command.Flags().GetString(sourceOrganizationFlagNameConstant)
	if sourceFlagError != nil {
		return migration.Targets{}, sourceFlagError
	}
	if len(strings.TrimSpace(sourceOrganization)) == 0 {
		sourceOrganization = configuration.Source.Organization
	}
	if len(strings.TrimSpace(sourceOrganization)) == 0 {
		return migration.Targets{}, errors.New(missingSourceOrganizationMessage)
	}

	targetOrganization, targetFlagError := command.Flags().GetString(targetOrganizationFlagNameConstant)
	if targetFlagError != nil {
		return migration.Targets{}, targetFlagError
	}
	if len(strings.TrimSpace(targetOrganization)) == 0 {
		targetOrganization = configuration.Target.Organization
	}
	if len(strings.TrimSpace(targetOrganization)) == 0 {
		return migration.Targets{}, errors.New(missingTargetOrganizationMessage)
	}

	dryRun, dryRunFlagError := command.Flags().GetBool(dryRunFlagNameConstant)
	if dryRunFlagError != nil {
		return migration.Targets{}, dryRunFlagError
	}
	if !command.Flags().Changed(dryRunFlagNameConstant) {
		dryRun = configuration.DryRun
	}

	tokenResolver := builder.TokenResolver
	if tokenResolver == nil {
		tokenResolver = migration.NewTokenResolver(nil, nil)
	}

	sourceToken, sourceTokenError := resolveEndpointToken(tokenResolver, configuration.Source.TokenSource, missingSourceTokenMessageConstant, sourceTokenResolveErrorTemplate)
	if sourceTokenError != nil {
		return migration.Targets{}, sourceTokenError
	}

	targetToken, targetTokenError := resolveEndpointToken(tokenResolver, configuration.Target.TokenSource, missingTargetTokenMessageConstant, targetTokenResolveErrorTemplate)
	if targetTokenError != nil {
		return migration.Targets{}, targetTokenError
	}

	sourceClient, sourceClientError := githubapi.NewClient(logger, githubapi.EndpointConfiguration{
		Organization: sourceOrganization,
		Host:         configuration.Source.Host,
		Token:        sourceToken,
		ProxyURL:     configuration.Source.ProxyURL,
	})
	if sourceClientError != nil {
		return migration.Targets{}, fmt.Errorf(sourceClientBuildErrorTemplateConstant, sourceClientError)
	}

	targetClient, targetClientError := githubapi.NewClient(logger, githubapi.EndpointConfiguration{
		Organization: targetOrganization,
		Host:         configuration.Target.Host,
		Token:        targetToken,
		ProxyURL:     configuration.Target.ProxyURL,
	})
	if targetClientError != nil {
		return migration.Targets{}, fmt.Errorf(targetClientBuildErrorTemplateConstant, targetClientError)
	}

	return migration.Targets{Source: sourceClient, Target: targetClient, DryRun: dryRun}, nil
}

func resolveEndpointToken(tokenResolver *migration.TokenResolver, tokenSourceValue string, missingMessage string, resolveErrorTemplate string) (string, error) {
	if len(strings.TrimSpace(tokenSourceValue)) == 0 {
		return "", errors.New(missingMessage)
	}

	tokenSource, parseError := migration.ParseTokenSource(tokenSourceValue)
	if parseError != nil {
		return "", fmt.Errorf(resolveErrorTemplate, parseError)
	}

	tokenValue, resolveError := tokenResolver.ResolveToken(tokenSource)
	if resolveError != nil {
		return "", fmt.Errorf(resolveErrorTemplate, resolveError)
	}

	return tokenValue, nil
}

func (builder *GroupBuilder) resolveLoggerProvider() func() *zap.Logger {
	return func() *zap.Logger {
		if builder.LoggerProvider == nil {
			return zap.NewNop()
		}
		resolvedLogger := builder.LoggerProvider()
		if resolvedLogger == nil {
			return zap.NewNop()
		}
		return resolvedLogger
	}
}

func (builder *GroupBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return Configuration{}
	}
	return builder.ConfigurationProvider()
}
