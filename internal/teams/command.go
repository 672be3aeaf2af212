package teams

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/identity"
	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	teamsCommandUseConstant                  = "teams"
	teamsCommandShortDescriptionConstant     = "Migrate organization teams"
	teamsCommandLongDescriptionConstant      = "teams recreates the source organization's team hierarchy, memberships, and repository permissions in the target organization."
	teamsUnexpectedArgumentsMessageConstant  = "migrate teams does not accept positional arguments"
	teamsExecutionErrorTemplateConstant      = "migrate teams failed: %w"
	userMappingsFlagNameConstant             = "user-mappings"
	userMappingsFlagDescriptionConstant      = "CSV file mapping source usernames to target usernames"
	idpGroupMappingsFlagNameConstant         = "idp-group-mappings"
	idpGroupMappingsFlagDescriptionConstant  = "CSV file mapping team slugs to identity provider groups"
	teamsTargetsProviderMissingMsgConstant   = "teams command requires a targets provider"
	userMappingsLoadedDebugMessageConstant   = "user mappings loaded"
	idpMappingsLoadedDebugMessageConstant    = "identity provider group mappings loaded"
	mappingCountLogFieldNameConstant         = "mappings"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current teams configuration.
type ConfigurationProvider func() Configuration

// TargetsProvider resolves the source and target clients for a command run.
type TargetsProvider func(command *cobra.Command) (migration.Targets, error)

// ErrTargetsProviderMissing indicates the builder was assembled without a targets provider.
var ErrTargetsProviderMissing = errors.New(teamsTargetsProviderMissingMsgConstant)

// CommandBuilder assembles the teams migration command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	TargetsProvider       TargetsProvider
}

// Build constructs the teams command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	if builder.TargetsProvider == nil {
		return nil, ErrTargetsProviderMissing
	}

	teamsCommand := &cobra.Command{
		Use:   teamsCommandUseConstant,
		Short: teamsCommandShortDescriptionConstant,
		Long:  teamsCommandLongDescriptionConstant,
		RunE:  builder.runTeams,
	}

	teamsCommand.Flags().String(userMappingsFlagNameConstant, "", userMappingsFlagDescriptionConstant)
	teamsCommand.Flags().String(idpGroupMappingsFlagNameConstant, "", idpGroupMappingsFlagDescriptionConstant)

	return teamsCommand, nil
}

func (builder *CommandBuilder) runTeams(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(teamsUnexpectedArgumentsMessageConstant)
	}

	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	userMappingsPath, userMappingsFlagError := command.Flags().GetString(userMappingsFlagNameConstant)
	if userMappingsFlagError != nil {
		return userMappingsFlagError
	}
	userMappingsPath = selectStringValue(userMappingsPath, configuration.UserMappingsFile)

	idpMappingsPath, idpMappingsFlagError := command.Flags().GetString(idpGroupMappingsFlagNameConstant)
	if idpMappingsFlagError != nil {
		return idpMappingsFlagError
	}
	idpMappingsPath = selectStringValue(idpMappingsPath, configuration.IdPGroupMappingsFile)

	userMappings := identity.NewUserMappingTable()
	if len(userMappingsPath) > 0 {
		loadedMappings, mappingLoadError := identity.LoadUserMappingsFile(userMappingsPath)
		if mappingLoadError != nil {
			return mappingLoadError
		}
		userMappings = loadedMappings
		logger.Debug(userMappingsLoadedDebugMessageConstant, zap.Int(mappingCountLogFieldNameConstant, userMappings.Size()))
	}

	idpGroups := map[string]IdPGroup{}
	if len(idpMappingsPath) > 0 {
		loadedGroups, groupLoadError := LoadIdPGroupMappingsFile(idpMappingsPath)
		if groupLoadError != nil {
			return groupLoadError
		}
		idpGroups = loadedGroups
		logger.Debug(idpMappingsLoadedDebugMessageConstant, zap.Int(mappingCountLogFieldNameConstant, len(idpGroups)))
	}

	targets, targetsError := builder.TargetsProvider(command)
	if targetsError != nil {
		return targetsError
	}
	if validationError := targets.Validate(); validationError != nil {
		return validationError
	}

	migrationService, serviceError := NewService(ServiceDependencies{
		Logger:       logger,
		Source:       NewRESTSourceReader(targets.Source),
		Target:       NewRESTTargetWriter(targets.Target),
		UserMappings: userMappings,
		IdPGroups:    idpGroups,
		DryRun:       targets.DryRun,
	})
	if serviceError != nil {
		return serviceError
	}

	report, executionError := migrationService.Execute(command.Context())
	if executionError != nil {
		return fmt.Errorf(teamsExecutionErrorTemplateConstant, executionError)
	}

	return report.Emit(command.OutOrStdout())
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	resolvedLogger := builder.LoggerProvider()
	if resolvedLogger == nil {
		return zap.NewNop()
	}
	return resolvedLogger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return Configuration{}
	}
	return builder.ConfigurationProvider()
}

func selectStringValue(flagValue string, configurationValue string) string {
	if len(flagValue) > 0 {
		return flagValue
	}
	return configurationValue
}
