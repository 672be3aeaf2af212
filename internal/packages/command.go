package packages

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/execshell"
	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	packagesCommandUseConstant                 = "packages"
	packagesCommandShortDescriptionConstant    = "Migrate published packages"
	packagesCommandLongDescriptionConstant     = "packages downloads every version asset of the selected ecosystem from the source organization and republishes it in the target organization."
	packagesUnexpectedArgumentsMessageConstant = "migrate packages does not accept positional arguments"
	packagesExecutionErrorTemplateConstant     = "migrate packages failed: %w"
	packagesTargetsProviderMissingMsgConstant  = "packages command requires a targets provider"
	packageTypeFlagNameConstant                = "package-type"
	packageTypeFlagDescriptionConstant         = "Package ecosystem: npm, container, maven, nuget, or rubygems"
	concurrencyFlagNameConstant                = "concurrency"
	concurrencyFlagDescriptionConstant         = "Simultaneous asset downloads per batch"
	stagingDirectoryFlagNameConstant           = "staging-dir"
	stagingDirectoryFlagDescriptionConstant    = "Local directory for downloaded package assets"
	packageTypeParseErrorTemplateConstant      = "invalid package type: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current packages configuration.
type ConfigurationProvider func() Configuration

// TargetsProvider resolves the source and target clients for a command run.
type TargetsProvider func(command *cobra.Command) (migration.Targets, error)

// ErrTargetsProviderMissing indicates the builder was assembled without a targets provider.
var ErrTargetsProviderMissing = errors.New(packagesTargetsProviderMissingMsgConstant)

// CommandBuilder assembles the packages migration command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	TargetsProvider       TargetsProvider
	CommandRunner         execshell.CommandRunner
}

// Build constructs the packages command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	if builder.TargetsProvider == nil {
		return nil, ErrTargetsProviderMissing
	}

	packagesCommand := &cobra.Command{
		Use:   packagesCommandUseConstant,
		Short: packagesCommandShortDescriptionConstant,
		Long:  packagesCommandLongDescriptionConstant,
		RunE:  builder.runPackages,
	}

	packagesCommand.Flags().String(packageTypeFlagNameConstant, "", packageTypeFlagDescriptionConstant)
	packagesCommand.Flags().Int(concurrencyFlagNameConstant, 0, concurrencyFlagDescriptionConstant)
	packagesCommand.Flags().String(stagingDirectoryFlagNameConstant, "", stagingDirectoryFlagDescriptionConstant)

	return packagesCommand, nil
}

func (builder *CommandBuilder) runPackages(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(packagesUnexpectedArgumentsMessageConstant)
	}

	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	packageTypeValue, packageTypeFlagError := command.Flags().GetString(packageTypeFlagNameConstant)
	if packageTypeFlagError != nil {
		return packageTypeFlagError
	}
	packageTypeValue = selectStringValue(packageTypeValue, configuration.Type)

	ecosystemName, parseError := ParseEcosystemName(packageTypeValue)
	if parseError != nil {
		return fmt.Errorf(packageTypeParseErrorTemplateConstant, parseError)
	}

	concurrencyValue, concurrencyFlagError := command.Flags().GetInt(concurrencyFlagNameConstant)
	if concurrencyFlagError != nil {
		return concurrencyFlagError
	}
	if concurrencyValue < 1 {
		concurrencyValue = configuration.Concurrency
	}
	if concurrencyValue < 1 {
		concurrencyValue = DefaultConcurrency
	}

	stagingDirectoryValue, stagingFlagError := command.Flags().GetString(stagingDirectoryFlagNameConstant)
	if stagingFlagError != nil {
		return stagingFlagError
	}
	stagingDirectoryValue = selectStringValue(stagingDirectoryValue, configuration.StagingDirectory)

	targets, targetsError := builder.TargetsProvider(command)
	if targetsError != nil {
		return targetsError
	}
	if validationError := targets.Validate(); validationError != nil {
		return validationError
	}

	stagingArea := NewStagingArea(stagingDirectoryValue)
	selectedEcosystem, ecosystemError := builder.buildEcosystem(ecosystemName, targets, stagingArea, logger)
	if ecosystemError != nil {
		return ecosystemError
	}

	migrationService, serviceError := NewService(ServiceDependencies{
		Logger:          logger,
		SourceInventory: NewRESTInventory(targets.Source),
		TargetInventory: NewRESTInventory(targets.Target),
		Ecosystem:       selectedEcosystem,
		Engine:          NewEngine(logger, concurrencyValue),
		Staging:         stagingAreaForEcosystem(ecosystemName, stagingArea),
		DryRun:          targets.DryRun,
	})
	if serviceError != nil {
		return serviceError
	}

	report, executionError := migrationService.Execute(command.Context())
	if executionError != nil {
		return fmt.Errorf(packagesExecutionErrorTemplateConstant, executionError)
	}

	return report.Emit(command.OutOrStdout())
}

func (builder *CommandBuilder) buildEcosystem(ecosystemName EcosystemName, targets migration.Targets, stagingArea *StagingArea, logger *zap.Logger) (Ecosystem, error) {
	switch ecosystemName {
	case EcosystemMaven:
		return NewMavenEcosystem(targets.Source, targets.Target, stagingArea), nil
	case EcosystemNpm:
		shellExecutor, executorError := builder.buildShellExecutor(logger)
		if executorError != nil {
			return nil, executorError
		}
		return NewNpmEcosystem(targets.Source, targets.Target, stagingArea, shellExecutor), nil
	case EcosystemContainer:
		shellExecutor, executorError := builder.buildShellExecutor(logger)
		if executorError != nil {
			return nil, executorError
		}
		return NewContainerEcosystem(targets.Source, targets.Target, shellExecutor), nil
	}
	return nil, UnsupportedEcosystemError{Name: ecosystemName}
}

func (builder *CommandBuilder) buildShellExecutor(logger *zap.Logger) (*execshell.ShellExecutor, error) {
	commandRunner := builder.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}
	return execshell.NewShellExecutor(logger, commandRunner)
}

// stagingAreaForEcosystem withholds staging from ecosystems that stage
// out-of-band so the driver never resets a directory nobody uses.
func stagingAreaForEcosystem(ecosystemName EcosystemName, stagingArea *StagingArea) *StagingArea {
	if ecosystemName == EcosystemContainer {
		return nil
	}
	return stagingArea
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
