package secrets

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	secretsCommandUseConstant                 = "secrets"
	secretsCommandShortDescriptionConstant    = "Migrate Actions secrets"
	secretsCommandLongDescriptionConstant     = "secrets encrypts values from a CSV under the target organization's public keys and creates them, or discovers source secret names during dry-run."
	secretsUnexpectedArgumentsMessageConstant = "migrate secrets does not accept positional arguments"
	secretsExecutionErrorTemplateConstant     = "migrate secrets failed: %w"
	secretsTargetsProviderMissingMsgConstant  = "secrets command requires a targets provider"
	inputFlagNameConstant                     = "input"
	inputFlagDescriptionConstant              = "CSV file with plaintext secret values (type,name,repo,value)"
	discoveryOutputFlagNameConstant           = "discovery-output"
	discoveryOutputFlagDescriptionConstant    = "File receiving the dry-run secret discovery CSV"
	inputFileRequiredMessageConstant          = "migrate secrets requires --input when dry-run is disabled"
	discoveryFileCreateErrorTemplateConstant  = "unable to create discovery output file %s: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current secrets configuration.
type ConfigurationProvider func() Configuration

// TargetsProvider resolves the source and target clients for a command run.
type TargetsProvider func(command *cobra.Command) (migration.Targets, error)

// ErrTargetsProviderMissing indicates the builder was assembled without a targets provider.
var ErrTargetsProviderMissing = errors.New(secretsTargetsProviderMissingMsgConstant)

// CommandBuilder assembles the secrets migration command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	TargetsProvider       TargetsProvider
}

// Build constructs the secrets command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	if builder.TargetsProvider == nil {
		return nil, ErrTargetsProviderMissing
	}

	secretsCommand := &cobra.Command{
		Use:   secretsCommandUseConstant,
		Short: secretsCommandShortDescriptionConstant,
		Long:  secretsCommandLongDescriptionConstant,
		RunE:  builder.runSecrets,
	}

	secretsCommand.Flags().String(inputFlagNameConstant, "", inputFlagDescriptionConstant)
	secretsCommand.Flags().String(discoveryOutputFlagNameConstant, "", discoveryOutputFlagDescriptionConstant)

	return secretsCommand, nil
}

func (builder *CommandBuilder) runSecrets(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(secretsUnexpectedArgumentsMessageConstant)
	}

	configuration := builder.resolveConfiguration()

	inputPath, inputFlagError := command.Flags().GetString(inputFlagNameConstant)
	if inputFlagError != nil {
		return inputFlagError
	}
	inputPath = selectStringValue(inputPath, configuration.InputFile)

	discoveryOutputPath, discoveryFlagError := command.Flags().GetString(discoveryOutputFlagNameConstant)
	if discoveryFlagError != nil {
		return discoveryFlagError
	}
	discoveryOutputPath = selectStringValue(discoveryOutputPath, configuration.DiscoveryOutputFile)

	targets, targetsError := builder.TargetsProvider(command)
	if targetsError != nil {
		return targetsError
	}
	if validationError := targets.Validate(); validationError != nil {
		return validationError
	}

	migrationService, serviceError := NewService(ServiceDependencies{
		Logger: builder.resolveLogger(),
		Source: NewRESTSourceReader(targets.Source),
		Target: NewRESTTargetWriter(targets.Target),
		DryRun: targets.DryRun,
	})
	if serviceError != nil {
		return serviceError
	}

	if targets.DryRun {
		return builder.runDiscovery(command, migrationService, discoveryOutputPath)
	}

	if len(inputPath) == 0 {
		return errors.New(inputFileRequiredMessageConstant)
	}

	inputSecrets, loadError := LoadInputSecretsFile(inputPath)
	if loadError != nil {
		return loadError
	}

	report, executionError := migrationService.ExecuteMigration(command.Context(), inputSecrets)
	if executionError != nil {
		return fmt.Errorf(secretsExecutionErrorTemplateConstant, executionError)
	}

	return report.Emit(command.OutOrStdout())
}

func (builder *CommandBuilder) runDiscovery(command *cobra.Command, migrationService *Service, discoveryOutputPath string) error {
	report, discoveredSecrets, discoveryError := migrationService.ExecuteDiscovery(command.Context())
	if discoveryError != nil {
		return fmt.Errorf(secretsExecutionErrorTemplateConstant, discoveryError)
	}

	if len(discoveryOutputPath) > 0 {
		discoveryFile, createError := os.Create(discoveryOutputPath)
		if createError != nil {
			return fmt.Errorf(discoveryFileCreateErrorTemplateConstant, discoveryOutputPath, createError)
		}
		writeError := WriteDiscoveryCSV(discoveryFile, discoveredSecrets)
		closeError := discoveryFile.Close()
		if writeError != nil {
			return writeError
		}
		if closeError != nil {
			return closeError
		}
	} else if writeError := WriteDiscoveryCSV(command.OutOrStdout(), discoveredSecrets); writeError != nil {
		return writeError
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
