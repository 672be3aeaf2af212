package variables

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	variablesCommandUseConstant                 = "variables"
	variablesCommandShortDescriptionConstant    = "Migrate Actions variables"
	variablesCommandLongDescriptionConstant     = "variables copies organization and repository Actions variables from the source organization to the target organization."
	variablesUnexpectedArgumentsMessageConstant = "migrate variables does not accept positional arguments"
	variablesExecutionErrorTemplateConstant     = "migrate variables failed: %w"
	variablesTargetsProviderMissingMsgConstant  = "variables command requires a targets provider"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// TargetsProvider resolves the source and target clients for a command run.
type TargetsProvider func(command *cobra.Command) (migration.Targets, error)

// ErrTargetsProviderMissing indicates the builder was assembled without a targets provider.
var ErrTargetsProviderMissing = errors.New(variablesTargetsProviderMissingMsgConstant)

// CommandBuilder assembles the variables migration command.
type CommandBuilder struct {
	LoggerProvider  LoggerProvider
	TargetsProvider TargetsProvider
}

// Build constructs the variables command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	if builder.TargetsProvider == nil {
		return nil, ErrTargetsProviderMissing
	}

	variablesCommand := &cobra.Command{
		Use:   variablesCommandUseConstant,
		Short: variablesCommandShortDescriptionConstant,
		Long:  variablesCommandLongDescriptionConstant,
		RunE:  builder.runVariables,
	}

	return variablesCommand, nil
}

func (builder *CommandBuilder) runVariables(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(variablesUnexpectedArgumentsMessageConstant)
	}

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

	report, executionError := migrationService.Execute(command.Context())
	if executionError != nil {
		return fmt.Errorf(variablesExecutionErrorTemplateConstant, executionError)
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
