package lfs

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/execshell"
	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	lfsCommandUseConstant                 = "lfs"
	lfsCommandShortDescriptionConstant    = "Migrate Git-LFS objects"
	lfsCommandLongDescriptionConstant     = "lfs mirror-clones each repository from the source organization and pushes its LFS objects to the matching destination repository."
	lfsUnexpectedArgumentsMessageConstant = "migrate lfs does not accept positional arguments"
	lfsExecutionErrorTemplateConstant     = "migrate lfs failed: %w"
	lfsTargetsProviderMissingMsgConstant  = "lfs command requires a targets provider"
	repositoriesFlagNameConstant          = "repos"
	repositoriesFlagDescriptionConstant   = "Repositories to migrate (default: every source repository)"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current LFS configuration.
type ConfigurationProvider func() Configuration

// TargetsProvider resolves the source and target clients for a command run.
type TargetsProvider func(command *cobra.Command) (migration.Targets, error)

// ErrTargetsProviderMissing indicates the builder was assembled without a targets provider.
var ErrTargetsProviderMissing = errors.New(lfsTargetsProviderMissingMsgConstant)

// CommandBuilder assembles the LFS migration command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	TargetsProvider       TargetsProvider
	CommandRunner         execshell.CommandRunner
}

// Build constructs the lfs command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	if builder.TargetsProvider == nil {
		return nil, ErrTargetsProviderMissing
	}

	lfsCommand := &cobra.Command{
		Use:   lfsCommandUseConstant,
		Short: lfsCommandShortDescriptionConstant,
		Long:  lfsCommandLongDescriptionConstant,
		RunE:  builder.runLFS,
	}

	lfsCommand.Flags().StringSlice(repositoriesFlagNameConstant, nil, repositoriesFlagDescriptionConstant)

	return lfsCommand, nil
}

func (builder *CommandBuilder) runLFS(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(lfsUnexpectedArgumentsMessageConstant)
	}

	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	repositoryNames, repositoriesFlagError := command.Flags().GetStringSlice(repositoriesFlagNameConstant)
	if repositoriesFlagError != nil {
		return repositoriesFlagError
	}
	if len(repositoryNames) == 0 {
		repositoryNames = configuration.Repositories
	}

	targets, targetsError := builder.TargetsProvider(command)
	if targetsError != nil {
		return targetsError
	}
	if validationError := targets.Validate(); validationError != nil {
		return validationError
	}

	commandRunner := builder.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner)
	if executorError != nil {
		return executorError
	}

	migrationService, serviceError := NewService(ServiceDependencies{
		Logger:          logger,
		Source:          NewRESTSourceReader(targets.Source),
		Target:          NewRESTTargetProber(targets.Target),
		GitExecutor:     shellExecutor,
		SourceRemoteURL: NewRemoteURLBuilder(targets.Source),
		TargetRemoteURL: NewRemoteURLBuilder(targets.Target),
		Repositories:    repositoryNames,
		DryRun:          targets.DryRun,
	})
	if serviceError != nil {
		return serviceError
	}

	report, executionError := migrationService.Execute(command.Context())
	if executionError != nil {
		return fmt.Errorf(lfsExecutionErrorTemplateConstant, executionError)
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
