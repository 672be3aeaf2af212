package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	gitToolNameConstant                      = "git"
	gitLFSToolNameConstant                   = "git-lfs"
	dockerToolNameConstant                   = "docker"
	npmToolNameConstant                      = "npm"
	loggerNotConfiguredMessageConstant       = "shell executor logger not configured"
	runnerNotConfiguredMessageConstant       = "shell command runner not configured"
	commandFailedMessageTemplateConstant     = "%s command exited with code %d: %s"
	commandExecutionMessageTemplateConstant  = "%s command execution failed: %s"
	commandStartedLogMessageConstant         = "executing external command"
	commandCompletedLogMessageConstant       = "external command completed"
	commandFailedLogMessageConstant          = "external command failed"
	commandLogFieldNameConstant              = "command"
	argumentsLogFieldNameConstant            = "arguments"
	workingDirectoryLogFieldNameConstant     = "working_directory"
	exitCodeLogFieldNameConstant             = "exit_code"
	standardErrorExcerptLogFieldNameConstant = "standard_error"
)

// CommandName identifies a supported external executable.
type CommandName string

// Supported external tool enumerations.
const (
	CommandGit    CommandName = CommandName(gitToolNameConstant)
	CommandGitLFS CommandName = CommandName(gitLFSToolNameConstant)
	CommandDocker CommandName = CommandName(dockerToolNameConstant)
	CommandNpm    CommandName = CommandName(npmToolNameConstant)
)

// CommandDetails describes the invocation parameters for an external tool.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines a CommandName with specific invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner represents the ability to run shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// Sentinel errors for executor construction.
var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failure CommandFailedError) Error() string {
	return fmt.Sprintf(commandFailedMessageTemplateConstant, failure.Command.Name, failure.Result.ExitCode, strings.TrimSpace(failure.Result.StandardError))
}

// CommandExecutionError reports a command that could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionMessageTemplateConstant, failure.Command.Name, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ShellExecutor coordinates external tool execution with lifecycle logging.
type ShellExecutor struct {
	logger *zap.Logger
	runner CommandRunner
}

// NewShellExecutor constructs a ShellExecutor from the provided collaborators.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	return &ShellExecutor{logger: logger, runner: runner}, nil
}

// Execute runs the supplied command and converts non-zero exits into typed failures.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logger.Debug(
		commandStartedLogMessageConstant,
		zap.String(commandLogFieldNameConstant, string(command.Name)),
		zap.Strings(argumentsLogFieldNameConstant, command.Details.Arguments),
		zap.String(workingDirectoryLogFieldNameConstant, command.Details.WorkingDirectory),
	)

	executionResult, executionError := executor.runner.Run(executionContext, command)
	if executionError != nil {
		executor.logger.Error(
			commandFailedLogMessageConstant,
			zap.String(commandLogFieldNameConstant, string(command.Name)),
			zap.Error(executionError),
		)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: executionError}
	}

	if executionResult.ExitCode != 0 {
		executor.logger.Error(
			commandFailedLogMessageConstant,
			zap.String(commandLogFieldNameConstant, string(command.Name)),
			zap.Int(exitCodeLogFieldNameConstant, executionResult.ExitCode),
			zap.String(standardErrorExcerptLogFieldNameConstant, strings.TrimSpace(executionResult.StandardError)),
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(
		commandCompletedLogMessageConstant,
		zap.String(commandLogFieldNameConstant, string(command.Name)),
		zap.Int(exitCodeLogFieldNameConstant, executionResult.ExitCode),
	)

	return executionResult, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteGitLFS runs git-lfs with the provided details.
func (executor *ShellExecutor) ExecuteGitLFS(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGitLFS, Details: details})
}

// ExecuteDocker runs docker with the provided details.
func (executor *ShellExecutor) ExecuteDocker(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandDocker, Details: details})
}

// ExecuteNpm runs npm with the provided details.
func (executor *ShellExecutor) ExecuteNpm(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandNpm, Details: details})
}
