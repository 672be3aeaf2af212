package lfs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/execshell"
	"github.com/orgmigrate/orgmigrate/internal/lfs"
	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	testLFSRepositoryNameConstant        = "design-assets"
	testLFSSecondRepositoryNameConstant  = "game-textures"
	testLFSMissingRepositoryNameConst    = "retired-assets"
	testLFSSourceRemoteTemplateConstant  = "https://source.example.com/acme/"
	testLFSTargetRemoteTemplateConstant  = "https://target.example.com/acme-emu/"
	testLFSRemoteSuffixConstant          = ".git"
	testLFSListingFailureMessageConstant = "repository listing failed"
)

type stubLFSSourceReader struct {
	repositoryNames []string
	listingError    error
}

func (reader *stubLFSSourceReader) ListRepositoryNames(requestContext context.Context) ([]string, error) {
	return reader.repositoryNames, reader.listingError
}

type stubLFSTargetProber struct {
	missingRepositories map[string]bool
}

func (prober *stubLFSTargetProber) RepositoryExists(requestContext context.Context, repositoryName string) (bool, error) {
	return !prober.missingRepositories[repositoryName], nil
}

type recordedShellCommand struct {
	commandName      string
	arguments        []string
	workingDirectory string
}

type recordingGitExecutor struct {
	recordedCommands []recordedShellCommand
}

func (executor *recordingGitExecutor) record(commandName string, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, recordedShellCommand{
		commandName:      commandName,
		arguments:        details.Arguments,
		workingDirectory: details.WorkingDirectory,
	})
	return execshell.ExecutionResult{}, nil
}

func (executor *recordingGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return executor.record("git", details)
}

func (executor *recordingGitExecutor) ExecuteGitLFS(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return executor.record("git-lfs", details)
}

func newLFSServiceFixture(testInstance *testing.T, dryRun bool, repositories []string) (*lfs.Service, *recordingGitExecutor) {
	gitExecutor := &recordingGitExecutor{}

	migrationService, creationError := lfs.NewService(lfs.ServiceDependencies{
		Logger: zap.NewNop(),
		Source: &stubLFSSourceReader{repositoryNames: []string{testLFSRepositoryNameConstant, testLFSSecondRepositoryNameConstant}},
		Target: &stubLFSTargetProber{missingRepositories: map[string]bool{testLFSMissingRepositoryNameConst: true}},
		GitExecutor: gitExecutor,
		SourceRemoteURL: func(repositoryName string) string {
			return testLFSSourceRemoteTemplateConstant + repositoryName + testLFSRemoteSuffixConstant
		},
		TargetRemoteURL: func(repositoryName string) string {
			return testLFSTargetRemoteTemplateConstant + repositoryName + testLFSRemoteSuffixConstant
		},
		Repositories:       repositories,
		WorkspaceDirectory: testInstance.TempDir(),
		DryRun:             dryRun,
	})
	require.NoError(testInstance, creationError)

	return migrationService, gitExecutor
}

func TestLFSServiceConstructionValidation(testInstance *testing.T) {
	completeDependencies := lfs.ServiceDependencies{
		Source:          &stubLFSSourceReader{},
		Target:          &stubLFSTargetProber{},
		GitExecutor:     &recordingGitExecutor{},
		SourceRemoteURL: func(repositoryName string) string { return repositoryName },
		TargetRemoteURL: func(repositoryName string) string { return repositoryName },
	}

	testCases := []struct {
		name          string
		mutate        func(dependencies lfs.ServiceDependencies) lfs.ServiceDependencies
		expectedError error
	}{
		{
			name: "missing_source_reader",
			mutate: func(dependencies lfs.ServiceDependencies) lfs.ServiceDependencies {
				dependencies.Source = nil
				return dependencies
			},
			expectedError: lfs.ErrSourceReaderMissing,
		},
		{
			name: "missing_target_prober",
			mutate: func(dependencies lfs.ServiceDependencies) lfs.ServiceDependencies {
				dependencies.Target = nil
				return dependencies
			},
			expectedError: lfs.ErrTargetProberMissing,
		},
		{
			name: "missing_git_executor",
			mutate: func(dependencies lfs.ServiceDependencies) lfs.ServiceDependencies {
				dependencies.GitExecutor = nil
				return dependencies
			},
			expectedError: lfs.ErrGitExecutorMissing,
		},
		{
			name: "missing_remote_builders",
			mutate: func(dependencies lfs.ServiceDependencies) lfs.ServiceDependencies {
				dependencies.TargetRemoteURL = nil
				return dependencies
			},
			expectedError: lfs.ErrRemoteBuildersMissing,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, creationError := lfs.NewService(testCase.mutate(completeDependencies))
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestLFSServiceRunsCloneFetchPushSequence(testInstance *testing.T) {
	migrationService, gitExecutor := newLFSServiceFixture(testInstance, false, []string{testLFSRepositoryNameConstant})

	report, executionError := migrationService.Execute(context.Background())
	require.NoError(testInstance, executionError)
	require.Empty(testInstance, report.Errors)

	require.Len(testInstance, gitExecutor.recordedCommands, 3)

	cloneCommand := gitExecutor.recordedCommands[0]
	require.Equal(testInstance, "git", cloneCommand.commandName)
	require.Equal(testInstance, "clone", cloneCommand.arguments[0])
	require.Equal(testInstance, "--mirror", cloneCommand.arguments[1])
	require.Equal(testInstance, testLFSSourceRemoteTemplateConstant+testLFSRepositoryNameConstant+testLFSRemoteSuffixConstant, cloneCommand.arguments[2])

	fetchCommand := gitExecutor.recordedCommands[1]
	require.Equal(testInstance, "git-lfs", fetchCommand.commandName)
	require.Equal(testInstance, []string{"fetch", "--all"}, fetchCommand.arguments)
	require.Equal(testInstance, cloneCommand.arguments[3], fetchCommand.workingDirectory)

	pushCommand := gitExecutor.recordedCommands[2]
	require.Equal(testInstance, "git-lfs", pushCommand.commandName)
	require.Equal(testInstance, "push", pushCommand.arguments[0])
	require.Equal(testInstance, "--all", pushCommand.arguments[1])
	require.Equal(testInstance, testLFSTargetRemoteTemplateConstant+testLFSRepositoryNameConstant+testLFSRemoteSuffixConstant, pushCommand.arguments[2])

	require.Len(testInstance, report.Items, 1)
	require.Equal(testInstance, migration.ActionPublished, report.Items[0].Action)
}

func TestLFSServiceExplicitListOverridesEnumeration(testInstance *testing.T) {
	migrationService, gitExecutor := newLFSServiceFixture(testInstance, true, []string{testLFSSecondRepositoryNameConstant})

	report, executionError := migrationService.Execute(context.Background())
	require.NoError(testInstance, executionError)

	require.Empty(testInstance, gitExecutor.recordedCommands)
	require.Len(testInstance, report.Items, 1)
	require.Equal(testInstance, testLFSSecondRepositoryNameConstant, report.Items[0].Name)
}

func TestLFSServiceDryRunPlansEveryRepository(testInstance *testing.T) {
	migrationService, gitExecutor := newLFSServiceFixture(testInstance, true, nil)

	report, executionError := migrationService.Execute(context.Background())
	require.NoError(testInstance, executionError)

	require.Empty(testInstance, gitExecutor.recordedCommands)
	require.True(testInstance, report.DryRun)
	require.Len(testInstance, report.Items, 2)
	for _, reportItem := range report.Items {
		require.Equal(testInstance, migration.ActionPlanned, reportItem.Action)
	}
}

func TestLFSServiceRejectsMissingDestinationRepository(testInstance *testing.T) {
	migrationService, gitExecutor := newLFSServiceFixture(testInstance, false, []string{testLFSMissingRepositoryNameConst})

	report, executionError := migrationService.Execute(context.Background())
	require.NoError(testInstance, executionError)

	require.Empty(testInstance, gitExecutor.recordedCommands)
	require.Len(testInstance, report.Errors, 1)
	require.Equal(testInstance, testLFSMissingRepositoryNameConst, report.Errors[0].Name)
}

func TestLFSServiceRecordsListingFailure(testInstance *testing.T) {
	migrationService, creationError := lfs.NewService(lfs.ServiceDependencies{
		Source:          &stubLFSSourceReader{listingError: errors.New(testLFSListingFailureMessageConstant)},
		Target:          &stubLFSTargetProber{},
		GitExecutor:     &recordingGitExecutor{},
		SourceRemoteURL: func(repositoryName string) string { return repositoryName },
		TargetRemoteURL: func(repositoryName string) string { return repositoryName },
	})
	require.NoError(testInstance, creationError)

	report, executionError := migrationService.Execute(context.Background())
	require.NoError(testInstance, executionError)
	require.Len(testInstance, report.Errors, 1)
	require.Empty(testInstance, report.Items)
}
