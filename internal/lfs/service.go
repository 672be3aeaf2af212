package lfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/execshell"
	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	lfsResourceNameConstant               = "lfs"
	lfsSourceMissingMessageConstant       = "lfs source reader not configured"
	lfsTargetMissingMessageConstant       = "lfs target prober not configured"
	lfsExecutorMissingMessageConstant     = "lfs git executor not configured"
	lfsRemoteBuilderMissingMsgConstant    = "lfs remote url builders not configured"
	lfsRepositoryListingFailedName        = "repository-listing"
	missingDestinationRepoTemplate        = "destination repository %s does not exist"
	mirrorDirectorySuffixConstant         = ".git"
	defaultWorkspaceDirectoryConstant     = "lfs-mirrors"
	mirrorCleanupWarnMessageConstant      = "unable to remove local mirror"
	mirrorPathLogFieldNameConstant        = "path"
	repositoryLogFieldNameConstant        = "repository"
	plannedPushDetailConstant             = "mirror clone, fetch and push lfs objects"
	objectsPushedDetailConstant           = "lfs objects pushed"
	gitCloneArgumentConstant              = "clone"
	gitMirrorFlagConstant                 = "--mirror"
	lfsFetchArgumentConstant              = "fetch"
	lfsPushArgumentConstant               = "push"
	lfsAllFlagConstant                    = "--all"
)

// Sentinel errors for service construction.
var (
	// ErrSourceReaderMissing indicates the service was built without a source reader.
	ErrSourceReaderMissing = errors.New(lfsSourceMissingMessageConstant)
	// ErrTargetProberMissing indicates the service was built without a target prober.
	ErrTargetProberMissing = errors.New(lfsTargetMissingMessageConstant)
	// ErrGitExecutorMissing indicates the service was built without a git executor.
	ErrGitExecutorMissing = errors.New(lfsExecutorMissingMessageConstant)
	// ErrRemoteBuildersMissing indicates the service was built without remote URL builders.
	ErrRemoteBuildersMissing = errors.New(lfsRemoteBuilderMissingMsgConstant)
)

// GitExecutor runs git and git-lfs for mirror transfer.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitLFS(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ServiceDependencies describes required collaborators for LFS migration.
type ServiceDependencies struct {
	Logger             *zap.Logger
	Source             SourceReader
	Target             TargetProber
	GitExecutor        GitExecutor
	SourceRemoteURL    RemoteURLBuilder
	TargetRemoteURL    RemoteURLBuilder
	Repositories       []string
	WorkspaceDirectory string
	DryRun             bool
}

// Service mirrors LFS objects for every selected repository.
type Service struct {
	logger             *zap.Logger
	source             SourceReader
	target             TargetProber
	gitExecutor        GitExecutor
	sourceRemoteURL    RemoteURLBuilder
	targetRemoteURL    RemoteURLBuilder
	repositories       []string
	workspaceDirectory string
	dryRun             bool
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Source == nil {
		return nil, ErrSourceReaderMissing
	}
	if dependencies.Target == nil {
		return nil, ErrTargetProberMissing
	}
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorMissing
	}
	if dependencies.SourceRemoteURL == nil || dependencies.TargetRemoteURL == nil {
		return nil, ErrRemoteBuildersMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	workspaceDirectory := dependencies.WorkspaceDirectory
	if len(workspaceDirectory) == 0 {
		workspaceDirectory = defaultWorkspaceDirectoryConstant
	}

	return &Service{
		logger:             logger,
		source:             dependencies.Source,
		target:             dependencies.Target,
		gitExecutor:        dependencies.GitExecutor,
		sourceRemoteURL:    dependencies.SourceRemoteURL,
		targetRemoteURL:    dependencies.TargetRemoteURL,
		repositories:       dependencies.Repositories,
		workspaceDirectory: workspaceDirectory,
		dryRun:             dependencies.DryRun,
	}, nil
}

// Execute migrates LFS objects for every selected repository. An explicit
// repository list overrides source enumeration.
func (service *Service) Execute(executionContext context.Context) (*migration.Report, error) {
	report := migration.NewReport(service.logger, lfsResourceNameConstant, service.dryRun)

	repositoryNames := service.repositories
	if len(repositoryNames) == 0 {
		enumeratedNames, listingError := service.source.ListRepositoryNames(executionContext)
		if listingError != nil {
			report.AddError(lfsRepositoryListingFailedName, listingError)
			return report, nil
		}
		repositoryNames = enumeratedNames
	}

	for _, repositoryName := range repositoryNames {
		service.migrateRepository(executionContext, repositoryName, report)
	}

	return report, nil
}

func (service *Service) migrateRepository(executionContext context.Context, repositoryName string, report *migration.Report) {
	if service.dryRun {
		report.AddItemDetail(repositoryName, migration.ActionPlanned, plannedPushDetailConstant)
		return
	}

	repositoryPresent, probeError := service.target.RepositoryExists(executionContext, repositoryName)
	if probeError != nil {
		report.AddError(repositoryName, probeError)
		return
	}
	if !repositoryPresent {
		report.AddError(repositoryName, fmt.Errorf(missingDestinationRepoTemplate, repositoryName))
		return
	}

	mirrorPath := filepath.Join(service.workspaceDirectory, repositoryName+mirrorDirectorySuffixConstant)
	defer service.removeMirror(mirrorPath)

	cloneDetails := execshell.CommandDetails{
		Arguments: []string{gitCloneArgumentConstant, gitMirrorFlagConstant, service.sourceRemoteURL(repositoryName), mirrorPath},
	}
	if _, cloneError := service.gitExecutor.ExecuteGit(executionContext, cloneDetails); cloneError != nil {
		report.AddError(repositoryName, cloneError)
		return
	}

	fetchDetails := execshell.CommandDetails{
		Arguments:        []string{lfsFetchArgumentConstant, lfsAllFlagConstant},
		WorkingDirectory: mirrorPath,
	}
	if _, fetchError := service.gitExecutor.ExecuteGitLFS(executionContext, fetchDetails); fetchError != nil {
		report.AddError(repositoryName, fetchError)
		return
	}

	pushDetails := execshell.CommandDetails{
		Arguments:        []string{lfsPushArgumentConstant, lfsAllFlagConstant, service.targetRemoteURL(repositoryName)},
		WorkingDirectory: mirrorPath,
	}
	if _, pushError := service.gitExecutor.ExecuteGitLFS(executionContext, pushDetails); pushError != nil {
		report.AddError(repositoryName, pushError)
		return
	}

	report.AddItemDetail(repositoryName, migration.ActionPublished, objectsPushedDetailConstant)
}

func (service *Service) removeMirror(mirrorPath string) {
	if removeError := os.RemoveAll(mirrorPath); removeError != nil {
		service.logger.Warn(
			mirrorCleanupWarnMessageConstant,
			zap.String(mirrorPathLogFieldNameConstant, mirrorPath),
			zap.Error(removeError),
		)
	}
}
