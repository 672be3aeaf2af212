package variables

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	variablesResourceNameConstant             = "variables"
	variablesSourceMissingMessageConstant     = "variable source reader not configured"
	variablesTargetMissingMessageConstant     = "variable target writer not configured"
	organizationListingFailedNameConstant     = "organization-variable-listing"
	repositoryListingFailedNameConstant       = "repository-listing"
	organizationItemNameTemplateConstant      = "organization/%s"
	repositoryItemNameTemplateConstant        = "%s/%s"
	missingRepositoryDetailTemplateConstant   = "destination repository %s does not exist"
	repositoryVariablesWarnMessageConstant    = "repository variable listing failed"
	repositoryNameLogFieldConstant            = "repository"
	variableAlreadyPresentDetailConstant      = "already present at destination"
)

// Sentinel errors for service construction.
var (
	// ErrSourceReaderMissing indicates the service was built without a source reader.
	ErrSourceReaderMissing = errors.New(variablesSourceMissingMessageConstant)
	// ErrTargetWriterMissing indicates the service was built without a target writer.
	ErrTargetWriterMissing = errors.New(variablesTargetMissingMessageConstant)
)

// ServiceDependencies describes required collaborators for variable migration.
type ServiceDependencies struct {
	Logger *zap.Logger
	Source SourceReader
	Target TargetWriter
	DryRun bool
}

// Service copies organization and repository variables to the destination.
type Service struct {
	logger *zap.Logger
	source SourceReader
	target TargetWriter
	dryRun bool
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Source == nil {
		return nil, ErrSourceReaderMissing
	}
	if dependencies.Target == nil {
		return nil, ErrTargetWriterMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger: logger,
		source: dependencies.Source,
		target: dependencies.Target,
		dryRun: dependencies.DryRun,
	}, nil
}

// Execute migrates org-scoped variables first, then repo-scoped variables for
// every repository present at the destination.
func (service *Service) Execute(executionContext context.Context) (*migration.Report, error) {
	report := migration.NewReport(service.logger, variablesResourceNameConstant, service.dryRun)

	service.migrateOrganizationVariables(executionContext, report)
	service.migrateRepositoryVariables(executionContext, report)

	return report, nil
}

func (service *Service) migrateOrganizationVariables(executionContext context.Context, report *migration.Report) {
	organizationVariables, listingError := service.source.ListOrganizationVariables(executionContext)
	if listingError != nil {
		report.AddError(organizationListingFailedNameConstant, listingError)
		return
	}

	for _, organizationVariable := range organizationVariables {
		itemName := fmt.Sprintf(organizationItemNameTemplateConstant, organizationVariable.Name)

		if service.dryRun {
			report.AddItem(itemName, migration.ActionPlanned)
			continue
		}

		alreadyPresent, probeError := service.target.OrganizationVariableExists(executionContext, organizationVariable.Name)
		if probeError != nil {
			report.AddError(itemName, probeError)
			continue
		}
		if alreadyPresent {
			report.AddItemDetail(itemName, migration.ActionSkipped, variableAlreadyPresentDetailConstant)
			continue
		}

		if creationError := service.target.CreateOrganizationVariable(executionContext, organizationVariable); creationError != nil {
			report.AddError(itemName, creationError)
			continue
		}

		report.AddItem(itemName, migration.ActionCreated)
	}
}

func (service *Service) migrateRepositoryVariables(executionContext context.Context, report *migration.Report) {
	repositoryNames, listingError := service.source.ListRepositoryNames(executionContext)
	if listingError != nil {
		report.AddError(repositoryListingFailedNameConstant, listingError)
		return
	}

	for _, repositoryName := range repositoryNames {
		repositoryVariables, variableListingError := service.source.ListRepositoryVariables(executionContext, repositoryName)
		if variableListingError != nil {
			service.logger.Warn(
				repositoryVariablesWarnMessageConstant,
				zap.String(repositoryNameLogFieldConstant, repositoryName),
				zap.Error(variableListingError),
			)
			continue
		}
		if len(repositoryVariables) == 0 {
			continue
		}

		if service.dryRun {
			for _, repositoryVariable := range repositoryVariables {
				report.AddItem(fmt.Sprintf(repositoryItemNameTemplateConstant, repositoryName, repositoryVariable.Name), migration.ActionPlanned)
			}
			continue
		}

		repositoryPresent, probeError := service.target.RepositoryExists(executionContext, repositoryName)
		if probeError != nil {
			report.AddError(repositoryName, probeError)
			continue
		}
		if !repositoryPresent {
			report.AddError(repositoryName, fmt.Errorf(missingRepositoryDetailTemplateConstant, repositoryName))
			continue
		}

		for _, repositoryVariable := range repositoryVariables {
			service.migrateRepositoryVariable(executionContext, repositoryVariable, report)
		}
	}
}

func (service *Service) migrateRepositoryVariable(executionContext context.Context, repositoryVariable RepositoryVariable, report *migration.Report) {
	itemName := fmt.Sprintf(repositoryItemNameTemplateConstant, repositoryVariable.RepositoryName, repositoryVariable.Name)

	alreadyPresent, probeError := service.target.RepositoryVariableExists(executionContext, repositoryVariable.RepositoryName, repositoryVariable.Name)
	if probeError != nil {
		report.AddError(itemName, probeError)
		return
	}
	if alreadyPresent {
		report.AddItemDetail(itemName, migration.ActionSkipped, variableAlreadyPresentDetailConstant)
		return
	}

	if creationError := service.target.CreateRepositoryVariable(executionContext, repositoryVariable); creationError != nil {
		report.AddError(itemName, creationError)
		return
	}

	report.AddItem(itemName, migration.ActionCreated)
}
