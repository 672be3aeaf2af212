package secrets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	secretsResourceNameConstant            = "secrets"
	secretsSourceMissingMessageConstant    = "secret source reader not configured"
	secretsTargetMissingMessageConstant    = "secret target writer not configured"
	organizationSecretListingFailedName    = "organization-secret-listing"
	secretRepositoryListingFailedName      = "repository-listing"
	organizationSecretItemTemplateConstant = "organization/%s"
	repositorySecretItemTemplateConstant   = "%s/%s"
	repoSecretsListingWarnMessageConstant  = "repository secret listing failed"
	secretRepositoryLogFieldConstant       = "repository"
	missingDestinationRepoTemplateConstant = "destination repository %s does not exist"
	sourceMetadataWarnMessageConstant      = "source secret metadata lookup failed, creating with private visibility"
	secretNameLogFieldConstant             = "secret"
	discoveredCountDetailTemplateConstant  = "discovered %d secrets"
	privateVisibilityFallbackConstant      = "private"
)

// Sentinel errors for service construction.
var (
	// ErrSourceReaderMissing indicates the service was built without a source reader.
	ErrSourceReaderMissing = errors.New(secretsSourceMissingMessageConstant)
	// ErrTargetWriterMissing indicates the service was built without a target writer.
	ErrTargetWriterMissing = errors.New(secretsTargetMissingMessageConstant)
)

// ServiceDependencies describes required collaborators for secret migration.
type ServiceDependencies struct {
	Logger *zap.Logger
	Source SourceReader
	Target TargetWriter
	DryRun bool
}

// Service migrates secrets from the plaintext CSV, or discovers secret names
// in dry-run mode.
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

// Discover enumerates every org and repo secret name on the source. The
// returned slice feeds the discovery CSV an operator fills in with values.
func (service *Service) Discover(executionContext context.Context, report *migration.Report) []DiscoveredSecret {
	discoveredSecrets := []DiscoveredSecret{}

	organizationSecrets, organizationListingError := service.source.ListOrganizationSecrets(executionContext)
	if organizationListingError != nil {
		report.AddError(organizationSecretListingFailedName, organizationListingError)
	} else {
		for _, organizationSecret := range organizationSecrets {
			discoveredSecrets = append(discoveredSecrets, DiscoveredSecret{
				Scope:    ScopeOrganization,
				Location: service.sourceOrganizationName(),
				Name:     organizationSecret.Name,
			})
		}
	}

	repositoryNames, repositoryListingError := service.source.ListRepositoryNames(executionContext)
	if repositoryListingError != nil {
		report.AddError(secretRepositoryListingFailedName, repositoryListingError)
		return discoveredSecrets
	}

	for _, repositoryName := range repositoryNames {
		secretNames, secretListingError := service.source.ListRepositorySecretNames(executionContext, repositoryName)
		if secretListingError != nil {
			service.logger.Warn(
				repoSecretsListingWarnMessageConstant,
				zap.String(secretRepositoryLogFieldConstant, repositoryName),
				zap.Error(secretListingError),
			)
			continue
		}
		for _, secretName := range secretNames {
			discoveredSecrets = append(discoveredSecrets, DiscoveredSecret{
				Scope:    ScopeRepository,
				Location: repositoryName,
				Name:     secretName,
			})
		}
	}

	return discoveredSecrets
}

func (service *Service) sourceOrganizationName() string {
	type organizationNamer interface {
		Organization() string
	}
	if namer, hasName := service.source.(organizationNamer); hasName {
		return namer.Organization()
	}
	return string(ScopeOrganization)
}

// ExecuteDiscovery runs discovery and records the outcome in a fresh report.
func (service *Service) ExecuteDiscovery(executionContext context.Context) (*migration.Report, []DiscoveredSecret, error) {
	report := migration.NewReport(service.logger, secretsResourceNameConstant, true)

	discoveredSecrets := service.Discover(executionContext, report)
	for _, discoveredSecret := range discoveredSecrets {
		report.AddItem(fmt.Sprintf(repositorySecretItemTemplateConstant, discoveredSecret.Location, discoveredSecret.Name), migration.ActionPlanned)
	}
	report.Details = fmt.Sprintf(discoveredCountDetailTemplateConstant, len(discoveredSecrets))

	return report, discoveredSecrets, nil
}

// ExecuteMigration creates every CSV secret at the destination. The plaintext
// value is sealed under a public key fetched fresh per secret and discarded.
func (service *Service) ExecuteMigration(executionContext context.Context, inputSecrets []InputSecret) (*migration.Report, error) {
	report := migration.NewReport(service.logger, secretsResourceNameConstant, service.dryRun)

	for _, inputSecret := range inputSecrets {
		switch inputSecret.Scope {
		case ScopeOrganization:
			service.migrateOrganizationSecret(executionContext, inputSecret, report)
		case ScopeRepository:
			service.migrateRepositorySecret(executionContext, inputSecret, report)
		}
	}

	return report, nil
}

func (service *Service) migrateOrganizationSecret(executionContext context.Context, inputSecret InputSecret, report *migration.Report) {
	itemName := fmt.Sprintf(organizationSecretItemTemplateConstant, inputSecret.Name)

	if service.dryRun {
		report.AddItem(itemName, migration.ActionPlanned)
		return
	}

	visibility := privateVisibilityFallbackConstant
	selectedRepositoryNames := []string(nil)
	sourceMetadata, metadataError := service.source.GetOrganizationSecret(executionContext, inputSecret.Name)
	if metadataError != nil {
		service.logger.Warn(
			sourceMetadataWarnMessageConstant,
			zap.String(secretNameLogFieldConstant, inputSecret.Name),
			zap.Error(metadataError),
		)
	} else {
		visibility = sourceMetadata.Visibility
		selectedRepositoryNames = sourceMetadata.SelectedRepositoryNames
	}

	recipientKey, keyError := service.target.GetOrganizationPublicKey(executionContext)
	if keyError != nil {
		report.AddError(itemName, keyError)
		return
	}

	encryptedValue, encryptionError := EncryptSecretValue(inputSecret.Value, recipientKey)
	if encryptionError != nil {
		report.AddError(itemName, encryptionError)
		return
	}

	putError := service.target.PutOrganizationSecret(executionContext, inputSecret.Name, encryptedValue, recipientKey.KeyID, visibility, selectedRepositoryNames)
	if putError != nil {
		report.AddError(itemName, putError)
		return
	}

	report.AddItem(itemName, migration.ActionCreated)
}

func (service *Service) migrateRepositorySecret(executionContext context.Context, inputSecret InputSecret, report *migration.Report) {
	itemName := fmt.Sprintf(repositorySecretItemTemplateConstant, inputSecret.RepositoryName, inputSecret.Name)

	if service.dryRun {
		report.AddItem(itemName, migration.ActionPlanned)
		return
	}

	repositoryPresent, probeError := service.target.RepositoryExists(executionContext, inputSecret.RepositoryName)
	if probeError != nil {
		report.AddError(itemName, probeError)
		return
	}
	if !repositoryPresent {
		report.AddError(itemName, fmt.Errorf(missingDestinationRepoTemplateConstant, inputSecret.RepositoryName))
		return
	}

	recipientKey, keyError := service.target.GetRepositoryPublicKey(executionContext, inputSecret.RepositoryName)
	if keyError != nil {
		report.AddError(itemName, keyError)
		return
	}

	encryptedValue, encryptionError := EncryptSecretValue(inputSecret.Value, recipientKey)
	if encryptionError != nil {
		report.AddError(itemName, encryptionError)
		return
	}

	putError := service.target.PutRepositorySecret(executionContext, inputSecret.RepositoryName, inputSecret.Name, encryptedValue, recipientKey.KeyID)
	if putError != nil {
		report.AddError(itemName, putError)
		return
	}

	report.AddItem(itemName, migration.ActionCreated)
}
