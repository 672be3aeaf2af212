package packages

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	packagesResourceNameConstant            = "packages"
	packagesSourceMissingMessageConstant    = "package source inventory not configured"
	packagesTargetMissingMessageConstant    = "package target inventory not configured"
	packagesEcosystemMissingMessageConstant = "package ecosystem not configured"
	packagesEngineMissingMessageConstant    = "package transfer engine not configured"
	packageListingFailedNameConstant        = "package-listing"
	versionItemNameTemplateConstant         = "%s@%s"
	assetItemNameTemplateConstant           = "%s@%s/%s"
	versionAlreadyPresentDetailConstant     = "version already present at destination"
	assetResolutionWarnMessageConstant      = "asset resolution failed, continuing with empty asset list"
	versionListingFailedWarnMessage         = "source version listing failed"
	noAssetsResolvedDetailConstant          = "no assets resolved"
	packageLogFieldNameConstant             = "package"
	versionLogFieldNameConstant             = "version"
	assetFetchErrorTemplateConstant         = "asset %s download failed: %w"
	plannedAssetsDetailTemplateConstant     = "publish %d assets"
)

// Sentinel errors for service construction.
var (
	// ErrSourceInventoryMissing indicates the service was built without a source inventory.
	ErrSourceInventoryMissing = errors.New(packagesSourceMissingMessageConstant)
	// ErrTargetInventoryMissing indicates the service was built without a target inventory.
	ErrTargetInventoryMissing = errors.New(packagesTargetMissingMessageConstant)
	// ErrEcosystemMissing indicates the service was built without an ecosystem migrator.
	ErrEcosystemMissing = errors.New(packagesEcosystemMissingMessageConstant)
	// ErrEngineMissing indicates the service was built without a transfer engine.
	ErrEngineMissing = errors.New(packagesEngineMissingMessageConstant)
)

// ServiceDependencies describes required collaborators for package migration.
type ServiceDependencies struct {
	Logger          *zap.Logger
	SourceInventory Inventory
	TargetInventory Inventory
	Ecosystem       Ecosystem
	Engine          *Engine
	Staging         *StagingArea
	DryRun          bool
}

// Service migrates every package of one ecosystem.
type Service struct {
	logger          *zap.Logger
	sourceInventory Inventory
	targetInventory Inventory
	ecosystem       Ecosystem
	engine          *Engine
	staging         *StagingArea
	dryRun          bool
}

// NewService constructs a Service with the provided dependencies. Staging is
// optional; container migrations stage inside the docker daemon.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.SourceInventory == nil {
		return nil, ErrSourceInventoryMissing
	}
	if dependencies.TargetInventory == nil {
		return nil, ErrTargetInventoryMissing
	}
	if dependencies.Ecosystem == nil {
		return nil, ErrEcosystemMissing
	}
	if dependencies.Engine == nil {
		return nil, ErrEngineMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:          logger,
		sourceInventory: dependencies.SourceInventory,
		targetInventory: dependencies.TargetInventory,
		ecosystem:       dependencies.Ecosystem,
		engine:          dependencies.Engine,
		staging:         dependencies.Staging,
		dryRun:          dependencies.DryRun,
	}, nil
}

// Execute migrates all packages of the configured ecosystem. Versions already
// present at the destination are skipped without any upload call.
func (service *Service) Execute(executionContext context.Context) (*migration.Report, error) {
	report := migration.NewReport(service.logger, packagesResourceNameConstant, service.dryRun)

	if !service.dryRun && service.staging != nil {
		if resetError := service.staging.Reset(); resetError != nil {
			return report, resetError
		}
	}

	packageNames, listingError := service.sourceInventory.ListPackageNames(executionContext, service.ecosystem.Name())
	if listingError != nil {
		report.AddError(packageListingFailedNameConstant, listingError)
		return report, nil
	}

	for _, packageName := range packageNames {
		service.migratePackage(executionContext, packageName, report)
	}

	return report, nil
}

func (service *Service) migratePackage(executionContext context.Context, packageName string, report *migration.Report) {
	sourceVersions, versionListingError := service.sourceInventory.ListVersions(executionContext, service.ecosystem.Name(), packageName)
	if versionListingError != nil {
		service.logger.Warn(
			versionListingFailedWarnMessage,
			zap.String(packageLogFieldNameConstant, packageName),
			zap.Error(versionListingError),
		)
		report.AddError(packageName, versionListingError)
		return
	}

	existingVersionNames := map[string]bool{}
	if !service.dryRun {
		targetVersions, targetListingError := service.targetInventory.ListVersions(executionContext, service.ecosystem.Name(), packageName)
		if targetListingError != nil {
			report.AddError(packageName, targetListingError)
			return
		}
		for _, targetVersion := range targetVersions {
			existingVersionNames[targetVersion.Name] = true
		}
	}

	for _, sourceVersion := range sourceVersions {
		service.migrateVersion(executionContext, packageName, sourceVersion, existingVersionNames, report)
	}
}

func (service *Service) migrateVersion(executionContext context.Context, packageName string, version Version, existingVersionNames map[string]bool, report *migration.Report) {
	itemName := fmt.Sprintf(versionItemNameTemplateConstant, packageName, version.Name)

	if !service.dryRun && existingVersionNames[version.Name] {
		report.AddItemDetail(itemName, migration.ActionSkipped, versionAlreadyPresentDetailConstant)
		return
	}

	resolvedAssets, resolutionError := service.ecosystem.ResolveAssets(executionContext, packageName, version)
	if resolutionError != nil {
		service.logger.Warn(
			assetResolutionWarnMessageConstant,
			zap.String(packageLogFieldNameConstant, packageName),
			zap.String(versionLogFieldNameConstant, version.Name),
			zap.Error(resolutionError),
		)
		resolvedAssets = nil
	}

	if service.dryRun {
		report.AddItemDetail(itemName, migration.ActionPlanned, fmt.Sprintf(plannedAssetsDetailTemplateConstant, len(resolvedAssets)))
		return
	}

	if len(resolvedAssets) == 0 {
		report.AddItemDetail(itemName, migration.ActionSkipped, noAssetsResolvedDetailConstant)
		return
	}

	outcomes := service.engine.FetchAssets(executionContext, service.ecosystem, packageName, version, resolvedAssets)
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			assetItemName := fmt.Sprintf(assetItemNameTemplateConstant, packageName, version.Name, outcome.Staged.Asset.Name)
			report.AddError(assetItemName, fmt.Errorf(assetFetchErrorTemplateConstant, outcome.Staged.Asset.Name, outcome.Err))
		}
	}

	uploadSet := SuccessfulAssets(outcomes)
	if len(uploadSet) == 0 {
		return
	}

	if publishError := service.ecosystem.Publish(executionContext, packageName, version, uploadSet); publishError != nil {
		report.AddError(itemName, publishError)
		return
	}

	report.AddItem(itemName, migration.ActionPublished)
}
