package packages_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/migration"
	"github.com/orgmigrate/orgmigrate/internal/packages"
)

const (
	testServicePackageNameConstant      = "com.acme.widget"
	testNewVersionNameConstant          = "2.0.0"
	testExistingVersionNameConstant     = "1.0.0"
	testUnresolvableVersionNameConst    = "0.9.0-beta"
	testResolutionFailureMessageConst   = "version metadata query failed"
)

type stubInventory struct {
	packageNames  []string
	listingError  error
	versions      map[string][]packages.Version
	versionErrors map[string]error
}

func (inventory *stubInventory) ListPackageNames(requestContext context.Context, ecosystemName packages.EcosystemName) ([]string, error) {
	return inventory.packageNames, inventory.listingError
}

func (inventory *stubInventory) ListVersions(requestContext context.Context, ecosystemName packages.EcosystemName, packageName string) ([]packages.Version, error) {
	if versionError, errorConfigured := inventory.versionErrors[packageName]; errorConfigured {
		return nil, versionError
	}
	return inventory.versions[packageName], nil
}

type scriptedEcosystem struct {
	assetsByVersion    map[string][]packages.Asset
	resolutionFailures map[string]error
	fetchedAssetNames  []string
	publishedVersions  []string
}

func (ecosystem *scriptedEcosystem) Name() packages.EcosystemName {
	return packages.EcosystemMaven
}

func (ecosystem *scriptedEcosystem) ResolveAssets(requestContext context.Context, packageName string, version packages.Version) ([]packages.Asset, error) {
	if resolutionError, failureConfigured := ecosystem.resolutionFailures[version.Name]; failureConfigured {
		return nil, resolutionError
	}
	return ecosystem.assetsByVersion[version.Name], nil
}

func (ecosystem *scriptedEcosystem) FetchAsset(requestContext context.Context, packageName string, version packages.Version, asset packages.Asset) (string, error) {
	ecosystem.fetchedAssetNames = append(ecosystem.fetchedAssetNames, asset.Name)
	return asset.Name, nil
}

func (ecosystem *scriptedEcosystem) Publish(requestContext context.Context, packageName string, version packages.Version, stagedAssets []packages.StagedAsset) error {
	ecosystem.publishedVersions = append(ecosystem.publishedVersions, version.Name)
	return nil
}

func newPackageServiceFixture(testInstance *testing.T, dryRun bool) (*packages.Service, *scriptedEcosystem) {
	sourceInventory := &stubInventory{
		packageNames: []string{testServicePackageNameConstant},
		versions: map[string][]packages.Version{
			testServicePackageNameConstant: {
				{ID: 1, Name: testExistingVersionNameConstant},
				{ID: 2, Name: testNewVersionNameConstant},
				{ID: 3, Name: testUnresolvableVersionNameConst},
			},
		},
	}
	targetInventory := &stubInventory{
		versions: map[string][]packages.Version{
			testServicePackageNameConstant: {
				{ID: 11, Name: testExistingVersionNameConstant},
			},
		},
	}

	scripted := &scriptedEcosystem{
		assetsByVersion: map[string][]packages.Asset{
			testNewVersionNameConstant: {
				{Name: "widget-2.0.0.jar"},
				{Name: "widget-2.0.0.pom"},
			},
		},
		resolutionFailures: map[string]error{
			testUnresolvableVersionNameConst: errors.New(testResolutionFailureMessageConst),
		},
	}

	migrationService, creationError := packages.NewService(packages.ServiceDependencies{
		Logger:          zap.NewNop(),
		SourceInventory: sourceInventory,
		TargetInventory: targetInventory,
		Ecosystem:       scripted,
		Engine:          packages.NewEngine(zap.NewNop(), packages.DefaultConcurrency),
		DryRun:          dryRun,
	})
	require.NoError(testInstance, creationError)

	return migrationService, scripted
}

func TestPackageServiceConstructionValidation(testInstance *testing.T) {
	completeDependencies := packages.ServiceDependencies{
		SourceInventory: &stubInventory{},
		TargetInventory: &stubInventory{},
		Ecosystem:       &scriptedEcosystem{},
		Engine:          packages.NewEngine(zap.NewNop(), packages.DefaultConcurrency),
	}

	testCases := []struct {
		name          string
		mutate        func(dependencies packages.ServiceDependencies) packages.ServiceDependencies
		expectedError error
	}{
		{
			name: "missing_source_inventory",
			mutate: func(dependencies packages.ServiceDependencies) packages.ServiceDependencies {
				dependencies.SourceInventory = nil
				return dependencies
			},
			expectedError: packages.ErrSourceInventoryMissing,
		},
		{
			name: "missing_target_inventory",
			mutate: func(dependencies packages.ServiceDependencies) packages.ServiceDependencies {
				dependencies.TargetInventory = nil
				return dependencies
			},
			expectedError: packages.ErrTargetInventoryMissing,
		},
		{
			name: "missing_ecosystem",
			mutate: func(dependencies packages.ServiceDependencies) packages.ServiceDependencies {
				dependencies.Ecosystem = nil
				return dependencies
			},
			expectedError: packages.ErrEcosystemMissing,
		},
		{
			name: "missing_engine",
			mutate: func(dependencies packages.ServiceDependencies) packages.ServiceDependencies {
				dependencies.Engine = nil
				return dependencies
			},
			expectedError: packages.ErrEngineMissing,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, creationError := packages.NewService(testCase.mutate(completeDependencies))
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestPackageServiceSkipsVersionsPresentAtDestination(testInstance *testing.T) {
	migrationService, scripted := newPackageServiceFixture(testInstance, false)

	report, executionError := migrationService.Execute(context.Background())
	require.NoError(testInstance, executionError)

	require.Equal(testInstance, []string{testNewVersionNameConstant}, scripted.publishedVersions)
	require.Len(testInstance, scripted.fetchedAssetNames, 2)

	actionsByName := map[string]string{}
	for _, reportItem := range report.Items {
		actionsByName[reportItem.Name] = reportItem.Action
	}
	require.Equal(testInstance, migration.ActionSkipped, actionsByName[testServicePackageNameConstant+"@"+testExistingVersionNameConstant])
	require.Equal(testInstance, migration.ActionPublished, actionsByName[testServicePackageNameConstant+"@"+testNewVersionNameConstant])
	require.Equal(testInstance, migration.ActionSkipped, actionsByName[testServicePackageNameConstant+"@"+testUnresolvableVersionNameConst])
	require.Empty(testInstance, report.Errors)
}

func TestPackageServiceDryRunPlansEveryVersion(testInstance *testing.T) {
	migrationService, scripted := newPackageServiceFixture(testInstance, true)

	report, executionError := migrationService.Execute(context.Background())
	require.NoError(testInstance, executionError)

	require.Empty(testInstance, scripted.fetchedAssetNames)
	require.Empty(testInstance, scripted.publishedVersions)

	require.True(testInstance, report.DryRun)
	require.Len(testInstance, report.Items, 3)
	for _, reportItem := range report.Items {
		require.Equal(testInstance, migration.ActionPlanned, reportItem.Action)
	}
}

func TestPackageServiceRecordsListingFailures(testInstance *testing.T) {
	sourceInventory := &stubInventory{listingError: errors.New("package listing failed")}
	migrationService, creationError := packages.NewService(packages.ServiceDependencies{
		SourceInventory: sourceInventory,
		TargetInventory: &stubInventory{},
		Ecosystem:       &scriptedEcosystem{},
		Engine:          packages.NewEngine(zap.NewNop(), packages.DefaultConcurrency),
	})
	require.NoError(testInstance, creationError)

	report, executionError := migrationService.Execute(context.Background())
	require.NoError(testInstance, executionError)
	require.Len(testInstance, report.Errors, 1)
	require.Empty(testInstance, report.Items)
}
