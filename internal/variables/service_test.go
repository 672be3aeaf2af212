package variables_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/migration"
	"github.com/orgmigrate/orgmigrate/internal/variables"
)

const (
	testOrganizationVariableNameConstant = "DEPLOY_REGION"
	testExistingVariableNameConstant     = "API_BASE_URL"
	testRepositoryNameConstant           = "billing-service"
	testAbsentRepositoryNameConstant     = "archived-service"
	testRepositoryVariableNameConstant   = "SERVICE_TIER"
	testVariableValueConstant            = "us-east-1"
	testBrokenRepositoryNameConstant     = "flaky-service"
	testVariableListingFailureConstant   = "variable listing failed"
)

type stubVariableSourceReader struct {
	organizationVariables []variables.OrganizationVariable
	organizationError     error
	repositoryNames       []string
	repositoryVariables   map[string][]variables.RepositoryVariable
	repositoryErrors      map[string]error
}

func (reader *stubVariableSourceReader) ListOrganizationVariables(requestContext context.Context) ([]variables.OrganizationVariable, error) {
	return reader.organizationVariables, reader.organizationError
}

func (reader *stubVariableSourceReader) ListRepositoryNames(requestContext context.Context) ([]string, error) {
	return reader.repositoryNames, nil
}

func (reader *stubVariableSourceReader) ListRepositoryVariables(requestContext context.Context, repositoryName string) ([]variables.RepositoryVariable, error) {
	if listingError, errorConfigured := reader.repositoryErrors[repositoryName]; errorConfigured {
		return nil, listingError
	}
	return reader.repositoryVariables[repositoryName], nil
}

type recordingVariableTargetWriter struct {
	existingOrganizationVariables map[string]bool
	existingRepositoryVariables   map[string]bool
	missingRepositories           map[string]bool
	createdOrganizationVariables  []variables.OrganizationVariable
	createdRepositoryVariables    []variables.RepositoryVariable
}

func (writer *recordingVariableTargetWriter) OrganizationVariableExists(requestContext context.Context, variableName string) (bool, error) {
	return writer.existingOrganizationVariables[variableName], nil
}

func (writer *recordingVariableTargetWriter) CreateOrganizationVariable(requestContext context.Context, variable variables.OrganizationVariable) error {
	writer.createdOrganizationVariables = append(writer.createdOrganizationVariables, variable)
	return nil
}

func (writer *recordingVariableTargetWriter) RepositoryExists(requestContext context.Context, repositoryName string) (bool, error) {
	return !writer.missingRepositories[repositoryName], nil
}

func (writer *recordingVariableTargetWriter) RepositoryVariableExists(requestContext context.Context, repositoryName string, variableName string) (bool, error) {
	return writer.existingRepositoryVariables[repositoryName+"/"+variableName], nil
}

func (writer *recordingVariableTargetWriter) CreateRepositoryVariable(requestContext context.Context, variable variables.RepositoryVariable) error {
	writer.createdRepositoryVariables = append(writer.createdRepositoryVariables, variable)
	return nil
}

func newVariableServiceFixture(testInstance *testing.T, dryRun bool) (*variables.Service, *recordingVariableTargetWriter) {
	sourceReader := &stubVariableSourceReader{
		organizationVariables: []variables.OrganizationVariable{
			{Name: testOrganizationVariableNameConstant, Value: testVariableValueConstant, Visibility: variables.VisibilityAll},
			{Name: testExistingVariableNameConstant, Value: testVariableValueConstant, Visibility: variables.VisibilityPrivate},
		},
		repositoryNames: []string{testRepositoryNameConstant, testAbsentRepositoryNameConstant, testBrokenRepositoryNameConstant},
		repositoryVariables: map[string][]variables.RepositoryVariable{
			testRepositoryNameConstant: {
				{RepositoryName: testRepositoryNameConstant, Name: testRepositoryVariableNameConstant, Value: testVariableValueConstant},
			},
			testAbsentRepositoryNameConstant: {
				{RepositoryName: testAbsentRepositoryNameConstant, Name: testRepositoryVariableNameConstant, Value: testVariableValueConstant},
			},
		},
		repositoryErrors: map[string]error{
			testBrokenRepositoryNameConstant: errors.New(testVariableListingFailureConstant),
		},
	}

	targetWriter := &recordingVariableTargetWriter{
		existingOrganizationVariables: map[string]bool{testExistingVariableNameConstant: true},
		missingRepositories:           map[string]bool{testAbsentRepositoryNameConstant: true},
	}

	migrationService, creationError := variables.NewService(variables.ServiceDependencies{
		Logger: zap.NewNop(),
		Source: sourceReader,
		Target: targetWriter,
		DryRun: dryRun,
	})
	require.NoError(testInstance, creationError)

	return migrationService, targetWriter
}

func TestVariableServiceConstructionValidation(testInstance *testing.T) {
	_, missingSourceError := variables.NewService(variables.ServiceDependencies{Target: &recordingVariableTargetWriter{}})
	require.ErrorIs(testInstance, missingSourceError, variables.ErrSourceReaderMissing)

	_, missingTargetError := variables.NewService(variables.ServiceDependencies{Source: &stubVariableSourceReader{}})
	require.ErrorIs(testInstance, missingTargetError, variables.ErrTargetWriterMissing)
}

func TestVariableServiceMigratesOrganizationAndRepositoryVariables(testInstance *testing.T) {
	migrationService, targetWriter := newVariableServiceFixture(testInstance, false)

	report, executionError := migrationService.Execute(context.Background())
	require.NoError(testInstance, executionError)

	require.Len(testInstance, targetWriter.createdOrganizationVariables, 1)
	require.Equal(testInstance, testOrganizationVariableNameConstant, targetWriter.createdOrganizationVariables[0].Name)

	require.Len(testInstance, targetWriter.createdRepositoryVariables, 1)
	require.Equal(testInstance, testRepositoryNameConstant, targetWriter.createdRepositoryVariables[0].RepositoryName)

	actionsByName := map[string]string{}
	for _, reportItem := range report.Items {
		actionsByName[reportItem.Name] = reportItem.Action
	}
	require.Equal(testInstance, migration.ActionCreated, actionsByName["organization/"+testOrganizationVariableNameConstant])
	require.Equal(testInstance, migration.ActionSkipped, actionsByName["organization/"+testExistingVariableNameConstant])
	require.Equal(testInstance, migration.ActionCreated, actionsByName[testRepositoryNameConstant+"/"+testRepositoryVariableNameConstant])

	// The absent destination repository is an item-level failure; the broken
	// listing is only a warning.
	require.Len(testInstance, report.Errors, 1)
	require.Equal(testInstance, testAbsentRepositoryNameConstant, report.Errors[0].Name)
}

func TestVariableServiceDryRunPlansWithoutMutations(testInstance *testing.T) {
	migrationService, targetWriter := newVariableServiceFixture(testInstance, true)

	report, executionError := migrationService.Execute(context.Background())
	require.NoError(testInstance, executionError)

	require.Empty(testInstance, targetWriter.createdOrganizationVariables)
	require.Empty(testInstance, targetWriter.createdRepositoryVariables)

	require.True(testInstance, report.DryRun)
	require.Len(testInstance, report.Items, 4)
	for _, reportItem := range report.Items {
		require.Equal(testInstance, migration.ActionPlanned, reportItem.Action)
	}
	require.Empty(testInstance, report.Errors)
}

func TestVariableServiceRecordsOrganizationListingFailure(testInstance *testing.T) {
	sourceReader := &stubVariableSourceReader{organizationError: errors.New(testVariableListingFailureConstant)}
	migrationService, creationError := variables.NewService(variables.ServiceDependencies{
		Source: sourceReader,
		Target: &recordingVariableTargetWriter{},
	})
	require.NoError(testInstance, creationError)

	report, executionError := migrationService.Execute(context.Background())
	require.NoError(testInstance, executionError)
	require.Len(testInstance, report.Errors, 1)
}
