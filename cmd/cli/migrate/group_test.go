package migrate

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	testGroupSourceOrganizationConstant = "acme"
	testGroupTargetOrganizationConstant = "acme-emu"
	testGroupSourceTokenVariableConst   = "TEST_SOURCE_TOKEN"
	testGroupTargetTokenVariableConst   = "TEST_TARGET_TOKEN"
	testGroupTokenValueConstant         = "ghp_test_token"
)

func newResolveTargetsFixture(configuration Configuration) (*GroupBuilder, *cobra.Command) {
	builder := &GroupBuilder{
		ConfigurationProvider: func() Configuration { return configuration },
		TokenResolver: migration.NewTokenResolver(
			func(key string) (string, bool) {
				switch key {
				case testGroupSourceTokenVariableConst, testGroupTargetTokenVariableConst:
					return testGroupTokenValueConstant, true
				}
				return "", false
			},
			nil,
		),
	}

	command := &cobra.Command{Use: migrateCommandUseConstant}
	command.Flags().String(sourceOrganizationFlagNameConstant, "", sourceOrganizationFlagDescription)
	command.Flags().String(targetOrganizationFlagNameConstant, "", targetOrganizationFlagDescription)
	command.Flags().Bool(dryRunFlagNameConstant, true, dryRunFlagDescriptionConstant)

	return builder, command
}

func completeGroupConfiguration() Configuration {
	return Configuration{
		Source: migration.EndpointSettings{
			Organization: testGroupSourceOrganizationConstant,
			Host:         "github.com",
			TokenSource:  "env:" + testGroupSourceTokenVariableConst,
		},
		Target: migration.EndpointSettings{
			Organization: testGroupTargetOrganizationConstant,
			Host:         "github.com",
			TokenSource:  "env:" + testGroupTargetTokenVariableConst,
		},
		DryRun: true,
	}
}

func TestResolveTargetsBuildsBothClients(testInstance *testing.T) {
	builder, command := newResolveTargetsFixture(completeGroupConfiguration())

	resolvedTargets, resolveError := builder.resolveTargets(command)
	require.NoError(testInstance, resolveError)
	require.NoError(testInstance, resolvedTargets.Validate())
	require.True(testInstance, resolvedTargets.DryRun)
	require.Equal(testInstance, testGroupSourceOrganizationConstant, resolvedTargets.Source.Organization())
	require.Equal(testInstance, testGroupTargetOrganizationConstant, resolvedTargets.Target.Organization())
}

func TestResolveTargetsFlagOverridesConfiguration(testInstance *testing.T) {
	builder, command := newResolveTargetsFixture(completeGroupConfiguration())
	require.NoError(testInstance, command.Flags().Set(sourceOrganizationFlagNameConstant, "flag-org"))
	require.NoError(testInstance, command.Flags().Set(dryRunFlagNameConstant, "false"))

	resolvedTargets, resolveError := builder.resolveTargets(command)
	require.NoError(testInstance, resolveError)
	require.False(testInstance, resolvedTargets.DryRun)
	require.Equal(testInstance, "flag-org", resolvedTargets.Source.Organization())
}

func TestResolveTargetsFailsBeforeAPIOnMissingConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name   string
		mutate func(configuration Configuration) Configuration
	}{
		{
			name: "missing_source_organization",
			mutate: func(configuration Configuration) Configuration {
				configuration.Source.Organization = ""
				return configuration
			},
		},
		{
			name: "missing_target_organization",
			mutate: func(configuration Configuration) Configuration {
				configuration.Target.Organization = ""
				return configuration
			},
		},
		{
			name: "missing_source_token_source",
			mutate: func(configuration Configuration) Configuration {
				configuration.Source.TokenSource = ""
				return configuration
			},
		},
		{
			name: "unresolvable_target_token",
			mutate: func(configuration Configuration) Configuration {
				configuration.Target.TokenSource = "env:UNSET_VARIABLE"
				return configuration
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			builder, command := newResolveTargetsFixture(testCase.mutate(completeGroupConfiguration()))

			_, resolveError := builder.resolveTargets(command)
			require.Error(testInstance, resolveError)
		})
	}
}

func TestGroupBuilderBuildRegistersEverySubcommand(testInstance *testing.T) {
	builder, _ := newResolveTargetsFixture(completeGroupConfiguration())

	migrateCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	expectedSubcommands := map[string]bool{
		teamsSubcommandNameConstant:     false,
		variablesSubcommandNameConstant: false,
		secretsSubcommandNameConstant:   false,
		packagesSubcommandNameConstant:  false,
		lfsSubcommandNameConstant:       false,
	}
	for _, subcommand := range migrateCommand.Commands() {
		if _, expected := expectedSubcommands[subcommand.Name()]; expected {
			expectedSubcommands[subcommand.Name()] = true
		}
	}
	for subcommandName, found := range expectedSubcommands {
		require.True(testInstance, found, subcommandName)
	}
}
