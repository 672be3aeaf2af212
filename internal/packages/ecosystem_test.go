package packages_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orgmigrate/orgmigrate/internal/packages"
)

func TestParseEcosystemName(testInstance *testing.T) {
	testCases := []struct {
		name          string
		candidate     string
		expectedValue packages.EcosystemName
		expectError   bool
	}{
		{
			name:          "npm_recognized",
			candidate:     "npm",
			expectedValue: packages.EcosystemNpm,
		},
		{
			name:          "container_recognized",
			candidate:     "container",
			expectedValue: packages.EcosystemContainer,
		},
		{
			name:          "maven_recognized",
			candidate:     "maven",
			expectedValue: packages.EcosystemMaven,
		},
		{
			name:          "nuget_parses_without_migrator",
			candidate:     "nuget",
			expectedValue: packages.EcosystemNuget,
		},
		{
			name:          "rubygems_parses_without_migrator",
			candidate:     "rubygems",
			expectedValue: packages.EcosystemRubygems,
		},
		{
			name:          "case_and_spacing_normalized",
			candidate:     "  Maven ",
			expectedValue: packages.EcosystemMaven,
		},
		{
			name:        "unknown_type_rejected",
			candidate:   "cargo",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedName, parseError := packages.ParseEcosystemName(testCase.candidate)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}

			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedValue, parsedName)
		})
	}
}

func TestUnsupportedEcosystemErrorNamesTheType(testInstance *testing.T) {
	unsupportedError := packages.UnsupportedEcosystemError{Name: packages.EcosystemNuget}
	require.Contains(testInstance, unsupportedError.Error(), "nuget")
}
