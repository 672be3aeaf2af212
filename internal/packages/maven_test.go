package packages_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orgmigrate/orgmigrate/internal/packages"
)

const (
	testDottedPackageNameConstant   = "com.acme.widget"
	testFlatPackageNameConstant     = "widget"
	testDeepGroupPackageNameConst   = "org.example.tools.parser"
)

func TestParseMavenCoordinates(testInstance *testing.T) {
	testCases := []struct {
		name               string
		packageName        string
		expectedGroupID    string
		expectedArtifactID string
		expectedGroupPath  string
	}{
		{
			name:               "dotted_package_name",
			packageName:        testDottedPackageNameConstant,
			expectedGroupID:    "com.acme",
			expectedArtifactID: "widget",
			expectedGroupPath:  "com/acme",
		},
		{
			name:               "deep_group",
			packageName:        testDeepGroupPackageNameConst,
			expectedGroupID:    "org.example.tools",
			expectedArtifactID: "parser",
			expectedGroupPath:  "org/example/tools",
		},
		{
			name:               "flat_name_has_no_group",
			packageName:        testFlatPackageNameConstant,
			expectedGroupID:    "",
			expectedArtifactID: "widget",
			expectedGroupPath:  "",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			coordinates := packages.ParseMavenCoordinates(testCase.packageName)
			require.Equal(testInstance, testCase.expectedGroupID, coordinates.GroupID)
			require.Equal(testInstance, testCase.expectedArtifactID, coordinates.ArtifactID)
			require.Equal(testInstance, testCase.expectedGroupPath, coordinates.GroupPath())
		})
	}
}

func TestContentTypeForAsset(testInstance *testing.T) {
	testCases := []struct {
		name                string
		assetName           string
		expectedContentType string
	}{
		{
			name:                "pom_is_xml",
			assetName:           "widget-1.4.0.pom",
			expectedContentType: "application/xml",
		},
		{
			name:                "xml_is_xml",
			assetName:           "widget-1.4.0.module.xml",
			expectedContentType: "application/xml",
		},
		{
			name:                "jar_is_java_archive",
			assetName:           "widget-1.4.0.jar",
			expectedContentType: "application/java-archive",
		},
		{
			name:                "unknown_extension_is_octet_stream",
			assetName:           "widget-1.4.0.sha256",
			expectedContentType: "application/octet-stream",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedContentType, packages.ContentTypeForAsset(testCase.assetName))
		})
	}
}
