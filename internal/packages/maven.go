package packages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/orgmigrate/orgmigrate/internal/githubapi"
)

const (
	mavenFilesQueryNameConstant           = "MavenVersionFiles"
	mavenRegistryPublicHostConstant       = "maven.pkg.github.com"
	mavenRegistrySubdomainTemplateConst   = "maven.%s"
	mavenAssetURLTemplateConstant         = "https://%s/%s/%s/%s/%s/%s"
	mavenStagedFileCreateErrorTemplate    = "unable to create staged file %s: %w"
	mavenStagedFileOpenErrorTemplate      = "unable to open staged file %s: %w"
	pomFileExtensionConstant              = ".pom"
	xmlFileExtensionConstant              = ".xml"
	jarFileExtensionConstant              = ".jar"
	xmlContentTypeConstant                = "application/xml"
	javaArchiveContentTypeConstant        = "application/java-archive"
	octetStreamContentTypeConstant        = "application/octet-stream"
	publicGitHubHostConstant              = "github.com"
)

// MavenCoordinates splits a dotted package name into registry coordinates:
// the group is everything before the last dot, the artifact the last segment.
// A name with no dots is its own artifact with an empty group.
type MavenCoordinates struct {
	GroupID    string
	ArtifactID string
}

// ParseMavenCoordinates derives coordinates from the package name.
func ParseMavenCoordinates(packageName string) MavenCoordinates {
	lastDotIndex := strings.LastIndex(packageName, ".")
	if lastDotIndex < 0 {
		return MavenCoordinates{ArtifactID: packageName}
	}
	return MavenCoordinates{
		GroupID:    packageName[:lastDotIndex],
		ArtifactID: packageName[lastDotIndex+1:],
	}
}

// GroupPath returns the group id in slash-separated registry path form.
func (coordinates MavenCoordinates) GroupPath() string {
	return strings.ReplaceAll(coordinates.GroupID, ".", "/")
}

// ContentTypeForAsset selects the upload content type by file extension.
func ContentTypeForAsset(assetName string) string {
	switch strings.ToLower(filepath.Ext(assetName)) {
	case pomFileExtensionConstant, xmlFileExtensionConstant:
		return xmlContentTypeConstant
	case jarFileExtensionConstant:
		return javaArchiveContentTypeConstant
	}
	return octetStreamContentTypeConstant
}

type mavenVersionFilesQuery struct {
	Organization struct {
		Packages struct {
			Nodes []struct {
				Version struct {
					Files struct {
						Nodes []struct {
							Name string
						}
						PageInfo struct {
							HasNextPage bool
							EndCursor   string
						}
					} `graphql:"files(first: 100, after: $filesCursor)"`
				} `graphql:"version(version: $versionName)"`
			}
		} `graphql:"packages(first: 1, names: [$packageName], packageType: MAVEN)"`
	} `graphql:"organization(login: $organizationLogin)"`
}

// MavenEcosystem migrates Maven/Gradle packages through the maven registry.
type MavenEcosystem struct {
	source  *githubapi.Client
	target  *githubapi.Client
	staging *StagingArea
}

// NewMavenEcosystem constructs the maven migrator.
func NewMavenEcosystem(source *githubapi.Client, target *githubapi.Client, staging *StagingArea) *MavenEcosystem {
	return &MavenEcosystem{source: source, target: target, staging: staging}
}

// Name reports the ecosystem identity.
func (ecosystem *MavenEcosystem) Name() EcosystemName {
	return EcosystemMaven
}

// ResolveAssets drains the GraphQL file listing for one version. The
// has-next-page flag is authoritative; a short page never ends the drain.
func (ecosystem *MavenEcosystem) ResolveAssets(requestContext context.Context, packageName string, version Version) ([]Asset, error) {
	assets := []Asset{}
	var filesCursor *string

	for {
		queryVariables := map[string]any{
			"organizationLogin": ecosystem.source.Organization(),
			"packageName":       packageName,
			"versionName":       version.Name,
			"filesCursor":       filesCursor,
		}

		var query mavenVersionFilesQuery
		if queryError := ecosystem.source.Query(requestContext, mavenFilesQueryNameConstant, &query, queryVariables); queryError != nil {
			return nil, queryError
		}

		if len(query.Organization.Packages.Nodes) == 0 {
			return assets, nil
		}

		files := query.Organization.Packages.Nodes[0].Version.Files
		for _, fileNode := range files.Nodes {
			assets = append(assets, Asset{Name: fileNode.Name})
		}

		if !files.PageInfo.HasNextPage {
			return assets, nil
		}
		nextCursor := files.PageInfo.EndCursor
		filesCursor = &nextCursor
	}
}

// FetchAsset downloads one registry file into the staging tree.
func (ecosystem *MavenEcosystem) FetchAsset(requestContext context.Context, packageName string, version Version, asset Asset) (string, error) {
	if _, directoryError := ecosystem.staging.PackageDirectory(packageName); directoryError != nil {
		return "", directoryError
	}

	stagedPath := ecosystem.staging.AssetPath(packageName, asset.Name)
	stagedFile, createError := os.Create(stagedPath)
	if createError != nil {
		return "", fmt.Errorf(mavenStagedFileCreateErrorTemplate, stagedPath, createError)
	}

	downloadURL := ecosystem.assetURL(ecosystem.source, packageName, version, asset)
	downloadError := ecosystem.source.Download(requestContext, downloadURL, stagedFile)
	closeError := stagedFile.Close()
	if downloadError != nil {
		return "", downloadError
	}
	if closeError != nil {
		return "", closeError
	}

	return stagedPath, nil
}

// Publish uploads every staged file with its extension-derived content type.
func (ecosystem *MavenEcosystem) Publish(requestContext context.Context, packageName string, version Version, stagedAssets []StagedAsset) error {
	for _, stagedAsset := range stagedAssets {
		stagedFile, openError := os.Open(stagedAsset.Path)
		if openError != nil {
			return fmt.Errorf(mavenStagedFileOpenErrorTemplate, stagedAsset.Path, openError)
		}

		uploadURL := ecosystem.assetURL(ecosystem.target, packageName, version, stagedAsset.Asset)
		uploadError := ecosystem.target.Upload(requestContext, uploadURL, ContentTypeForAsset(stagedAsset.Asset.Name), stagedFile)
		closeError := stagedFile.Close()
		if uploadError != nil {
			return uploadError
		}
		if closeError != nil {
			return closeError
		}
	}

	return nil
}

func (ecosystem *MavenEcosystem) assetURL(client *githubapi.Client, packageName string, version Version, asset Asset) string {
	coordinates := ParseMavenCoordinates(packageName)
	return fmt.Sprintf(
		mavenAssetURLTemplateConstant,
		mavenRegistryHost(client.Host()),
		client.Organization(),
		coordinates.GroupPath(),
		coordinates.ArtifactID,
		version.Name,
		asset.Name,
	)
}

func mavenRegistryHost(platformHost string) string {
	if platformHost == publicGitHubHostConstant {
		return mavenRegistryPublicHostConstant
	}
	return fmt.Sprintf(mavenRegistrySubdomainTemplateConst, platformHost)
}
