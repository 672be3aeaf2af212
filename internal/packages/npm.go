package packages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/orgmigrate/orgmigrate/internal/execshell"
	"github.com/orgmigrate/orgmigrate/internal/githubapi"
)

const (
	npmRegistryPublicHostConstant        = "npm.pkg.github.com"
	npmRegistrySubdomainTemplateConstant = "npm.%s"
	npmManifestURLTemplateConstant       = "https://%s/@%s/%s"
	npmVersionMissingErrorTemplate       = "npm manifest for %s has no version %s"
	npmTarballMissingErrorTemplate       = "npm manifest for %s@%s has no tarball"
	npmStagedFileCreateErrorTemplate     = "unable to create staged tarball %s: %w"
	npmrcFileNameConstant                = ".npmrc"
	npmrcWriteErrorTemplateConstant      = "unable to write npm auth file %s: %w"
	npmrcContentTemplateConstant         = "//%s/:_authToken=%s\n@%s:registry=https://%s\n"
	npmrcFilePermissionsConstant         = 0o600
	npmPublishArgumentConstant           = "publish"
	npmRegistryFlagTemplateConstant      = "--registry=https://%s"
)

type npmManifest struct {
	Versions map[string]struct {
		Dist struct {
			Tarball string `json:"tarball"`
		} `json:"dist"`
	} `json:"versions"`
}

// NpmExecutor runs the npm CLI for publication.
type NpmExecutor interface {
	ExecuteNpm(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// NpmEcosystem migrates npm packages: tarballs download from the source
// registry and republish through the npm CLI against the target registry.
type NpmEcosystem struct {
	source   *githubapi.Client
	target   *githubapi.Client
	staging  *StagingArea
	executor NpmExecutor
}

// NewNpmEcosystem constructs the npm migrator.
func NewNpmEcosystem(source *githubapi.Client, target *githubapi.Client, staging *StagingArea, executor NpmExecutor) *NpmEcosystem {
	return &NpmEcosystem{source: source, target: target, staging: staging, executor: executor}
}

// Name reports the ecosystem identity.
func (ecosystem *NpmEcosystem) Name() EcosystemName {
	return EcosystemNpm
}

// ResolveAssets extracts the tarball filename for the requested version from
// the registry manifest.
func (ecosystem *NpmEcosystem) ResolveAssets(requestContext context.Context, packageName string, version Version) ([]Asset, error) {
	manifestURL := fmt.Sprintf(
		npmManifestURLTemplateConstant,
		npmRegistryHost(ecosystem.source.Host()),
		ecosystem.source.Organization(),
		packageName,
	)

	var manifest npmManifest
	if manifestError := ecosystem.source.DownloadJSON(requestContext, manifestURL, &manifest); manifestError != nil {
		return nil, manifestError
	}

	versionMetadata, versionPresent := manifest.Versions[version.Name]
	if !versionPresent {
		return nil, fmt.Errorf(npmVersionMissingErrorTemplate, packageName, version.Name)
	}
	if len(versionMetadata.Dist.Tarball) == 0 {
		return nil, fmt.Errorf(npmTarballMissingErrorTemplate, packageName, version.Name)
	}

	tarballName := versionMetadata.Dist.Tarball[strings.LastIndex(versionMetadata.Dist.Tarball, "/")+1:]
	return []Asset{{Name: tarballName}}, nil
}

// FetchAsset downloads the version tarball into the staging tree.
func (ecosystem *NpmEcosystem) FetchAsset(requestContext context.Context, packageName string, version Version, asset Asset) (string, error) {
	if _, directoryError := ecosystem.staging.PackageDirectory(packageName); directoryError != nil {
		return "", directoryError
	}

	manifestURL := fmt.Sprintf(
		npmManifestURLTemplateConstant,
		npmRegistryHost(ecosystem.source.Host()),
		ecosystem.source.Organization(),
		packageName,
	)

	var manifest npmManifest
	if manifestError := ecosystem.source.DownloadJSON(requestContext, manifestURL, &manifest); manifestError != nil {
		return "", manifestError
	}
	versionMetadata, versionPresent := manifest.Versions[version.Name]
	if !versionPresent {
		return "", fmt.Errorf(npmVersionMissingErrorTemplate, packageName, version.Name)
	}

	stagedPath := ecosystem.staging.AssetPath(packageName, asset.Name)
	stagedFile, createError := os.Create(stagedPath)
	if createError != nil {
		return "", fmt.Errorf(npmStagedFileCreateErrorTemplate, stagedPath, createError)
	}

	downloadError := ecosystem.source.Download(requestContext, versionMetadata.Dist.Tarball, stagedFile)
	closeError := stagedFile.Close()
	if downloadError != nil {
		return "", downloadError
	}
	if closeError != nil {
		return "", closeError
	}

	return stagedPath, nil
}

// Publish writes a scoped auth file next to the tarball and runs npm publish
// against the target registry.
func (ecosystem *NpmEcosystem) Publish(requestContext context.Context, packageName string, version Version, stagedAssets []StagedAsset) error {
	packageDirectory, directoryError := ecosystem.staging.PackageDirectory(packageName)
	if directoryError != nil {
		return directoryError
	}

	targetRegistryHost := npmRegistryHost(ecosystem.target.Host())
	npmrcPath := filepath.Join(packageDirectory, npmrcFileNameConstant)
	npmrcContent := fmt.Sprintf(
		npmrcContentTemplateConstant,
		targetRegistryHost,
		ecosystem.target.Token(),
		ecosystem.target.Organization(),
		targetRegistryHost,
	)
	if writeError := os.WriteFile(npmrcPath, []byte(npmrcContent), npmrcFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(npmrcWriteErrorTemplateConstant, npmrcPath, writeError)
	}

	for _, stagedAsset := range stagedAssets {
		publishDetails := execshell.CommandDetails{
			Arguments: []string{
				npmPublishArgumentConstant,
				stagedAsset.Asset.Name,
				fmt.Sprintf(npmRegistryFlagTemplateConstant, targetRegistryHost),
			},
			WorkingDirectory: packageDirectory,
		}
		if _, publishError := ecosystem.executor.ExecuteNpm(requestContext, publishDetails); publishError != nil {
			return publishError
		}
	}

	return nil
}

func npmRegistryHost(platformHost string) string {
	if platformHost == publicGitHubHostConstant {
		return npmRegistryPublicHostConstant
	}
	return fmt.Sprintf(npmRegistrySubdomainTemplateConstant, platformHost)
}
