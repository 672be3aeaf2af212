package packages

import (
	"context"
	"fmt"
	"net/url"

	"github.com/orgmigrate/orgmigrate/internal/execshell"
	"github.com/orgmigrate/orgmigrate/internal/githubapi"
)

const (
	containerRegistryPublicHostConstant    = "ghcr.io"
	containerRegistrySubdomainTemplate     = "containers.%s"
	containerVersionPathTemplateConstant   = "orgs/%s/packages/container/%s/versions/%d"
	containerImageReferenceTemplate        = "%s/%s/%s:%s"
	dockerPullArgumentConstant             = "pull"
	dockerTagArgumentConstant              = "tag"
	dockerPushArgumentConstant             = "push"
)

type containerVersionDetail struct {
	Metadata struct {
		Container struct {
			Tags []string `json:"tags"`
		} `json:"container"`
	} `json:"metadata"`
}

// DockerExecutor runs the docker CLI for image transfer.
type DockerExecutor interface {
	ExecuteDocker(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ContainerEcosystem migrates container images: every tag of a version is
// pulled from the source registry, retagged, and pushed to the target.
type ContainerEcosystem struct {
	source   *githubapi.Client
	target   *githubapi.Client
	executor DockerExecutor
}

// NewContainerEcosystem constructs the container migrator.
func NewContainerEcosystem(source *githubapi.Client, target *githubapi.Client, executor DockerExecutor) *ContainerEcosystem {
	return &ContainerEcosystem{source: source, target: target, executor: executor}
}

// Name reports the ecosystem identity.
func (ecosystem *ContainerEcosystem) Name() EcosystemName {
	return EcosystemContainer
}

// ResolveAssets lists the tags recorded against the version, most recent
// first as the platform returns them.
func (ecosystem *ContainerEcosystem) ResolveAssets(requestContext context.Context, packageName string, version Version) ([]Asset, error) {
	versionPath := fmt.Sprintf(containerVersionPathTemplateConstant, ecosystem.source.Organization(), url.PathEscape(packageName), version.ID)

	var detail containerVersionDetail
	if requestError := ecosystem.source.Get(requestContext, versionPath, &detail); requestError != nil {
		return nil, requestError
	}

	tagAssets := make([]Asset, 0, len(detail.Metadata.Container.Tags))
	for _, tagName := range detail.Metadata.Container.Tags {
		tagAssets = append(tagAssets, Asset{Name: tagName})
	}

	return tagAssets, nil
}

// FetchAsset pulls the tagged image into the local docker daemon. Images
// stage in the daemon, not the filesystem, so the staged path is empty.
func (ecosystem *ContainerEcosystem) FetchAsset(requestContext context.Context, packageName string, version Version, asset Asset) (string, error) {
	sourceReference := ecosystem.imageReference(ecosystem.source, packageName, asset.Name)
	pullDetails := execshell.CommandDetails{Arguments: []string{dockerPullArgumentConstant, sourceReference}}
	if _, pullError := ecosystem.executor.ExecuteDocker(requestContext, pullDetails); pullError != nil {
		return "", pullError
	}
	return "", nil
}

// Publish retags every pulled image for the target registry and pushes it.
func (ecosystem *ContainerEcosystem) Publish(requestContext context.Context, packageName string, version Version, stagedAssets []StagedAsset) error {
	for _, stagedAsset := range stagedAssets {
		sourceReference := ecosystem.imageReference(ecosystem.source, packageName, stagedAsset.Asset.Name)
		targetReference := ecosystem.imageReference(ecosystem.target, packageName, stagedAsset.Asset.Name)

		tagDetails := execshell.CommandDetails{Arguments: []string{dockerTagArgumentConstant, sourceReference, targetReference}}
		if _, tagError := ecosystem.executor.ExecuteDocker(requestContext, tagDetails); tagError != nil {
			return tagError
		}

		pushDetails := execshell.CommandDetails{Arguments: []string{dockerPushArgumentConstant, targetReference}}
		if _, pushError := ecosystem.executor.ExecuteDocker(requestContext, pushDetails); pushError != nil {
			return pushError
		}
	}

	return nil
}

func (ecosystem *ContainerEcosystem) imageReference(client *githubapi.Client, packageName string, tagName string) string {
	return fmt.Sprintf(
		containerImageReferenceTemplate,
		containerRegistryHost(client.Host()),
		client.Organization(),
		packageName,
		tagName,
	)
}

func containerRegistryHost(platformHost string) string {
	if platformHost == publicGitHubHostConstant {
		return containerRegistryPublicHostConstant
	}
	return fmt.Sprintf(containerRegistrySubdomainTemplate, platformHost)
}
