package packages

import (
	"context"
	"fmt"
	"strings"
)

const (
	npmEcosystemValueConstant               = "npm"
	containerEcosystemValueConstant         = "container"
	mavenEcosystemValueConstant             = "maven"
	nugetEcosystemValueConstant             = "nuget"
	rubygemsEcosystemValueConstant          = "rubygems"
	unknownEcosystemErrorTemplateConstant   = "unknown package type %q"
	unsupportedEcosystemErrorTemplateConst  = "package type %s is recognized but not yet supported for migration"
)

// EcosystemName identifies one package ecosystem.
type EcosystemName string

// Recognized package ecosystems. Nuget and rubygems parse but have no
// migration support yet; dispatch reports them as unsupported.
const (
	EcosystemNpm       EcosystemName = EcosystemName(npmEcosystemValueConstant)
	EcosystemContainer EcosystemName = EcosystemName(containerEcosystemValueConstant)
	EcosystemMaven     EcosystemName = EcosystemName(mavenEcosystemValueConstant)
	EcosystemNuget     EcosystemName = EcosystemName(nugetEcosystemValueConstant)
	EcosystemRubygems  EcosystemName = EcosystemName(rubygemsEcosystemValueConstant)
)

// ParseEcosystemName validates a package type value.
func ParseEcosystemName(candidateValue string) (EcosystemName, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(candidateValue))
	switch EcosystemName(normalizedValue) {
	case EcosystemNpm, EcosystemContainer, EcosystemMaven, EcosystemNuget, EcosystemRubygems:
		return EcosystemName(normalizedValue), nil
	}
	return "", fmt.Errorf(unknownEcosystemErrorTemplateConstant, candidateValue)
}

// UnsupportedEcosystemError reports a recognized ecosystem without a migrator.
type UnsupportedEcosystemError struct {
	Name EcosystemName
}

// Error describes the unsupported ecosystem.
func (unsupportedError UnsupportedEcosystemError) Error() string {
	return fmt.Sprintf(unsupportedEcosystemErrorTemplateConst, unsupportedError.Name)
}

// Package identifies one package within the source organization.
type Package struct {
	Name     string
	Versions []Version
}

// Version is one published version of a package.
type Version struct {
	ID   int64
	Name string
}

// Asset identifies one transferable artifact of a package version: a file
// name for registry ecosystems, a tag for container images.
type Asset struct {
	Name string
}

// Ecosystem implements per-type asset discovery, transfer, and publication.
type Ecosystem interface {
	Name() EcosystemName
	// ResolveAssets lists the assets of one version. Failures surface as an
	// error so the driver can warn and continue with an empty list.
	ResolveAssets(requestContext context.Context, packageName string, version Version) ([]Asset, error)
	// FetchAsset downloads one asset into the staging area and returns the
	// staged file path (empty for ecosystems that stage out-of-band).
	FetchAsset(requestContext context.Context, packageName string, version Version, asset Asset) (string, error)
	// Publish pushes the staged assets of one version to the destination.
	Publish(requestContext context.Context, packageName string, version Version, stagedAssets []StagedAsset) error
}

// StagedAsset pairs an asset with its local staging path.
type StagedAsset struct {
	Asset Asset
	Path  string
}
