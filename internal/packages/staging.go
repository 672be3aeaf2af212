package packages

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	stagingResetErrorTemplateConstant  = "unable to reset staging directory %s: %w"
	stagingCreateErrorTemplateConstant = "unable to create staging directory %s: %w"
	stagingDirectoryPermissions        = 0o755
)

// StagingArea manages the local packages/<name>/<file> download tree.
type StagingArea struct {
	rootDirectory string
}

// NewStagingArea binds a staging area to the supplied root directory.
func NewStagingArea(rootDirectory string) *StagingArea {
	if len(rootDirectory) == 0 {
		rootDirectory = DefaultStagingDirectory
	}
	return &StagingArea{rootDirectory: rootDirectory}
}

// Root returns the staging root directory.
func (staging *StagingArea) Root() string {
	return staging.rootDirectory
}

// Reset removes any previous staging tree and recreates the root. Live runs
// call this once before downloading so stale artifacts never get republished.
func (staging *StagingArea) Reset() error {
	if removeError := os.RemoveAll(staging.rootDirectory); removeError != nil {
		return fmt.Errorf(stagingResetErrorTemplateConstant, staging.rootDirectory, removeError)
	}
	if createError := os.MkdirAll(staging.rootDirectory, stagingDirectoryPermissions); createError != nil {
		return fmt.Errorf(stagingCreateErrorTemplateConstant, staging.rootDirectory, createError)
	}
	return nil
}

// PackageDirectory returns (and creates) the directory for one package.
func (staging *StagingArea) PackageDirectory(packageName string) (string, error) {
	packageDirectory := filepath.Join(staging.rootDirectory, packageName)
	if createError := os.MkdirAll(packageDirectory, stagingDirectoryPermissions); createError != nil {
		return "", fmt.Errorf(stagingCreateErrorTemplateConstant, packageDirectory, createError)
	}
	return packageDirectory, nil
}

// AssetPath returns the staging path for one asset file without creating it.
func (staging *StagingArea) AssetPath(packageName string, assetName string) string {
	return filepath.Join(staging.rootDirectory, packageName, assetName)
}
