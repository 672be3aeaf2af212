package packages

import (
	"context"
	"fmt"
	"net/url"

	"github.com/orgmigrate/orgmigrate/internal/githubapi"
)

const (
	listPackagesPathTemplateConstant        = "orgs/%s/packages?package_type=%s&per_page=%d&page=%d"
	listPackageVersionsPathTemplateConstant = "orgs/%s/packages/%s/%s/versions?per_page=%d&page=%d"
)

// Inventory enumerates packages and versions for one organization.
type Inventory interface {
	ListPackageNames(requestContext context.Context, ecosystemName EcosystemName) ([]string, error)
	ListVersions(requestContext context.Context, ecosystemName EcosystemName, packageName string) ([]Version, error)
}

type packageListEntry struct {
	Name string `json:"name"`
}

type versionListEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RESTInventory implements Inventory over the REST packages API.
type RESTInventory struct {
	client *githubapi.Client
}

// NewRESTInventory constructs an inventory bound to one client.
func NewRESTInventory(client *githubapi.Client) *RESTInventory {
	return &RESTInventory{client: client}
}

// ListPackageNames drains the organization package listing for one ecosystem.
func (inventory *RESTInventory) ListPackageNames(requestContext context.Context, ecosystemName EcosystemName) ([]string, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]packageListEntry, error) {
			listPath := fmt.Sprintf(listPackagesPathTemplateConstant, inventory.client.Organization(), ecosystemName, pageSize, pageNumber)
			var pageEntries []packageListEntry
			if requestError := inventory.client.Get(pageContext, listPath, &pageEntries); requestError != nil {
				return nil, requestError
			}
			return pageEntries, nil
		})
	if paginationError != nil {
		return nil, paginationError
	}

	packageNames := make([]string, 0, len(entries))
	for _, entry := range entries {
		packageNames = append(packageNames, entry.Name)
	}

	return packageNames, nil
}

// ListVersions drains the version listing for one package. A missing package
// at the destination resolves to an empty listing, not an error.
func (inventory *RESTInventory) ListVersions(requestContext context.Context, ecosystemName EcosystemName, packageName string) ([]Version, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]versionListEntry, error) {
			listPath := fmt.Sprintf(listPackageVersionsPathTemplateConstant, inventory.client.Organization(), ecosystemName, url.PathEscape(packageName), pageSize, pageNumber)
			var pageEntries []versionListEntry
			if requestError := inventory.client.Get(pageContext, listPath, &pageEntries); requestError != nil {
				return nil, requestError
			}
			return pageEntries, nil
		})
	if paginationError != nil {
		if githubapi.IsNotFound(paginationError) {
			return nil, nil
		}
		return nil, paginationError
	}

	versions := make([]Version, 0, len(entries))
	for _, entry := range entries {
		versions = append(versions, Version{ID: entry.ID, Name: entry.Name})
	}

	return versions, nil
}
