package lfs

import (
	"context"
	"fmt"
	"net/url"

	"github.com/orgmigrate/orgmigrate/internal/githubapi"
)

const (
	listRepositoriesPathTemplateConstant = "orgs/%s/repos?per_page=%d&page=%d"
	repositoryProbePathTemplateConstant  = "repos/%s/%s"
	remoteURLTemplateConstant            = "https://x-access-token:%s@%s/%s/%s.git"
)

// SourceReader enumerates repositories on the source organization.
type SourceReader interface {
	ListRepositoryNames(requestContext context.Context) ([]string, error)
}

// TargetProber checks destination repository existence.
type TargetProber interface {
	RepositoryExists(requestContext context.Context, repositoryName string) (bool, error)
}

// RemoteURLBuilder renders an authenticated git remote for one repository.
type RemoteURLBuilder func(repositoryName string) string

type repositoryListEntry struct {
	Name string `json:"name"`
}

// RESTSourceReader implements SourceReader over the REST API.
type RESTSourceReader struct {
	client *githubapi.Client
}

// NewRESTSourceReader constructs a reader bound to the source client.
func NewRESTSourceReader(client *githubapi.Client) *RESTSourceReader {
	return &RESTSourceReader{client: client}
}

// ListRepositoryNames drains the organization repository listing.
func (reader *RESTSourceReader) ListRepositoryNames(requestContext context.Context) ([]string, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]repositoryListEntry, error) {
			listPath := fmt.Sprintf(listRepositoriesPathTemplateConstant, reader.client.Organization(), pageSize, pageNumber)
			var pageEntries []repositoryListEntry
			if requestError := reader.client.Get(pageContext, listPath, &pageEntries); requestError != nil {
				return nil, requestError
			}
			return pageEntries, nil
		})
	if paginationError != nil {
		return nil, paginationError
	}

	repositoryNames := make([]string, 0, len(entries))
	for _, entry := range entries {
		repositoryNames = append(repositoryNames, entry.Name)
	}

	return repositoryNames, nil
}

// RESTTargetProber implements TargetProber over the REST API.
type RESTTargetProber struct {
	client *githubapi.Client
}

// NewRESTTargetProber constructs a prober bound to the target client.
func NewRESTTargetProber(client *githubapi.Client) *RESTTargetProber {
	return &RESTTargetProber{client: client}
}

// RepositoryExists probes the destination repository.
func (prober *RESTTargetProber) RepositoryExists(requestContext context.Context, repositoryName string) (bool, error) {
	probePath := fmt.Sprintf(repositoryProbePathTemplateConstant, prober.client.Organization(), url.PathEscape(repositoryName))
	return prober.client.Exists(requestContext, probePath)
}

// NewRemoteURLBuilder renders token-authenticated https remotes for the
// supplied client's organization.
func NewRemoteURLBuilder(client *githubapi.Client) RemoteURLBuilder {
	return func(repositoryName string) string {
		return fmt.Sprintf(remoteURLTemplateConstant, client.Token(), client.Host(), client.Organization(), repositoryName)
	}
}
