package variables

import (
	"context"
	"fmt"
	"net/url"

	"github.com/orgmigrate/orgmigrate/internal/githubapi"
)

const (
	listOrganizationVariablesPathTemplate  = "orgs/%s/actions/variables?per_page=%d&page=%d"
	listSelectedRepositoriesPathTemplate   = "orgs/%s/actions/variables/%s/repositories?per_page=%d&page=%d"
	listOrganizationReposPathTemplate      = "orgs/%s/repos?per_page=%d&page=%d"
	listRepositoryVariablesPathTemplate    = "repos/%s/%s/actions/variables?per_page=%d&page=%d"
	createOrganizationVariablePathTemplate = "orgs/%s/actions/variables"
	organizationVariablePathTemplate       = "orgs/%s/actions/variables/%s"
	createRepositoryVariablePathTemplate   = "repos/%s/%s/actions/variables"
	repositoryVariablePathTemplate         = "repos/%s/%s/actions/variables/%s"
	repositoryLookupPathTemplate           = "repos/%s/%s"
)

// SourceReader enumerates variables on the source organization.
type SourceReader interface {
	ListOrganizationVariables(requestContext context.Context) ([]OrganizationVariable, error)
	ListRepositoryNames(requestContext context.Context) ([]string, error)
	ListRepositoryVariables(requestContext context.Context, repositoryName string) ([]RepositoryVariable, error)
}

// TargetWriter performs variable mutations on the destination organization.
type TargetWriter interface {
	OrganizationVariableExists(requestContext context.Context, variableName string) (bool, error)
	CreateOrganizationVariable(requestContext context.Context, variable OrganizationVariable) error
	RepositoryExists(requestContext context.Context, repositoryName string) (bool, error)
	RepositoryVariableExists(requestContext context.Context, repositoryName string, variableName string) (bool, error)
	CreateRepositoryVariable(requestContext context.Context, variable RepositoryVariable) error
}

type variableListEntry struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Visibility string `json:"visibility"`
}

type variableListPage struct {
	Variables []variableListEntry `json:"variables"`
}

type repositoryListEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type selectedRepositoriesPage struct {
	Repositories []repositoryListEntry `json:"repositories"`
}

type createOrganizationVariablePayload struct {
	Name                  string  `json:"name"`
	Value                 string  `json:"value"`
	Visibility            string  `json:"visibility,omitempty"`
	SelectedRepositoryIDs []int64 `json:"selected_repository_ids,omitempty"`
}

type createRepositoryVariablePayload struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RESTSourceReader implements SourceReader over the REST API.
type RESTSourceReader struct {
	client *githubapi.Client
}

// NewRESTSourceReader constructs a reader bound to the source client.
func NewRESTSourceReader(client *githubapi.Client) *RESTSourceReader {
	return &RESTSourceReader{client: client}
}

// ListOrganizationVariables drains the org variable listing; variables with
// selected visibility also resolve their granted repository names.
func (reader *RESTSourceReader) ListOrganizationVariables(requestContext context.Context) ([]OrganizationVariable, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]variableListEntry, error) {
			listPath := fmt.Sprintf(listOrganizationVariablesPathTemplate, reader.client.Organization(), pageSize, pageNumber)
			var page variableListPage
			if requestError := reader.client.Get(pageContext, listPath, &page); requestError != nil {
				return nil, requestError
			}
			return page.Variables, nil
		})
	if paginationError != nil {
		return nil, paginationError
	}

	organizationVariables := make([]OrganizationVariable, 0, len(entries))
	for _, entry := range entries {
		organizationVariable := OrganizationVariable{
			Name:       entry.Name,
			Value:      entry.Value,
			Visibility: Visibility(entry.Visibility),
		}

		if organizationVariable.Visibility == VisibilitySelected {
			selectedNames, selectionError := reader.listSelectedRepositoryNames(requestContext, entry.Name)
			if selectionError != nil {
				return nil, selectionError
			}
			organizationVariable.SelectedRepositoryNames = selectedNames
		}

		organizationVariables = append(organizationVariables, organizationVariable)
	}

	return organizationVariables, nil
}

func (reader *RESTSourceReader) listSelectedRepositoryNames(requestContext context.Context, variableName string) ([]string, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]repositoryListEntry, error) {
			listPath := fmt.Sprintf(listSelectedRepositoriesPathTemplate, reader.client.Organization(), url.PathEscape(variableName), pageSize, pageNumber)
			var page selectedRepositoriesPage
			if requestError := reader.client.Get(pageContext, listPath, &page); requestError != nil {
				return nil, requestError
			}
			return page.Repositories, nil
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

// ListRepositoryNames drains the organization repository listing.
func (reader *RESTSourceReader) ListRepositoryNames(requestContext context.Context) ([]string, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]repositoryListEntry, error) {
			listPath := fmt.Sprintf(listOrganizationReposPathTemplate, reader.client.Organization(), pageSize, pageNumber)
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

// ListRepositoryVariables drains the variable listing for one repository.
func (reader *RESTSourceReader) ListRepositoryVariables(requestContext context.Context, repositoryName string) ([]RepositoryVariable, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]variableListEntry, error) {
			listPath := fmt.Sprintf(listRepositoryVariablesPathTemplate, reader.client.Organization(), url.PathEscape(repositoryName), pageSize, pageNumber)
			var page variableListPage
			if requestError := reader.client.Get(pageContext, listPath, &page); requestError != nil {
				return nil, requestError
			}
			return page.Variables, nil
		})
	if paginationError != nil {
		return nil, paginationError
	}

	repositoryVariables := make([]RepositoryVariable, 0, len(entries))
	for _, entry := range entries {
		repositoryVariables = append(repositoryVariables, RepositoryVariable{
			RepositoryName: repositoryName,
			Name:           entry.Name,
			Value:          entry.Value,
		})
	}

	return repositoryVariables, nil
}

// RESTTargetWriter implements TargetWriter over the REST API.
type RESTTargetWriter struct {
	client *githubapi.Client
}

// NewRESTTargetWriter constructs a writer bound to the target client.
func NewRESTTargetWriter(client *githubapi.Client) *RESTTargetWriter {
	return &RESTTargetWriter{client: client}
}

// OrganizationVariableExists probes the destination org variable.
func (writer *RESTTargetWriter) OrganizationVariableExists(requestContext context.Context, variableName string) (bool, error) {
	probePath := fmt.Sprintf(organizationVariablePathTemplate, writer.client.Organization(), url.PathEscape(variableName))
	return writer.client.Exists(requestContext, probePath)
}

// CreateOrganizationVariable creates the variable with identical value and
// visibility; selected-repository grants are remapped to destination ids.
func (writer *RESTTargetWriter) CreateOrganizationVariable(requestContext context.Context, variable OrganizationVariable) error {
	payload := createOrganizationVariablePayload{
		Name:       variable.Name,
		Value:      variable.Value,
		Visibility: string(variable.Visibility),
	}

	if variable.Visibility == VisibilitySelected {
		for _, repositoryName := range variable.SelectedRepositoryNames {
			repositoryID, lookupError := writer.lookupRepositoryID(requestContext, repositoryName)
			if lookupError != nil {
				return lookupError
			}
			if repositoryID == 0 {
				continue
			}
			payload.SelectedRepositoryIDs = append(payload.SelectedRepositoryIDs, repositoryID)
		}
	}

	createPath := fmt.Sprintf(createOrganizationVariablePathTemplate, writer.client.Organization())
	return writer.client.Post(requestContext, createPath, payload, nil)
}

// lookupRepositoryID resolves a destination repository id by name; a missing
// repository resolves to zero so the grant is simply dropped.
func (writer *RESTTargetWriter) lookupRepositoryID(requestContext context.Context, repositoryName string) (int64, error) {
	lookupPath := fmt.Sprintf(repositoryLookupPathTemplate, writer.client.Organization(), url.PathEscape(repositoryName))

	var repository repositoryListEntry
	requestError := writer.client.Get(requestContext, lookupPath, &repository)
	if requestError != nil {
		if githubapi.IsNotFound(requestError) {
			return 0, nil
		}
		return 0, requestError
	}

	return repository.ID, nil
}

// RepositoryExists probes the destination repository.
func (writer *RESTTargetWriter) RepositoryExists(requestContext context.Context, repositoryName string) (bool, error) {
	probePath := fmt.Sprintf(repositoryLookupPathTemplate, writer.client.Organization(), url.PathEscape(repositoryName))
	return writer.client.Exists(requestContext, probePath)
}

// RepositoryVariableExists probes the destination repo variable.
func (writer *RESTTargetWriter) RepositoryVariableExists(requestContext context.Context, repositoryName string, variableName string) (bool, error) {
	probePath := fmt.Sprintf(repositoryVariablePathTemplate, writer.client.Organization(), url.PathEscape(repositoryName), url.PathEscape(variableName))
	return writer.client.Exists(requestContext, probePath)
}

// CreateRepositoryVariable creates the repo-scoped variable.
func (writer *RESTTargetWriter) CreateRepositoryVariable(requestContext context.Context, variable RepositoryVariable) error {
	createPath := fmt.Sprintf(createRepositoryVariablePathTemplate, writer.client.Organization(), url.PathEscape(variable.RepositoryName))
	payload := createRepositoryVariablePayload{Name: variable.Name, Value: variable.Value}
	return writer.client.Post(requestContext, createPath, payload, nil)
}
