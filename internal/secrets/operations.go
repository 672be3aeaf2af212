package secrets

import (
	"context"
	"fmt"
	"net/url"

	"github.com/orgmigrate/orgmigrate/internal/githubapi"
)

const (
	listOrganizationSecretsPathTemplate   = "orgs/%s/actions/secrets?per_page=%d&page=%d"
	organizationSecretPathTemplate        = "orgs/%s/actions/secrets/%s"
	listSecretRepositoriesPathTemplate    = "orgs/%s/actions/secrets/%s/repositories?per_page=%d&page=%d"
	organizationPublicKeyPathTemplate     = "orgs/%s/actions/secrets/public-key"
	listRepositorySecretsPathTemplate     = "repos/%s/%s/actions/secrets?per_page=%d&page=%d"
	repositorySecretPathTemplate          = "repos/%s/%s/actions/secrets/%s"
	repositoryPublicKeyPathTemplate       = "repos/%s/%s/actions/secrets/public-key"
	listSecretSourceReposPathTemplate     = "orgs/%s/repos?per_page=%d&page=%d"
	secretRepositoryLookupPathTemplate    = "repos/%s/%s"
	selectedVisibilityConstant            = "selected"
)

// OrganizationSecretMetadata describes one org secret without its value.
type OrganizationSecretMetadata struct {
	Name                    string
	Visibility              string
	SelectedRepositoryNames []string
}

// SourceReader enumerates secret names and metadata on the source organization.
type SourceReader interface {
	ListOrganizationSecrets(requestContext context.Context) ([]OrganizationSecretMetadata, error)
	GetOrganizationSecret(requestContext context.Context, secretName string) (OrganizationSecretMetadata, error)
	ListRepositoryNames(requestContext context.Context) ([]string, error)
	ListRepositorySecretNames(requestContext context.Context, repositoryName string) ([]string, error)
}

// TargetWriter performs secret mutations on the destination organization.
// Public keys are fetched fresh before each create so a key rotation between
// rows never produces an undecryptable ciphertext.
type TargetWriter interface {
	GetOrganizationPublicKey(requestContext context.Context) (PublicKey, error)
	GetRepositoryPublicKey(requestContext context.Context, repositoryName string) (PublicKey, error)
	PutOrganizationSecret(requestContext context.Context, secretName string, encryptedValue string, keyID string, visibility string, selectedRepositoryNames []string) error
	PutRepositorySecret(requestContext context.Context, repositoryName string, secretName string, encryptedValue string, keyID string) error
	RepositoryExists(requestContext context.Context, repositoryName string) (bool, error)
}

type secretListEntry struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
}

type secretListPage struct {
	Secrets []secretListEntry `json:"secrets"`
}

type secretRepositoryEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type secretRepositoriesPage struct {
	Repositories []secretRepositoryEntry `json:"repositories"`
}

type putOrganizationSecretPayload struct {
	EncryptedValue        string  `json:"encrypted_value"`
	KeyID                 string  `json:"key_id"`
	Visibility            string  `json:"visibility,omitempty"`
	SelectedRepositoryIDs []int64 `json:"selected_repository_ids,omitempty"`
}

type putRepositorySecretPayload struct {
	EncryptedValue string `json:"encrypted_value"`
	KeyID          string `json:"key_id"`
}

// RESTSourceReader implements SourceReader over the REST API.
type RESTSourceReader struct {
	client *githubapi.Client
}

// NewRESTSourceReader constructs a reader bound to the source client.
func NewRESTSourceReader(client *githubapi.Client) *RESTSourceReader {
	return &RESTSourceReader{client: client}
}

// Organization reports the source organization name for discovery output.
func (reader *RESTSourceReader) Organization() string {
	return reader.client.Organization()
}

// ListOrganizationSecrets drains the org secret listing.
func (reader *RESTSourceReader) ListOrganizationSecrets(requestContext context.Context) ([]OrganizationSecretMetadata, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]secretListEntry, error) {
			listPath := fmt.Sprintf(listOrganizationSecretsPathTemplate, reader.client.Organization(), pageSize, pageNumber)
			var page secretListPage
			if requestError := reader.client.Get(pageContext, listPath, &page); requestError != nil {
				return nil, requestError
			}
			return page.Secrets, nil
		})
	if paginationError != nil {
		return nil, paginationError
	}

	organizationSecrets := make([]OrganizationSecretMetadata, 0, len(entries))
	for _, entry := range entries {
		organizationSecrets = append(organizationSecrets, OrganizationSecretMetadata{
			Name:       entry.Name,
			Visibility: entry.Visibility,
		})
	}

	return organizationSecrets, nil
}

// GetOrganizationSecret fetches visibility metadata for one org secret,
// resolving the selected-repository grants when applicable.
func (reader *RESTSourceReader) GetOrganizationSecret(requestContext context.Context, secretName string) (OrganizationSecretMetadata, error) {
	secretPath := fmt.Sprintf(organizationSecretPathTemplate, reader.client.Organization(), url.PathEscape(secretName))

	var entry secretListEntry
	if requestError := reader.client.Get(requestContext, secretPath, &entry); requestError != nil {
		return OrganizationSecretMetadata{}, requestError
	}

	metadata := OrganizationSecretMetadata{Name: entry.Name, Visibility: entry.Visibility}
	if metadata.Visibility != selectedVisibilityConstant {
		return metadata, nil
	}

	selectedEntries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]secretRepositoryEntry, error) {
			listPath := fmt.Sprintf(listSecretRepositoriesPathTemplate, reader.client.Organization(), url.PathEscape(secretName), pageSize, pageNumber)
			var page secretRepositoriesPage
			if requestError := reader.client.Get(pageContext, listPath, &page); requestError != nil {
				return nil, requestError
			}
			return page.Repositories, nil
		})
	if paginationError != nil {
		return OrganizationSecretMetadata{}, paginationError
	}

	for _, selectedEntry := range selectedEntries {
		metadata.SelectedRepositoryNames = append(metadata.SelectedRepositoryNames, selectedEntry.Name)
	}

	return metadata, nil
}

// ListRepositoryNames drains the organization repository listing.
func (reader *RESTSourceReader) ListRepositoryNames(requestContext context.Context) ([]string, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]secretRepositoryEntry, error) {
			listPath := fmt.Sprintf(listSecretSourceReposPathTemplate, reader.client.Organization(), pageSize, pageNumber)
			var pageEntries []secretRepositoryEntry
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

// ListRepositorySecretNames drains the secret listing for one repository.
func (reader *RESTSourceReader) ListRepositorySecretNames(requestContext context.Context, repositoryName string) ([]string, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]secretListEntry, error) {
			listPath := fmt.Sprintf(listRepositorySecretsPathTemplate, reader.client.Organization(), url.PathEscape(repositoryName), pageSize, pageNumber)
			var page secretListPage
			if requestError := reader.client.Get(pageContext, listPath, &page); requestError != nil {
				return nil, requestError
			}
			return page.Secrets, nil
		})
	if paginationError != nil {
		return nil, paginationError
	}

	secretNames := make([]string, 0, len(entries))
	for _, entry := range entries {
		secretNames = append(secretNames, entry.Name)
	}

	return secretNames, nil
}

// RESTTargetWriter implements TargetWriter over the REST API.
type RESTTargetWriter struct {
	client *githubapi.Client
}

// NewRESTTargetWriter constructs a writer bound to the target client.
func NewRESTTargetWriter(client *githubapi.Client) *RESTTargetWriter {
	return &RESTTargetWriter{client: client}
}

// GetOrganizationPublicKey fetches the current org sealed-box recipient key.
func (writer *RESTTargetWriter) GetOrganizationPublicKey(requestContext context.Context) (PublicKey, error) {
	keyPath := fmt.Sprintf(organizationPublicKeyPathTemplate, writer.client.Organization())

	var recipientKey PublicKey
	if requestError := writer.client.Get(requestContext, keyPath, &recipientKey); requestError != nil {
		return PublicKey{}, requestError
	}
	return recipientKey, nil
}

// GetRepositoryPublicKey fetches the current repo sealed-box recipient key.
func (writer *RESTTargetWriter) GetRepositoryPublicKey(requestContext context.Context, repositoryName string) (PublicKey, error) {
	keyPath := fmt.Sprintf(repositoryPublicKeyPathTemplate, writer.client.Organization(), url.PathEscape(repositoryName))

	var recipientKey PublicKey
	if requestError := writer.client.Get(requestContext, keyPath, &recipientKey); requestError != nil {
		return PublicKey{}, requestError
	}
	return recipientKey, nil
}

// PutOrganizationSecret upserts the org secret with the supplied ciphertext,
// remapping selected-repository grants to destination ids by name.
func (writer *RESTTargetWriter) PutOrganizationSecret(requestContext context.Context, secretName string, encryptedValue string, keyID string, visibility string, selectedRepositoryNames []string) error {
	payload := putOrganizationSecretPayload{
		EncryptedValue: encryptedValue,
		KeyID:          keyID,
		Visibility:     visibility,
	}

	for _, repositoryName := range selectedRepositoryNames {
		repositoryID, lookupError := writer.lookupRepositoryID(requestContext, repositoryName)
		if lookupError != nil {
			return lookupError
		}
		if repositoryID == 0 {
			continue
		}
		payload.SelectedRepositoryIDs = append(payload.SelectedRepositoryIDs, repositoryID)
	}

	secretPath := fmt.Sprintf(organizationSecretPathTemplate, writer.client.Organization(), url.PathEscape(secretName))
	return writer.client.Put(requestContext, secretPath, payload, nil)
}

func (writer *RESTTargetWriter) lookupRepositoryID(requestContext context.Context, repositoryName string) (int64, error) {
	lookupPath := fmt.Sprintf(secretRepositoryLookupPathTemplate, writer.client.Organization(), url.PathEscape(repositoryName))

	var repository secretRepositoryEntry
	requestError := writer.client.Get(requestContext, lookupPath, &repository)
	if requestError != nil {
		if githubapi.IsNotFound(requestError) {
			return 0, nil
		}
		return 0, requestError
	}

	return repository.ID, nil
}

// PutRepositorySecret upserts the repo secret with the supplied ciphertext.
func (writer *RESTTargetWriter) PutRepositorySecret(requestContext context.Context, repositoryName string, secretName string, encryptedValue string, keyID string) error {
	secretPath := fmt.Sprintf(repositorySecretPathTemplate, writer.client.Organization(), url.PathEscape(repositoryName), url.PathEscape(secretName))
	payload := putRepositorySecretPayload{EncryptedValue: encryptedValue, KeyID: keyID}
	return writer.client.Put(requestContext, secretPath, payload, nil)
}

// RepositoryExists probes the destination repository.
func (writer *RESTTargetWriter) RepositoryExists(requestContext context.Context, repositoryName string) (bool, error) {
	probePath := fmt.Sprintf(secretRepositoryLookupPathTemplate, writer.client.Organization(), url.PathEscape(repositoryName))
	return writer.client.Exists(requestContext, probePath)
}
