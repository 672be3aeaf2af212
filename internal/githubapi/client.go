package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	ghapi "github.com/cli/go-gh/v2/pkg/api"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	organizationFieldNameConstant          = "organization"
	tokenFieldNameConstant                 = "token"
	requiredValueMessageConstant           = "value required"
	defaultHostNameConstant                = "github.com"
	proxyURLParseErrorTemplateConstant     = "invalid proxy URL %q: %w"
	restClientCreationErrorTemplate        = "unable to create REST client: %w"
	graphQLClientCreationErrorTemplate     = "unable to create GraphQL client: %w"
	payloadEncodingErrorTemplateConstant   = "unable to encode request payload: %w"
	rawRequestCreationErrorTemplate        = "unable to build request for %s: %w"
	rawRequestExecutionErrorTemplate       = "request to %s failed: %w"
	unexpectedStatusErrorTemplateConstant  = "unexpected status %d from %s: %s"
	authorizationHeaderNameConstant        = "Authorization"
	authorizationHeaderValueTemplate       = "Bearer %s"
	contentTypeHeaderNameConstant          = "Content-Type"
	defaultRequestsPerSecondConstant       = 8
	defaultRequestBurstConstant            = 4
	responseBodyExcerptLimitBytesConstant  = 512
	clientConfiguredDebugMessageConstant   = "github api client configured"
	hostLogFieldNameConstant               = "host"
	organizationLogFieldNameConstant       = "organization"
	notFoundProbeDebugMessageConstant      = "existence probe returned not found"
	probePathLogFieldNameConstant          = "path"
	httpMethodGetConstant                  = http.MethodGet
	httpMethodPostConstant                 = http.MethodPost
	httpMethodPutConstant                  = http.MethodPut
	httpMethodPatchConstant                = http.MethodPatch
	httpMethodDeleteConstant               = http.MethodDelete
	httpStatusNotFoundConstant             = http.StatusNotFound
	invalidEndpointErrorTemplateConstant   = "%s: %s"
	downloadStatusErrorTemplateConstant    = "download of %s returned status %d"
	uploadBodyReadErrorTemplateConstant    = "unable to read upload response body: %w"
)

// InvalidEndpointError surfaces endpoint configuration validation failures.
type InvalidEndpointError struct {
	FieldName string
	Message   string
}

// Error describes the invalid endpoint configuration.
func (endpointError InvalidEndpointError) Error() string {
	return fmt.Sprintf(invalidEndpointErrorTemplateConstant, endpointError.FieldName, endpointError.Message)
}

// EndpointConfiguration describes one platform instance the migrator talks to.
type EndpointConfiguration struct {
	Organization string
	Host         string
	Token        string
	ProxyURL     string
}

// Client bundles REST, GraphQL, and raw HTTP access for a single instance.
type Client struct {
	logger        *zap.Logger
	organization  string
	host          string
	token         string
	restClient    *ghapi.RESTClient
	graphQLClient *ghapi.GraphQLClient
	httpClient    *http.Client
}

// NewClient constructs a Client for the supplied endpoint.
func NewClient(logger *zap.Logger, configuration EndpointConfiguration) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	trimmedOrganization := strings.TrimSpace(configuration.Organization)
	if len(trimmedOrganization) == 0 {
		return nil, InvalidEndpointError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}

	trimmedToken := strings.TrimSpace(configuration.Token)
	if len(trimmedToken) == 0 {
		return nil, InvalidEndpointError{FieldName: tokenFieldNameConstant, Message: requiredValueMessageConstant}
	}

	hostName := strings.TrimSpace(configuration.Host)
	if len(hostName) == 0 {
		hostName = defaultHostNameConstant
	}

	baseTransport, transportError := buildBaseTransport(configuration.ProxyURL)
	if transportError != nil {
		return nil, transportError
	}

	requestLimiter := rate.NewLimiter(rate.Limit(defaultRequestsPerSecondConstant), defaultRequestBurstConstant)
	throttledTransport := newThrottlingRoundTripper(logger, baseTransport, requestLimiter)

	clientOptions := ghapi.ClientOptions{
		AuthToken: trimmedToken,
		Host:      hostName,
		Transport: throttledTransport,
	}

	restClient, restError := ghapi.NewRESTClient(clientOptions)
	if restError != nil {
		return nil, fmt.Errorf(restClientCreationErrorTemplate, restError)
	}

	graphQLClient, graphQLError := ghapi.NewGraphQLClient(clientOptions)
	if graphQLError != nil {
		return nil, fmt.Errorf(graphQLClientCreationErrorTemplate, graphQLError)
	}

	logger.Debug(
		clientConfiguredDebugMessageConstant,
		zap.String(hostLogFieldNameConstant, hostName),
		zap.String(organizationLogFieldNameConstant, trimmedOrganization),
	)

	return &Client{
		logger:        logger,
		organization:  trimmedOrganization,
		host:          hostName,
		token:         trimmedToken,
		restClient:    restClient,
		graphQLClient: graphQLClient,
		httpClient:    &http.Client{Transport: throttledTransport},
	}, nil
}

func buildBaseTransport(proxyURLValue string) (*http.Transport, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}

	trimmedProxyURL := strings.TrimSpace(proxyURLValue)
	if len(trimmedProxyURL) > 0 {
		parsedProxyURL, parseError := url.Parse(trimmedProxyURL)
		if parseError != nil {
			return nil, fmt.Errorf(proxyURLParseErrorTemplateConstant, trimmedProxyURL, parseError)
		}
		transport.Proxy = http.ProxyURL(parsedProxyURL)
	}

	return transport, nil
}

// Organization returns the organization this client is scoped to.
func (client *Client) Organization() string {
	return client.organization
}

// Host returns the platform host this client targets.
func (client *Client) Host() string {
	return client.host
}

// Token returns the bearer token. Registry publishing tools need the raw
// credential for their own authentication files.
func (client *Client) Token() string {
	return client.token
}

// Get performs a GET request against the REST API.
func (client *Client) Get(requestContext context.Context, requestPath string, response any) error {
	return client.restClient.DoWithContext(requestContext, httpMethodGetConstant, requestPath, nil, response)
}

// Post performs a POST request with a JSON payload against the REST API.
func (client *Client) Post(requestContext context.Context, requestPath string, payload any, response any) error {
	encodedPayload, encodingError := encodePayload(payload)
	if encodingError != nil {
		return encodingError
	}
	return client.restClient.DoWithContext(requestContext, httpMethodPostConstant, requestPath, encodedPayload, response)
}

// Put performs a PUT request with a JSON payload against the REST API.
func (client *Client) Put(requestContext context.Context, requestPath string, payload any, response any) error {
	encodedPayload, encodingError := encodePayload(payload)
	if encodingError != nil {
		return encodingError
	}
	return client.restClient.DoWithContext(requestContext, httpMethodPutConstant, requestPath, encodedPayload, response)
}

// Patch performs a PATCH request with a JSON payload against the REST API.
func (client *Client) Patch(requestContext context.Context, requestPath string, payload any, response any) error {
	encodedPayload, encodingError := encodePayload(payload)
	if encodingError != nil {
		return encodingError
	}
	return client.restClient.DoWithContext(requestContext, httpMethodPatchConstant, requestPath, encodedPayload, response)
}

// Delete performs a DELETE request against the REST API.
func (client *Client) Delete(requestContext context.Context, requestPath string, response any) error {
	return client.restClient.DoWithContext(requestContext, httpMethodDeleteConstant, requestPath, nil, response)
}

// Query executes a named GraphQL query with the supplied variables.
func (client *Client) Query(requestContext context.Context, queryName string, query any, variables map[string]any) error {
	return client.graphQLClient.QueryWithContext(requestContext, queryName, query, variables)
}

// Download streams the resource at rawURL into destination using bearer authentication.
func (client *Client) Download(requestContext context.Context, rawURL string, destination io.Writer) error {
	request, requestError := http.NewRequestWithContext(requestContext, httpMethodGetConstant, rawURL, nil)
	if requestError != nil {
		return fmt.Errorf(rawRequestCreationErrorTemplate, rawURL, requestError)
	}
	request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(authorizationHeaderValueTemplate, client.token))

	response, executionError := client.httpClient.Do(request)
	if executionError != nil {
		return fmt.Errorf(rawRequestExecutionErrorTemplate, rawURL, executionError)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf(downloadStatusErrorTemplateConstant, rawURL, response.StatusCode)
	}

	_, copyError := io.Copy(destination, response.Body)
	return copyError
}

// DownloadJSON fetches the resource at rawURL and decodes it as JSON.
func (client *Client) DownloadJSON(requestContext context.Context, rawURL string, response any) error {
	var responseBuffer bytes.Buffer
	if downloadError := client.Download(requestContext, rawURL, &responseBuffer); downloadError != nil {
		return downloadError
	}
	return json.Unmarshal(responseBuffer.Bytes(), response)
}

// Upload performs a PUT of the supplied content against rawURL with bearer authentication.
func (client *Client) Upload(requestContext context.Context, rawURL string, contentType string, content io.Reader) error {
	request, requestError := http.NewRequestWithContext(requestContext, httpMethodPutConstant, rawURL, content)
	if requestError != nil {
		return fmt.Errorf(rawRequestCreationErrorTemplate, rawURL, requestError)
	}
	request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(authorizationHeaderValueTemplate, client.token))
	request.Header.Set(contentTypeHeaderNameConstant, contentType)

	response, executionError := client.httpClient.Do(request)
	if executionError != nil {
		return fmt.Errorf(rawRequestExecutionErrorTemplate, rawURL, executionError)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		bodyExcerpt, readError := io.ReadAll(io.LimitReader(response.Body, responseBodyExcerptLimitBytesConstant))
		if readError != nil {
			return fmt.Errorf(uploadBodyReadErrorTemplateConstant, readError)
		}
		return fmt.Errorf(unexpectedStatusErrorTemplateConstant, response.StatusCode, rawURL, strings.TrimSpace(string(bodyExcerpt)))
	}

	return nil
}

// Exists probes requestPath and reports whether the resource is present.
// A 404 is "not found", never an error, and is logged at debug level only.
func (client *Client) Exists(requestContext context.Context, requestPath string) (bool, error) {
	probeError := client.Get(requestContext, requestPath, nil)
	if probeError == nil {
		return true, nil
	}
	if IsNotFound(probeError) {
		client.logger.Debug(notFoundProbeDebugMessageConstant, zap.String(probePathLogFieldNameConstant, requestPath))
		return false, nil
	}
	return false, probeError
}

// IsNotFound reports whether the error represents an HTTP 404 response.
func IsNotFound(candidateError error) bool {
	var httpError *ghapi.HTTPError
	if errors.As(candidateError, &httpError) {
		return httpError.StatusCode == httpStatusNotFoundConstant
	}
	return false
}

func encodePayload(payload any) (io.Reader, error) {
	if payload == nil {
		return nil, nil
	}

	encodedBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return nil, fmt.Errorf(payloadEncodingErrorTemplateConstant, encodingError)
	}

	return bytes.NewReader(encodedBytes), nil
}
