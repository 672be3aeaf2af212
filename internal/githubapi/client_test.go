package githubapi

import (
	"errors"
	"net/http"
	"testing"

	ghapi "github.com/cli/go-gh/v2/pkg/api"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testClientOrganizationConstant = "acme"
	testClientTokenConstant        = "ghp_client_token"
	testClientCustomHostConstant   = "github.example.com"
)

func TestNewClientValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration EndpointConfiguration
		expectedField string
	}{
		{
			name: "missing_organization",
			configuration: EndpointConfiguration{
				Token: testClientTokenConstant,
			},
			expectedField: organizationFieldNameConstant,
		},
		{
			name: "missing_token",
			configuration: EndpointConfiguration{
				Organization: testClientOrganizationConstant,
			},
			expectedField: tokenFieldNameConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, creationError := NewClient(zap.NewNop(), testCase.configuration)
			require.Error(testInstance, creationError)

			var endpointError InvalidEndpointError
			require.ErrorAs(testInstance, creationError, &endpointError)
			require.Equal(testInstance, testCase.expectedField, endpointError.FieldName)
		})
	}
}

func TestNewClientDefaultsHost(testInstance *testing.T) {
	client, creationError := NewClient(zap.NewNop(), EndpointConfiguration{
		Organization: testClientOrganizationConstant,
		Token:        testClientTokenConstant,
	})
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, defaultHostNameConstant, client.Host())
	require.Equal(testInstance, testClientOrganizationConstant, client.Organization())
	require.Equal(testInstance, testClientTokenConstant, client.Token())
}

func TestNewClientKeepsConfiguredHost(testInstance *testing.T) {
	client, creationError := NewClient(zap.NewNop(), EndpointConfiguration{
		Organization: testClientOrganizationConstant,
		Host:         testClientCustomHostConstant,
		Token:        testClientTokenConstant,
	})
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, testClientCustomHostConstant, client.Host())
}

func TestNewClientRejectsMalformedProxyURL(testInstance *testing.T) {
	_, creationError := NewClient(zap.NewNop(), EndpointConfiguration{
		Organization: testClientOrganizationConstant,
		Token:        testClientTokenConstant,
		ProxyURL:     "://not-a-url",
	})
	require.Error(testInstance, creationError)
}

func TestIsNotFound(testInstance *testing.T) {
	testCases := []struct {
		name           string
		candidateError error
		expectedResult bool
	}{
		{
			name:           "http_404",
			candidateError: &ghapi.HTTPError{StatusCode: http.StatusNotFound},
			expectedResult: true,
		},
		{
			name:           "http_403",
			candidateError: &ghapi.HTTPError{StatusCode: http.StatusForbidden},
			expectedResult: false,
		},
		{
			name:           "plain_error",
			candidateError: errors.New("network unreachable"),
			expectedResult: false,
		},
		{
			name:           "nil_error",
			candidateError: nil,
			expectedResult: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedResult, IsNotFound(testCase.candidateError))
		})
	}
}
