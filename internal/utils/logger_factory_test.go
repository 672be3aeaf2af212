package utils_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orgmigrate/orgmigrate/internal/utils"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name        string
		logLevel    utils.LogLevel
		logFormat   utils.LogFormat
		expectError bool
	}{
		{
			name:      "debug_structured",
			logLevel:  utils.LogLevelDebug,
			logFormat: utils.LogFormatStructured,
		},
		{
			name:      "info_console",
			logLevel:  utils.LogLevelInfo,
			logFormat: utils.LogFormatConsole,
		},
		{
			name:      "warn_structured",
			logLevel:  utils.LogLevelWarn,
			logFormat: utils.LogFormatStructured,
		},
		{
			name:      "error_console",
			logLevel:  utils.LogLevelError,
			logFormat: utils.LogFormatConsole,
		},
		{
			name:        "unsupported_level",
			logLevel:    utils.LogLevel("trace"),
			logFormat:   utils.LogFormatStructured,
			expectError: true,
		},
		{
			name:        "unsupported_format",
			logLevel:    utils.LogLevelInfo,
			logFormat:   utils.LogFormat("xml"),
			expectError: true,
		},
	}

	loggerFactory := utils.NewLoggerFactory()

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			createdLogger, creationError := loggerFactory.CreateLogger(testCase.logLevel, testCase.logFormat)
			if testCase.expectError {
				require.Error(testInstance, creationError)
				require.Nil(testInstance, createdLogger)
				return
			}

			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, createdLogger)
		})
	}
}
