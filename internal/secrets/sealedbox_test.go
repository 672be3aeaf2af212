package secrets_test

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/nacl/box"

	"github.com/orgmigrate/orgmigrate/internal/secrets"
)

const (
	testSecretPlaintextConstant     = "super-secret-deploy-token"
	testRecipientKeyIdentifierConst = "568250167242549743"
	testTruncatedKeyBase64Constant  = "c2hvcnQta2V5"
	testMalformedKeyBase64Constant  = "not-base64!!"
)

func TestEncryptSecretValueRoundTrip(testInstance *testing.T) {
	recipientPublicKey, recipientPrivateKey, keyGenerationError := box.GenerateKey(rand.Reader)
	require.NoError(testInstance, keyGenerationError)

	encodedCiphertext, encryptionError := secrets.EncryptSecretValue(testSecretPlaintextConstant, secrets.PublicKey{
		KeyID: testRecipientKeyIdentifierConst,
		Key:   base64.StdEncoding.EncodeToString(recipientPublicKey[:]),
	})
	require.NoError(testInstance, encryptionError)

	sealedValue, decodeError := base64.StdEncoding.DecodeString(encodedCiphertext)
	require.NoError(testInstance, decodeError)

	openedValue, openSucceeded := box.OpenAnonymous(nil, sealedValue, recipientPublicKey, recipientPrivateKey)
	require.True(testInstance, openSucceeded)
	require.Equal(testInstance, testSecretPlaintextConstant, string(openedValue))
}

func TestEncryptSecretValueRejectsBadKeys(testInstance *testing.T) {
	testCases := []struct {
		name         string
		recipientKey secrets.PublicKey
	}{
		{
			name:         "malformed_base64_key",
			recipientKey: secrets.PublicKey{Key: testMalformedKeyBase64Constant},
		},
		{
			name:         "truncated_key",
			recipientKey: secrets.PublicKey{Key: testTruncatedKeyBase64Constant},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, encryptionError := secrets.EncryptSecretValue(testSecretPlaintextConstant, testCase.recipientKey)
			require.Error(testInstance, encryptionError)
		})
	}
}
