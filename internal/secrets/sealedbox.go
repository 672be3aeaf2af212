package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

const (
	publicKeyDecodeErrorTemplateConstant = "unable to decode recipient public key: %w"
	publicKeyLengthErrorTemplateConstant = "recipient public key must be %d bytes, got %d"
	sealErrorTemplateConstant            = "unable to seal secret value: %w"
	recipientKeyLengthConstant           = 32
)

// PublicKey is the recipient key material returned by the platform for a
// secret scope. The key id must accompany every ciphertext upload so the
// platform can match the decryption key.
type PublicKey struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"`
}

// EncryptSecretValue seals the plaintext under the recipient public key and
// returns base64 ciphertext ready for upload. The plaintext never leaves this
// process in any other form.
func EncryptSecretValue(plaintextValue string, recipientKey PublicKey) (string, error) {
	decodedKey, decodeError := base64.StdEncoding.DecodeString(recipientKey.Key)
	if decodeError != nil {
		return "", fmt.Errorf(publicKeyDecodeErrorTemplateConstant, decodeError)
	}
	if len(decodedKey) != recipientKeyLengthConstant {
		return "", fmt.Errorf(publicKeyLengthErrorTemplateConstant, recipientKeyLengthConstant, len(decodedKey))
	}

	var recipientKeyBytes [recipientKeyLengthConstant]byte
	copy(recipientKeyBytes[:], decodedKey)

	sealedValue, sealError := box.SealAnonymous(nil, []byte(plaintextValue), &recipientKeyBytes, rand.Reader)
	if sealError != nil {
		return "", fmt.Errorf(sealErrorTemplateConstant, sealError)
	}

	return base64.StdEncoding.EncodeToString(sealedValue), nil
}
