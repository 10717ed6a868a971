package utils

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/datazip-inc/tap-toast/constants"
	"github.com/goccy/go-json"
	"github.com/spf13/viper"
)

const kmsKeyPrefix = "arn:aws:kms:"

type decrypter interface {
	decrypt(ctx context.Context, cipherData []byte) ([]byte, error)
}

// kmsDecrypter hands ciphertext to AWS KMS, the key is implied by the blob
type kmsDecrypter struct {
	client *kms.Client
}

func (k *kmsDecrypter) decrypt(ctx context.Context, cipherData []byte) ([]byte, error) {
	out, err := k.client.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: cipherData})
	if err != nil {
		return nil, err
	}
	return out.Plaintext, nil
}

// gcmDecrypter opens nonce-prefixed AES-GCM ciphertext with a passphrase derived key
type gcmDecrypter struct {
	key []byte
}

func (g *gcmDecrypter) decrypt(_ context.Context, cipherData []byte) ([]byte, error) {
	block, err := aes.NewCipher(g.key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := aead.NonceSize()
	if len(cipherData) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	return aead.Open(nil, cipherData[:nonceSize], cipherData[nonceSize:], nil)
}

func newDecrypter(ctx context.Context, key string) (decrypter, error) {
	if strings.HasPrefix(key, kmsKeyPrefix) {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return &kmsDecrypter{client: kms.NewFromConfig(cfg)}, nil
	}

	hash := sha256.Sum256([]byte(key))
	return &gcmDecrypter{key: hash[:]}, nil
}

// DecryptConfig turns a base64 (optionally JSON quoted) encrypted blob back
// into the plain config document. Without an encryption key the input is
// returned as is.
func DecryptConfig(ctx context.Context, encrypted string) ([]byte, error) {
	key := strings.TrimSpace(viper.GetString(constants.EncryptionKey))
	if key == "" {
		return []byte(encrypted), nil
	}

	var unquoted string
	if err := json.Unmarshal([]byte(encrypted), &unquoted); err != nil {
		unquoted = encrypted
	}

	cipherData, err := base64.URLEncoding.DecodeString(unquoted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 data: %s", err)
	}

	dec, err := newDecrypter(ctx, key)
	if err != nil {
		return nil, err
	}

	plain, err := dec.decrypt(ctx, cipherData)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plain, nil
}
