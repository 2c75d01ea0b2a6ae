// Package smtpcrypto seals the outbound-mail passwords kept in the
// company directory. Records hold hex(nonce || AES-256-GCM ciphertext)
// so a dump of the companies table never exposes a mailbox credential.
package smtpcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const keyBytes = 32

// ErrKeySize is returned when the directory key is not 32 bytes.
var ErrKeySize = errors.New("smtpcrypto: key must be 32 bytes")

func sealer(key []byte) (cipher.AEAD, error) {
	if len(key) != keyBytes {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("smtpcrypto: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("smtpcrypto: %w", err)
	}
	return aead, nil
}

// Encrypt seals a mailbox password for storage. Each call draws a fresh
// nonce, so encrypting the same password twice yields different records.
func Encrypt(plaintext string, key []byte) (string, error) {
	aead, err := sealer(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("smtpcrypto: draw nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

// Decrypt opens a stored record back into the mailbox password. Fails
// on malformed records and on records sealed under a different key.
func Decrypt(stored string, key []byte) (string, error) {
	aead, err := sealer(key)
	if err != nil {
		return "", err
	}

	raw, err := hex.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("smtpcrypto: record is not hex: %w", err)
	}
	if len(raw) <= aead.NonceSize() {
		return "", errors.New("smtpcrypto: record shorter than nonce")
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("smtpcrypto: open record: %w", err)
	}
	return string(plaintext), nil
}
