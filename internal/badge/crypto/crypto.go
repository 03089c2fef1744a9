// Package crypto implements the AES-128-ECB block cipher used on the badge
// command channel. Every command and data chunk travels as one independently
// encrypted 16-byte block under a fixed preshared key; there is no IV, no
// chaining, and no padding beyond the protocol's own zero fill.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

// BlockSize is the badge packet size in bytes. Commands, data chunks and
// notification payloads are all exactly one AES block.
const BlockSize = 16

// KeySize is the AES-128 key length in bytes.
const KeySize = 16

// ErrBlockSize is returned when a block passed to Encrypt or Decrypt is not
// exactly BlockSize bytes.
var ErrBlockSize = errors.New("badge/crypto: block must be 16 bytes")

// Cipher encrypts and decrypts single 16-byte blocks in ECB mode.
// A Cipher is immutable and safe for concurrent use.
type Cipher struct {
	block cipher.Block
}

// New creates a Cipher from a 16-byte AES-128 key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("badge/crypto: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("badge/crypto: new cipher: %w", err)
	}
	return &Cipher{block: block}, nil
}

// Encrypt transforms exactly one 16-byte plaintext block.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	if len(plaintext) != BlockSize {
		return nil, fmt.Errorf("badge/crypto: encrypt %d bytes: %w", len(plaintext), ErrBlockSize)
	}
	out := make([]byte, BlockSize)
	c.block.Encrypt(out, plaintext)
	return out, nil
}

// Decrypt transforms exactly one 16-byte ciphertext block.
func (c *Cipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) != BlockSize {
		return nil, fmt.Errorf("badge/crypto: decrypt %d bytes: %w", len(ciphertext), ErrBlockSize)
	}
	out := make([]byte, BlockSize)
	c.block.Decrypt(out, ciphertext)
	return out, nil
}
