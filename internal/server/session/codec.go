// Package session implements the opaque session blob carried by clients
// between calls. There is no server side store: the blob is the state.
//
// Layout: base64(sha256(plaintext) || iv || aes-192-cbc(plaintext)).
// The digest is a plain hash, not a MAC; it detects corruption but relies on
// the secrecy of the key for authenticity. The construction and the key
// derivation parameters match sessions issued by earlier gateway
// deployments, so existing blobs keep decrypting.
package session

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/scrypt"
)

const (
	keyLength  = 24 // aes-192
	digestSize = sha256.Size
	ivSize     = aes.BlockSize

	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

// salt is fixed; the key only depends on the configured secret.
var salt = []byte("salt")

var ErrSessionCorrupted = errors.New("session data is corrupted")

type CodecContract interface {
	Encrypt(payload map[string]any) (string, error)
	Decrypt(input string) (map[string]any, error)
}

type Codec struct {
	secret []byte

	once   sync.Once
	block  cipher.Block
	keyErr error
}

func New(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// init derives the key at most once. scrypt is slow on purpose, so
// concurrent first callers wait on the same derivation.
func (c *Codec) init() error {
	c.once.Do(func() {
		key, err := scrypt.Key(c.secret, salt, scryptN, scryptR, scryptP, keyLength)
		if err != nil {
			c.keyErr = fmt.Errorf("derive session key: %w", err)
			return
		}
		c.block, c.keyErr = aes.NewCipher(key)
	})
	return c.keyErr
}

func (c *Codec) Encrypt(payload map[string]any) (string, error) {
	if err := c.init(); err != nil {
		return "", err
	}
	if payload == nil {
		payload = map[string]any{}
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	digest := sha256.Sum256(plaintext)

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ciphertext, padded)

	out := make([]byte, 0, digestSize+ivSize+len(ciphertext))
	out = append(out, digest[:]...)
	out = append(out, iv...)
	out = append(out, ciphertext...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Anything that was not produced by Encrypt under
// the same secret yields ErrSessionCorrupted.
func (c *Codec) Decrypt(input string) (map[string]any, error) {
	if err := c.init(); err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionCorrupted, err)
	}
	if len(raw) < digestSize+ivSize+aes.BlockSize {
		return nil, fmt.Errorf("%w: blob too short", ErrSessionCorrupted)
	}
	digest := raw[:digestSize]
	iv := raw[digestSize : digestSize+ivSize]
	ciphertext := raw[digestSize+ivSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrSessionCorrupted)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(padded, ciphertext)
	plaintext, ok := unpad(padded)
	if !ok {
		return nil, fmt.Errorf("%w: bad padding", ErrSessionCorrupted)
	}

	sum := sha256.Sum256(plaintext)
	if subtle.ConstantTimeCompare(sum[:], digest) != 1 {
		return nil, fmt.Errorf("%w: digest mismatch", ErrSessionCorrupted)
	}

	var payload map[string]any
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionCorrupted, err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

// pad applies PKCS#7 padding.
func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, false
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
