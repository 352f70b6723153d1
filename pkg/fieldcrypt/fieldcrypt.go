package fieldcrypt

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Version is the prefix of every serialized ciphertext.
const Version = "sh1"

// MinSecretLength is the minimal length of the device secret.
const MinSecretLength = 16

// ErrCrypto is the cause of every decryption failure.
var ErrCrypto = errors.New("fieldcrypt: invalid ciphertext")

// A Keyring derives the per-namespace codecs from the device secret.
type Keyring struct {
	secret []byte
}

// NewKeyring returns a new Keyring.
func NewKeyring(secret []byte) (*Keyring, error) {
	if len(secret) < MinSecretLength {
		return nil, errors.Errorf("secret must be at least %d bytes long", MinSecretLength)
	}

	k := &Keyring{secret: make([]byte, len(secret))}
	copy(k.secret, secret)
	return k, nil
}

// Codec returns the codec of the given namespace.
func (k *Keyring) Codec(scope string) *Codec {
	return &Codec{
		scope: []byte(scope),
		key:   kdf(chacha20poly1305.KeySize, k.secret, []byte(scope)),
	}
}

// A Codec encrypts and decrypts values of a single namespace.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	scope []byte
	key   []byte
}

// Encrypt seals the given plaintext.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce, ciphertext, err := c.seal([]byte(plaintext))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s:%s:%s",
		Version,
		hex.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(ciphertext),
	), nil
}

// Decrypt opens the given ciphertext.
// A blank ciphertext is returned unchanged.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	parts := strings.Split(ciphertext, ":")
	if len(parts) != 3 || parts[0] != Version {
		return "", errors.Wrap(ErrCrypto, "malformed ciphertext")
	}

	nonce, err := hex.DecodeString(parts[1])
	if err != nil || len(nonce) != chacha20poly1305.NonceSizeX {
		return "", errors.Wrap(ErrCrypto, "could not decode nonce")
	}

	payload, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", errors.Wrap(ErrCrypto, "could not decode ciphertext")
	}

	plaintext, err := c.open(nonce, payload)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Seal encrypts the given bytes. The output is the nonce followed by the ciphertext.
func (c *Codec) Seal(data []byte) ([]byte, error) {
	nonce, ciphertext, err := c.seal(data)
	if err != nil {
		return nil, err
	}
	return append(nonce, ciphertext...), nil
}

// Open decrypts bytes produced by Seal.
func (c *Codec) Open(data []byte) ([]byte, error) {
	if len(data) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, errors.Wrap(ErrCrypto, "ciphertext too short")
	}
	return c.open(data[:chacha20poly1305.NonceSizeX], data[chacha20poly1305.NonceSizeX:])
}

func (c *Codec) seal(plaintext []byte) (nonce, ciphertext []byte, err error) {
	nonce, err = GenerateRandomBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not generate nonce")
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not create cipher")
	}

	return nonce, aead.Seal(nil, nonce, plaintext, c.scope), nil
}

func (c *Codec) open(nonce, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, errors.Wrap(err, "could not create cipher")
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, c.scope)
	if err != nil {
		return nil, errors.Wrap(ErrCrypto, "could not decrypt")
	}
	return plaintext, nil
}

// IsCrypto returns true if err is a decryption failure.
func IsCrypto(err error) bool {
	return errors.Is(err, ErrCrypto)
}

// GenerateRandomBytes returns securely generated random bytes.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	// err == nil only if len(b) == n
	if err != nil {
		return nil, err
	}

	return b, nil
}

func kdf(l int, k, info []byte) []byte {
	nhash := func() hash.Hash {
		h, err := blake2b.New256(nil)
		if err != nil {
			panic(err)
		}
		return h
	}

	payload := make([]byte, l)

	kdf := hkdf.New(nhash, k, nil, info)
	_, err := io.ReadFull(kdf, payload)
	if err != nil {
		panic(err)
	}

	return payload
}
