// Package vault seals record payloads into self-describing authenticated
// envelopes. It performs no I/O and retains no key material past a call.
//
// Envelope layout:
//
//	version(1) || algorithm(1) || nonce || ciphertext || tag
//
// The two header bytes are bound as additional authenticated data, so a
// tampered header fails authentication like any other byte.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	dErrors "vaultledger/pkg/domain-errors"
)

// Algorithm identifies the AEAD used for an envelope.
type Algorithm byte

const (
	// AES256GCM uses a 12-byte nonce and a 16-byte tag.
	AES256GCM Algorithm = 0x01
	// XChaCha20Poly1305 uses a 24-byte nonce and a 16-byte tag.
	XChaCha20Poly1305 Algorithm = 0x02
)

const (
	// EnvelopeVersion is the only envelope format produced and accepted.
	EnvelopeVersion byte = 0x01
	// KeySize is the required secret length for every algorithm.
	KeySize = 32

	headerSize = 2
	tagSize    = 16
)

var (
	// ErrKey reports secret material of the wrong size.
	ErrKey = dErrors.New(dErrors.CodeKey, "encryption secret must be 32 bytes")
	// ErrIntegrity reports an envelope that failed authentication.
	ErrIntegrity = dErrors.New(dErrors.CodeIntegrity, "envelope failed authentication")
)

// String returns the algorithm name used in config and logs.
func (a Algorithm) String() string {
	switch a {
	case AES256GCM:
		return "aes-256-gcm"
	case XChaCha20Poly1305:
		return "xchacha20-poly1305"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(a))
	}
}

// ParseAlgorithm maps a config name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "", "aes-256-gcm":
		return AES256GCM, nil
	case "xchacha20-poly1305":
		return XChaCha20Poly1305, nil
	default:
		return 0, dErrors.New(dErrors.CodeInvalidInput, "unsupported vault algorithm: "+name)
	}
}

// Vault encrypts with one configured algorithm and decrypts any supported one.
type Vault struct {
	alg  Algorithm
	rand io.Reader
}

// Option configures a Vault.
type Option func(*Vault)

// WithAlgorithm selects the algorithm used by Encrypt.
func WithAlgorithm(alg Algorithm) Option {
	return func(v *Vault) {
		v.alg = alg
	}
}

// WithRandom overrides the nonce source. Only tests should need this.
func WithRandom(r io.Reader) Option {
	return func(v *Vault) {
		if r != nil {
			v.rand = r
		}
	}
}

// New returns a Vault that encrypts with AES-256-GCM unless configured otherwise.
func New(opts ...Option) *Vault {
	v := &Vault{alg: AES256GCM, rand: rand.Reader}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Algorithm returns the algorithm used by Encrypt.
func (v *Vault) Algorithm() Algorithm {
	return v.alg
}

// Encrypt seals plaintext under secret with a fresh random nonce.
func (v *Vault) Encrypt(plaintext, secret []byte) ([]byte, error) {
	aead, err := newAEAD(v.alg, secret)
	if err != nil {
		return nil, err
	}

	nonceSize := aead.NonceSize()
	out := make([]byte, headerSize+nonceSize, headerSize+nonceSize+len(plaintext)+aead.Overhead())
	out[0] = EnvelopeVersion
	out[1] = byte(v.alg)

	nonce := out[headerSize : headerSize+nonceSize]
	if _, err := io.ReadFull(v.rand, nonce); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate nonce")
	}

	return aead.Seal(out, nonce, plaintext, out[:headerSize]), nil
}

// Decrypt opens an envelope produced by any compliant implementation.
func (v *Vault) Decrypt(envelope, secret []byte) ([]byte, error) {
	if len(secret) != KeySize {
		return nil, ErrKey
	}
	if len(envelope) < headerSize {
		return nil, dErrors.Wrap(ErrIntegrity, dErrors.CodeIntegrity, "envelope is truncated")
	}
	if envelope[0] != EnvelopeVersion {
		return nil, dErrors.Wrap(ErrIntegrity, dErrors.CodeIntegrity, "unsupported envelope version")
	}

	aead, err := newAEAD(Algorithm(envelope[1]), secret)
	if err != nil {
		return nil, err
	}

	nonceSize := aead.NonceSize()
	if len(envelope) < headerSize+nonceSize+aead.Overhead() {
		return nil, dErrors.Wrap(ErrIntegrity, dErrors.CodeIntegrity, "envelope is truncated")
	}

	nonce := envelope[headerSize : headerSize+nonceSize]
	plaintext, err := aead.Open(nil, nonce, envelope[headerSize+nonceSize:], envelope[:headerSize])
	if err != nil {
		return nil, dErrors.Wrap(ErrIntegrity, dErrors.CodeIntegrity, "envelope failed authentication")
	}
	return plaintext, nil
}

// Overhead returns the number of bytes an envelope adds to a plaintext.
func Overhead(alg Algorithm) int {
	switch alg {
	case XChaCha20Poly1305:
		return headerSize + chacha20poly1305.NonceSizeX + tagSize
	default:
		return headerSize + 12 + tagSize
	}
}

func newAEAD(alg Algorithm, secret []byte) (cipher.AEAD, error) {
	if len(secret) != KeySize {
		return nil, ErrKey
	}

	switch alg {
	case AES256GCM:
		block, err := aes.NewCipher(secret)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeKey, "invalid AES key")
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialise GCM")
		}
		return aead, nil
	case XChaCha20Poly1305:
		aead, err := chacha20poly1305.NewX(secret)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeKey, "invalid XChaCha20 key")
		}
		return aead, nil
	default:
		// Unknown algorithm byte in a stored envelope means the header was altered.
		return nil, dErrors.Wrap(ErrIntegrity, dErrors.CodeIntegrity, "unknown envelope algorithm")
	}
}
