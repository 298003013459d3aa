// Package wallet signs messages with an Ethereum secp256k1 key the way
// wallets answer personal_sign, so the CLI can log in and consent to
// uploads without a browser wallet.
package wallet

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// ErrInvalidKey is returned for private keys that are not 32 bytes of hex
// or fall outside the curve order.
var ErrInvalidKey = errors.New("invalid private key")

// ErrInvalidSignature is returned when a signature cannot be decoded or
// recovered.
var ErrInvalidSignature = errors.New("invalid signature")

// KeySigner signs with a private key held in memory.
type KeySigner struct {
	key     *secp256k1.PrivateKey
	address string
}

// NewKeySigner parses a hex private key, with or without 0x prefix.
func NewKeySigner(hexKey string) (*KeySigner, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil || len(raw) != 32 {
		return nil, ErrInvalidKey
	}

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(raw); overflow || scalar.IsZero() {
		return nil, ErrInvalidKey
	}

	key := secp256k1.NewPrivateKey(&scalar)
	return &KeySigner{
		key:     key,
		address: PublicKeyAddress(key.PubKey()),
	}, nil
}

// Address returns the EIP-55 checksummed wallet address.
func (s *KeySigner) Address() string {
	return s.address
}

// SignMessage returns the 0x-prefixed r||s||v personal_sign signature of
// message, with v in {27, 28}.
func (s *KeySigner) SignMessage(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	compact := ecdsa.SignCompact(s.key, MessageHash(message), false)

	// compact is v||r||s; wallets return r||s||v
	sig := make([]byte, 65)
	copy(sig, compact[1:])
	sig[64] = compact[0]
	return "0x" + hex.EncodeToString(sig), nil
}

// String hides the key.
func (s *KeySigner) String() string {
	return fmt.Sprintf("KeySigner{address: %s}", s.address)
}

// MessageHash is the Keccak-256 of the EIP-191 prefixed message.
func MessageHash(message string) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return keccak256([]byte(prefixed))
}

// RecoverAddress returns the checksummed address that produced sig over
// message.
func RecoverAddress(message, sig string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(sig, "0x"))
	if err != nil || len(raw) != 65 {
		return "", ErrInvalidSignature
	}

	v := raw[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return "", ErrInvalidSignature
	}

	compact := make([]byte, 65)
	compact[0] = v
	copy(compact[1:], raw[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, MessageHash(message))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return PublicKeyAddress(pub), nil
}

// VerifySignature reports whether sig over message was made by address.
// The address comparison ignores case.
func VerifySignature(address, message, sig string) bool {
	recovered, err := RecoverAddress(message, sig)
	return err == nil && strings.EqualFold(recovered, address)
}

// PublicKeyAddress derives the checksummed address of pub.
func PublicKeyAddress(pub *secp256k1.PublicKey) string {
	uncompressed := pub.SerializeUncompressed()
	return ChecksumAddress(hex.EncodeToString(keccak256(uncompressed[1:])[12:]))
}

// ChecksumAddress applies EIP-55 mixed-case checksumming to a 20-byte hex
// address. Returns "" when addr is not 40 hex digits.
func ChecksumAddress(addr string) string {
	lower := strings.ToLower(strings.TrimPrefix(addr, "0x"))
	if len(lower) != 40 {
		return ""
	}
	if _, err := hex.DecodeString(lower); err != nil {
		return ""
	}

	hash := hex.EncodeToString(keccak256([]byte(lower)))
	out := make([]byte, 40)
	for i := 0; i < 40; i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' && hash[i] >= '8' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return "0x" + string(out)
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
