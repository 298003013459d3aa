package univerify

import (
	"context"
	"fmt"
	"strings"
)

// Signer is the wallet boundary: it exposes an address and produces
// personal_sign signatures over consent messages.
type Signer interface {
	// Address returns the 0x-prefixed wallet address.
	Address() string
	// SignMessage signs msg and returns the 0x-prefixed hex signature.
	SignMessage(ctx context.Context, msg string) (string, error)
}

// UploadConsentMessage is the message a wallet signs to authorize an upload.
func UploadConsentMessage(walletAddress string) string {
	return fmt.Sprintf("Sign this message to upload a file to UniVerify with address %s", walletAddress)
}

// LoginMessage is the message a wallet signs to authenticate.
func LoginMessage(walletAddress string) string {
	return fmt.Sprintf("Sign this message to log in to UniVerify with address %s", walletAddress)
}

// signedFields holds the wallet proof attached to signed requests.
type signedFields struct {
	WalletAddress string
	Message       string
	Signature     string
}

// signConsent asks signer to sign the message built by build.
// A nil signer yields empty fields.
func signConsent(ctx context.Context, signer Signer, build func(string) string) (signedFields, error) {
	if signer == nil {
		return signedFields{}, nil
	}
	addr := signer.Address()
	msg := build(addr)
	sig, err := signer.SignMessage(ctx, msg)
	if err != nil {
		return signedFields{}, fmt.Errorf("signing consent message: %w", err)
	}
	return signedFields{WalletAddress: addr, Message: msg, Signature: sig}, nil
}

// normalizeHash lowercases a hex hash and strips the 0x prefix.
func normalizeHash(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.TrimPrefix(h, "0x")
}
