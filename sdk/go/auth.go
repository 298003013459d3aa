package univerify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// LoginRequest authenticates a wallet. When the session has a signer and
// Signature is empty, the login message is signed automatically.
type LoginRequest struct {
	WalletAddress string `json:"walletAddress"`
	Signature     string `json:"signature"`
	Message       string `json:"message"`
}

// SignupRequest registers a wallet with a profile.
type SignupRequest struct {
	WalletAddress string `json:"walletAddress"`
	Signature     string `json:"signature"`
	Message       string `json:"message"`
	Name          string `json:"name"`
	Email         string `json:"email"`
}

// Login authenticates against the backend and stores the returned token in
// the session.
//
// Example:
//
//	result, err := client.Login(ctx, univerify.LoginRequest{})
//	fmt.Println("logged in as", result.User.WalletAddress)
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if err := c.completeProof(ctx, &req.WalletAddress, &req.Message, &req.Signature); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "/api/auth/login", req)
}

// Signup registers a new account and stores the returned token in the session.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	if req.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	if req.Email == "" {
		return nil, &ValidationError{Field: "email", Message: "is required"}
	}
	if err := c.completeProof(ctx, &req.WalletAddress, &req.Message, &req.Signature); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "/api/auth/signup", req)
}

// Logout clears the session token from memory and from its store.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Clear(ctx)
}

// completeProof fills the wallet address and signs the login message when a
// signer is available and no signature was supplied.
func (c *Client) completeProof(ctx context.Context, walletAddress, message, signature *string) error {
	signer := c.session.Signer()
	if *walletAddress == "" && signer != nil {
		*walletAddress = signer.Address()
	}
	if err := validateWalletAddress(*walletAddress); err != nil {
		return err
	}

	if *signature != "" || signer == nil {
		return nil
	}
	if signer.Address() != *walletAddress {
		return &ValidationError{Field: "walletAddress", Message: "does not match the signer address"}
	}

	signed, err := signConsent(ctx, signer, LoginMessage)
	if err != nil {
		return err
	}
	*message = signed.Message
	*signature = signed.Signature
	return nil
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (*AuthResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	resp, err := c.request(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json", false)
	if err != nil {
		return nil, err
	}

	var apiResp apiAuthResponse
	if err := handleResponse(resp, &apiResp); err != nil {
		return nil, err
	}

	result := &AuthResult{Token: apiResp.Data.Token, User: apiResp.Data.User}
	if err := c.session.SetToken(ctx, result.Token, &result.User); err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "authenticated", "wallet_address", result.User.WalletAddress)
	return result, nil
}
