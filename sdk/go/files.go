package univerify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Health checks backend availability.
//
// Example:
//
//	status, err := client.Health(ctx)
//	if err == nil && status.Healthy() {
//	    fmt.Println("backend is up")
//	}
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.request(ctx, http.MethodGet, "/health", nil, "", false)
	if err != nil {
		return nil, err
	}

	var apiResp apiHealthResponse
	if err := handleResponse(resp, &apiResp); err != nil {
		return nil, err
	}

	return &HealthStatus{
		Status:    apiResp.Status,
		Version:   apiResp.Version,
		Timestamp: apiResp.Timestamp,
	}, nil
}

// DeleteFile deletes a stored file by its public ID.
//
// Example:
//
//	result, err := client.DeleteFile(ctx, "documents/abc123")
func (c *Client) DeleteFile(ctx context.Context, publicID string) (*DeleteResult, error) {
	if _, err := c.requireToken("file deletion"); err != nil {
		return nil, err
	}
	if publicID == "" {
		return nil, &ValidationError{Field: "publicId", Message: "is required"}
	}

	resp, err := c.request(ctx, http.MethodDelete, "/api/upload/file/"+url.PathEscape(publicID), nil, "", true)
	if err != nil {
		return nil, err
	}

	var apiResp apiDeleteResponse
	if err := handleResponse(resp, &apiResp); err != nil {
		return nil, err
	}

	result := *apiResp.Data
	if result.PublicID == "" {
		result.PublicID = publicID
	}
	return &result, nil
}

// ListDocuments returns the documents owned by walletAddress. An empty
// address uses the session's wallet.
func (c *Client) ListDocuments(ctx context.Context, walletAddress string) (*DocumentList, error) {
	if _, err := c.requireToken("fetching documents"); err != nil {
		return nil, err
	}
	if walletAddress == "" {
		walletAddress = c.session.WalletAddress()
	}
	if walletAddress == "" {
		return nil, &ValidationError{Field: "walletAddress", Message: "wallet address not found"}
	}
	if err := validateWalletAddress(walletAddress); err != nil {
		return nil, err
	}

	resp, err := c.request(ctx, http.MethodGet, "/api/arweave/documents/"+walletAddress, nil, "", true)
	if err != nil {
		return nil, err
	}

	var apiResp apiDocumentsResponse
	if err := handleResponse(resp, &apiResp); err != nil {
		return nil, err
	}

	docs := make([]Document, len(apiResp.Data.Documents))
	for i, d := range apiResp.Data.Documents {
		docs[i] = Document{
			ID:           d.ID,
			TxID:         d.TxID,
			Filename:     d.Filename,
			ContentType:  d.ContentType,
			Size:         d.Size,
			UploadedAt:   parseTime(d.UploadedAt),
			HasChanged:   d.HasChanged,
			LastVerified: parseTime(d.LastVerified),
			Owner: DocumentOwner{
				WalletAddress: d.Owner.WalletAddress,
				Name:          d.Owner.Name,
				Email:         d.Owner.Email,
			},
			StorageURL: d.CloudinaryData.URL,
			Blockchain: d.BlockchainData,
			IsOwner:    d.IsOwner,
		}
	}

	total := apiResp.Data.TotalDocuments
	if total == 0 {
		total = len(docs)
	}
	userAddress := apiResp.Data.UserAddress
	if userAddress == "" {
		userAddress = walletAddress
	}

	return &DocumentList{
		UserAddress:    userAddress,
		Documents:      docs,
		TotalDocuments: total,
	}, nil
}

// apiShareResponse is the raw API response for document sharing.
type apiShareResponse struct {
	apiEnvelope
}

func (r *apiShareResponse) validate() string {
	if !r.Success {
		return "share was not accepted"
	}
	return ""
}

// ShareDocument shares a document with email. The document is verified first
// and the share request carries the verified transaction ID and hash.
//
// Example:
//
//	result, err := client.ShareDocument(ctx, "arweave-tx-id", "registrar@example.edu")
func (c *Client) ShareDocument(ctx context.Context, documentID, email string) (*ShareResult, error) {
	if _, err := c.requireToken("document sharing"); err != nil {
		return nil, err
	}
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "is required"}
	}

	verification := c.VerifyDocument(ctx, documentID, "")
	if !verification.IsValid {
		msg := verification.Error
		if msg == "" {
			msg = "Document verification failed"
		}
		return nil, &APIError{StatusCode: http.StatusBadRequest, Message: msg, Err: ErrValidation}
	}

	body, err := json.Marshal(map[string]string{
		"documentId":       documentID,
		"email":            email,
		"txId":             verification.Document.TxID,
		"verificationHash": verification.Document.VerificationHash,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	resp, err := c.request(ctx, http.MethodPost, "/api/arweave/share", bytes.NewReader(body), "application/json", true)
	if err != nil {
		return nil, err
	}

	var apiResp apiShareResponse
	if err := handleResponse(resp, &apiResp); err != nil {
		return nil, err
	}

	return &ShareResult{Success: apiResp.Success, Message: apiResp.Message}, nil
}
