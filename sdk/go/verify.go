package univerify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultAppURL is the public frontend that serves verification links.
const DefaultAppURL = "https://univerify.vercel.app"

// verificationFailed is reported when the backend answered success=false
// without a message.
const verificationFailed = "Verification failed"

// VerifyDocument resolves a document by its storage transaction ID and reports
// whether the backend considers it authentic.
//
// It never returns an error: every failure is folded into the result with
// IsValid=false and a human-readable Error. The hash is recorded for display
// only; the ID is the lookup key. No token is attached, since verification
// links are meant for third parties.
func (c *Client) VerifyDocument(ctx context.Context, documentID, hash string) VerificationResult {
	result := VerificationResult{RequestedHash: hash}

	if documentID == "" {
		result.Error = "Transaction ID is required for document verification"
		return result
	}
	if err := validateIdentifier("documentId", documentID); err != nil {
		result.Error = verificationErrorMessage(err)
		return result
	}

	resp, err := c.request(ctx, http.MethodGet, "/api/arweave/verify/"+url.PathEscape(documentID), nil, "", false)
	if err != nil {
		result.Error = verificationErrorMessage(err)
		return result
	}

	var apiResp apiVerificationResponse
	if err := handleResponse(resp, &apiResp); err != nil {
		result.Error = verificationErrorMessage(err)
		return result
	}

	if !apiResp.Success {
		result.Error = verificationFailed
		if apiResp.Data != nil && apiResp.Data.Message != "" {
			result.Error = apiResp.Data.Message
		}
		return result
	}

	result.IsValid = true
	result.Document = snapshotFromAPI(&apiResp)

	c.logger.DebugContext(ctx, "document verified",
		"document_id", documentID,
		"has_changed", result.Document.HasChanged,
	)
	return result
}

func snapshotFromAPI(r *apiVerificationResponse) *DocumentSnapshot {
	d := r.Data
	doc := d.Document
	snap := &DocumentSnapshot{
		ID:          d.TxID,
		TxID:        d.TxID,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		Owner: DocumentOwner{
			WalletAddress: doc.Owner.Address,
			Name:          doc.Owner.Name,
			Email:         doc.Owner.Email,
		},
		Blockchain:       d.Blockchain,
		HasChanged:       d.Verification.HasChanged,
		VerificationHash: d.Verification.Hash,
		UploadedAt:       parseTime(doc.UploadedAt),
		LastVerified:     parseTime(d.Verification.VerifiedAt),
		Arweave:          d.Arweave,
	}
	if snap.LastVerified == nil {
		snap.LastVerified = parseTime(doc.LastVerified)
	}
	if u, ok := d.Arweave["url"].(string); ok {
		snap.StorageURL = u
	}
	return snap
}

// verificationErrorMessage renders a failure for VerificationResult.Error.
func verificationErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fmt.Sprintf("%s %s", validationErr.Field, validationErr.Message)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Verification canceled: " + err.Error()
	}
	return err.Error()
}

// VerificationLink builds the shareable link {appURL}/verify/{id}/{hash}.
// An empty appURL uses DefaultAppURL.
func VerificationLink(appURL, documentID, hash string) string {
	if appURL == "" {
		appURL = DefaultAppURL
	}
	return fmt.Sprintf("%s/verify/%s/%s",
		strings.TrimRight(appURL, "/"),
		url.PathEscape(documentID),
		url.PathEscape(hash),
	)
}

// ParseVerificationLink extracts the document ID and hash from a link built
// by VerificationLink. Any prefix before /verify/ is accepted.
func ParseVerificationLink(link string) (documentID, hash string, err error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", "", &ValidationError{Field: "link", Message: "must be a valid URL"}
	}

	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	n := len(segments)
	if n >= 3 && segments[n-3] == "verify" {
		id, idErr := url.PathUnescape(segments[n-2])
		h, hashErr := url.PathUnescape(segments[n-1])
		if idErr == nil && hashErr == nil && id != "" && h != "" {
			return id, h, nil
		}
	}
	return "", "", &ValidationError{Field: "link", Message: "must end with /verify/{documentId}/{hash}"}
}
