package handlers

import (
	"context"
	"net/http"
	"strings"

	univerify "github.com/univerify/univerify/sdk/go"
)

// Verifier resolves a document reference to a verification result.
type Verifier interface {
	Verify(ctx context.Context, documentID, hash string) univerify.VerificationResult
}

// VerifyHandler serves GET /verify/{documentId}/{hash}, the route encoded in
// verification links. It answers 200 with the result when the document is
// valid and 422 with the result when it is not.
func VerifyHandler(verifier Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setNoCacheHeaders(w)

		documentID := strings.TrimSpace(r.PathValue("documentId"))
		hash := strings.TrimSpace(r.PathValue("hash"))
		if documentID == "" {
			sendError(w, "Document ID is required", "INVALID_DOCUMENT_ID", http.StatusBadRequest)
			return
		}

		result := verifier.Verify(r.Context(), documentID, hash)

		status := http.StatusOK
		if !result.IsValid {
			status = http.StatusUnprocessableEntity
		}
		sendJSON(w, status, result)
	}
}
