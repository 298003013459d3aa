package univerify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func verificationPayload(hasChanged bool) map[string]any {
	return map[string]any{
		"success": true,
		"data": map[string]any{
			"txId": "arTx123",
			"document": map[string]any{
				"filename":    "diploma.pdf",
				"contentType": "application/pdf",
				"size":        2048,
				"owner": map[string]any{
					"address": testWallet,
					"name":    "Ada",
					"email":   "ada@example.edu",
				},
				"uploadedAt":   "2024-05-01T10:00:00Z",
				"hasChanged":   hasChanged,
				"lastVerified": "2024-05-02T10:00:00Z",
			},
			"arweave": map[string]any{"url": "https://arweave.net/arTx123", "id": "arTx123"},
			"blockchain": map[string]any{
				"transactionHash": "0xabc",
				"blockNumber":     42,
				"status":          StatusConfirmed,
			},
			"verification": map[string]any{
				"hash":       "0xDEADBEEF",
				"hasChanged": hasChanged,
				"verifiedAt": "2024-06-01T12:00:00Z",
			},
		},
	}
}

func TestVerifyDocument_Valid(t *testing.T) {
	for _, hasChanged := range []bool{false, true} {
		name := "unchanged"
		if hasChanged {
			name = "changed"
		}
		t.Run(name, func(t *testing.T) {
			var gotAuth string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/arweave/verify/arTx123" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				gotAuth = r.Header.Get("Authorization")
				writeJSON(w, http.StatusOK, verificationPayload(hasChanged))
			}, "jwt-token", nil)

			result := client.VerifyDocument(context.Background(), "arTx123", "deadbeef")

			if !result.IsValid {
				t.Fatalf("IsValid = false, error %q", result.Error)
			}
			if result.Error != "" {
				t.Errorf("Error = %q, want empty", result.Error)
			}
			if gotAuth != "" {
				t.Errorf("verification should not send a token, got %q", gotAuth)
			}

			doc := result.Document
			if doc == nil {
				t.Fatal("Document should be set")
			}
			if doc.HasChanged != hasChanged {
				t.Errorf("HasChanged = %v, want %v", doc.HasChanged, hasChanged)
			}
			if doc.ID != "arTx123" || doc.Filename != "diploma.pdf" || doc.Size != 2048 {
				t.Errorf("document = %+v", doc)
			}
			if doc.Owner.WalletAddress != testWallet {
				t.Errorf("Owner.WalletAddress = %q", doc.Owner.WalletAddress)
			}
			if doc.StorageURL != "https://arweave.net/arTx123" {
				t.Errorf("StorageURL = %q", doc.StorageURL)
			}
			if doc.Blockchain.BlockNumber != 42 {
				t.Errorf("Blockchain.BlockNumber = %d, want 42", doc.Blockchain.BlockNumber)
			}
			if doc.UploadedAt == nil || doc.UploadedAt.Year() != 2024 {
				t.Errorf("UploadedAt = %v", doc.UploadedAt)
			}
			if doc.LastVerified == nil || doc.LastVerified.Month() != 6 {
				t.Errorf("LastVerified = %v, want verification time", doc.LastVerified)
			}
			if !result.HashMatches() {
				t.Error("requested hash should match the verification hash")
			}
		})
	}
}

func TestVerifyDocument_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantError string
	}{
		{
			name:      "success false without message",
			status:    http.StatusOK,
			body:      `{"success":false}`,
			wantError: "Verification failed",
		},
		{
			name:      "success false with data message",
			status:    http.StatusOK,
			body:      `{"success":false,"data":{"message":"Document hash mismatch"}}`,
			wantError: "Document hash mismatch",
		},
		{
			name:      "not found",
			status:    http.StatusNotFound,
			body:      `{"success":false,"message":"Document not found"}`,
			wantError: "Document not found",
		},
		{
			name:      "server error without body",
			status:    http.StatusServiceUnavailable,
			body:      ``,
			wantError: "HTTP 503: Service Unavailable",
		},
		{
			name:      "success with non-JSON body",
			status:    http.StatusOK,
			body:      `<html><body>Bad Gateway</body></html>`,
			wantError: "decoding response: invalid character '<' looking for beginning of value",
		},
		{
			name:      "success without document",
			status:    http.StatusOK,
			body:      `{"success":true,"data":{"txId":"arTx123"}}`,
			wantError: "verification response is missing document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, "", nil)

			result := client.VerifyDocument(context.Background(), "arTx123", "abc")

			if result.IsValid {
				t.Error("IsValid should be false")
			}
			if result.Document != nil {
				t.Error("Document should be nil")
			}
			if result.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", result.Error, tt.wantError)
			}
			if result.RequestedHash != "abc" {
				t.Errorf("RequestedHash = %q, want abc", result.RequestedHash)
			}
		})
	}
}

func TestVerifyDocument_EmptyID(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}, "", nil)

	result := client.VerifyDocument(context.Background(), "", "abc")

	if result.IsValid {
		t.Error("IsValid should be false")
	}
	if result.Error != "Transaction ID is required for document verification" {
		t.Errorf("Error = %q", result.Error)
	}
	if hits.Load() != 0 {
		t.Error("no request should be sent")
	}
}

func TestVerifyDocument_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client, _ := NewClient(ClientConfig{BaseURL: baseURL})
	result := client.VerifyDocument(context.Background(), "arTx123", "abc")

	if result.IsValid {
		t.Error("IsValid should be false")
	}
	if !strings.HasPrefix(result.Error, "Network error: ") {
		t.Errorf("Error = %q, want network error", result.Error)
	}
}

func TestVerifyDocument_Canceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, verificationPayload(false))
	}, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := client.VerifyDocument(ctx, "arTx123", "abc")
	if result.IsValid || result.Error == "" {
		t.Errorf("result = %+v, want failure", result)
	}
}

func TestHashMatches(t *testing.T) {
	doc := &DocumentSnapshot{VerificationHash: "0xABCDEF"}
	tests := []struct {
		name   string
		result VerificationResult
		want   bool
	}{
		{name: "case and prefix insensitive", result: VerificationResult{Document: doc, RequestedHash: "abcdef"}, want: true},
		{name: "different hash", result: VerificationResult{Document: doc, RequestedHash: "0x1234"}, want: false},
		{name: "no document", result: VerificationResult{RequestedHash: "abcdef"}, want: false},
		{name: "no requested hash", result: VerificationResult{Document: doc}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.HashMatches(); got != tt.want {
				t.Errorf("HashMatches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerificationLink(t *testing.T) {
	tests := []struct {
		name   string
		appURL string
		want   string
	}{
		{name: "default app URL", appURL: "", want: "https://univerify.vercel.app/verify/arTx123/0xabc"},
		{name: "custom app URL", appURL: "http://localhost:3000/", want: "http://localhost:3000/verify/arTx123/0xabc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerificationLink(tt.appURL, "arTx123", "0xabc"); got != tt.want {
				t.Errorf("VerificationLink() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseVerificationLink(t *testing.T) {
	tests := []struct {
		link     string
		wantID   string
		wantHash string
		wantErr  bool
	}{
		{link: "https://univerify.vercel.app/verify/arTx123/0xabc", wantID: "arTx123", wantHash: "0xabc"},
		{link: "http://localhost:8080/app/verify/doc-1/deadbeef/", wantID: "doc-1", wantHash: "deadbeef"},
		{link: VerificationLink("", "a b", "c/d"), wantID: "a b", wantHash: "c/d"},
		{link: "https://univerify.vercel.app/verify/arTx123", wantErr: true},
		{link: "https://univerify.vercel.app/documents/a/b", wantErr: true},
		{link: "://bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			id, hash, err := ParseVerificationLink(tt.link)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID || hash != tt.wantHash {
				t.Errorf("got (%q, %q), want (%q, %q)", id, hash, tt.wantID, tt.wantHash)
			}
		})
	}
}
