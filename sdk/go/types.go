// Package univerify provides a Go client SDK for the UniVerify document
// authenticity service: uploading documents anchored on a blockchain, waiting
// for their transactions to confirm, and verifying them later.
package univerify

import (
	"log/slog"
	"net/http"
	"time"
)

// StatusConfirmed is the wire value of a confirmed transaction status.
const StatusConfirmed = "0x1"

// StatusPending is the wire value the backend reports before confirmation.
const StatusPending = "0x0"

// UploadPhase is the stage an upload attempt is in.
type UploadPhase string

// Upload phases, in the order an attempt normally passes through them.
const (
	PhaseIdle       UploadPhase = "idle"
	PhaseValidating UploadPhase = "validating"
	PhaseUploading  UploadPhase = "uploading"
	PhaseConfirming UploadPhase = "confirming"
	PhaseCompleted  UploadPhase = "completed"
	PhaseError      UploadPhase = "error"
)

// UploadProgress reports the state of a single upload attempt.
type UploadProgress struct {
	// Phase is the current stage.
	Phase UploadPhase `json:"phase"`
	// Progress is the completion percentage (0-100).
	Progress int `json:"progress"`
	// Message is a human-readable description of the stage.
	Message string `json:"message"`
	// TransactionHash is set once the backend returned a transaction.
	TransactionHash string `json:"transaction_hash,omitempty"`
	// Error is set only when Phase is PhaseError.
	Error string `json:"error,omitempty"`
}

// IdleProgress returns the reset state shown between attempts.
func IdleProgress() UploadProgress {
	return UploadProgress{Phase: PhaseIdle}
}

// Terminal reports whether the attempt has finished, successfully or not.
func (p UploadProgress) Terminal() bool {
	return p.Phase == PhaseCompleted || p.Phase == PhaseError
}

// UserInfo is the uploader profile attached to a stored file.
type UserInfo struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// FileMetadata describes a file stored by the backend.
type FileMetadata struct {
	// ID is the storage public ID.
	ID string `json:"id"`
	// OriginalName is the uploaded filename.
	OriginalName string `json:"original_name"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
	// URL is the storage location.
	URL string `json:"url"`
	// UploadedBy is the uploader identity (wallet address or user ID).
	UploadedBy string `json:"uploaded_by"`
	// UserInfo is the uploader profile.
	UserInfo UserInfo `json:"user_info"`
}

// TransactionRecord is the blockchain anchor of an upload.
type TransactionRecord struct {
	Hash        string `json:"hash"`
	BlockNumber int64  `json:"block_number"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`
}

// Confirmed reports whether the transaction reached the confirmed status.
func (t TransactionRecord) Confirmed() bool {
	return t.Status == StatusConfirmed
}

// UploadResult represents the result of a successful upload. It is created
// from the backend response and never modified afterwards.
type UploadResult struct {
	File       FileMetadata      `json:"file"`
	Blockchain TransactionRecord `json:"blockchain"`
	// Confirmed is the transaction as observed by the poller at confirmation.
	Confirmed *TransactionRecord `json:"confirmed,omitempty"`
}

// DocumentOwner identifies the wallet that owns a document.
type DocumentOwner struct {
	WalletAddress string `json:"wallet_address"`
	Name          string `json:"name"`
	Email         string `json:"email"`
}

// BlockchainData is the on-chain anchor reported by the verification endpoint.
type BlockchainData struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     int64  `json:"blockNumber"`
	BlockHash       string `json:"blockHash"`
	ContractAddress string `json:"contractAddress"`
	GasUsed         int64  `json:"gasUsed"`
	Status          string `json:"status"`
	Confirmations   int64  `json:"confirmations"`
	Timestamp       int64  `json:"timestamp"`
}

// DocumentSnapshot is the document state observed at verification time.
type DocumentSnapshot struct {
	// ID is the document identifier (the storage transaction ID).
	ID string `json:"id"`
	// TxID is the decentralized storage transaction ID.
	TxID        string        `json:"tx_id"`
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	Size        int64         `json:"size"`
	Owner       DocumentOwner `json:"owner"`
	// StorageURL is where the document content can be fetched.
	StorageURL string         `json:"storage_url,omitempty"`
	Blockchain BlockchainData `json:"blockchain"`
	// HasChanged is the backend's drift flag: the current content hash no
	// longer matches the hash recorded at upload time.
	HasChanged bool `json:"has_changed"`
	// VerificationHash is the content hash the backend computed.
	VerificationHash string     `json:"verification_hash"`
	UploadedAt       *time.Time `json:"uploaded_at,omitempty"`
	LastVerified     *time.Time `json:"last_verified,omitempty"`
	// Arweave carries the raw storage metadata.
	Arweave map[string]any `json:"arweave,omitempty"`
}

// VerificationResult is the outcome of a verification. It is always
// returned as a value; failures are reported through IsValid and Error.
type VerificationResult struct {
	IsValid  bool              `json:"is_valid"`
	Document *DocumentSnapshot `json:"document"`
	Error    string            `json:"error,omitempty"`
	// RequestedHash is the hash from the verification link, kept for display.
	RequestedHash string `json:"requested_hash,omitempty"`
}

// HashMatches reports whether the hash from the link equals the hash the
// backend verified. It is a display aid; IsValid is authoritative.
func (r VerificationResult) HashMatches() bool {
	if r.Document == nil || r.RequestedHash == "" {
		return false
	}
	return normalizeHash(r.RequestedHash) == normalizeHash(r.Document.VerificationHash)
}

// Document is a backend-owned record listed for a wallet.
type Document struct {
	ID           string         `json:"id"`
	TxID         string         `json:"tx_id"`
	Filename     string         `json:"filename"`
	ContentType  string         `json:"content_type"`
	Size         int64          `json:"size"`
	UploadedAt   *time.Time     `json:"uploaded_at,omitempty"`
	HasChanged   bool           `json:"has_changed"`
	LastVerified *time.Time     `json:"last_verified,omitempty"`
	Owner        DocumentOwner  `json:"owner"`
	StorageURL   string         `json:"storage_url,omitempty"`
	Blockchain   BlockchainData `json:"blockchain"`
	IsOwner      bool           `json:"is_owner"`
}

// DocumentList is the set of documents owned by a wallet.
type DocumentList struct {
	UserAddress    string     `json:"user_address"`
	Documents      []Document `json:"documents"`
	TotalDocuments int        `json:"total_documents"`
}

// User is the authenticated account.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	WalletAddress string `json:"wallet_address"`
}

// AuthResult is returned by Login and Signup.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// HealthStatus is the backend health report.
type HealthStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
}

// Healthy reports whether the backend considers itself healthy.
func (h HealthStatus) Healthy() bool {
	return h.Status == "ok"
}

// DeleteResult is returned by DeleteFile.
type DeleteResult struct {
	Deleted  bool   `json:"deleted"`
	PublicID string `json:"public_id"`
}

// ShareResult is returned by ShareDocument.
type ShareResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ClientConfig contains configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the backend URL (required).
	BaseURL string
	// Session holds the bearer token and signer. A fresh in-memory session
	// is created when nil.
	Session *Session
	// Timeout is the per-request timeout (default: 5 minutes).
	Timeout time.Duration
	// HTTPClient replaces the default HTTP client. Timeout is ignored when set.
	HTTPClient *http.Client
	// Logger receives debug output. Defaults to a discarding logger.
	Logger *slog.Logger
}

// apiEnvelope is the common {success, message} part of backend responses.
type apiEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// apiUploadResponse is the raw API response for uploads.
type apiUploadResponse struct {
	apiEnvelope
	Data *struct {
		File *struct {
			ID           string   `json:"id"`
			OriginalName string   `json:"original_name"`
			Size         int64    `json:"size"`
			URL          string   `json:"url"`
			UploadedBy   string   `json:"uploaded_by"`
			UserInfo     UserInfo `json:"user_info"`
		} `json:"file"`
		Blockchain *struct {
			TransactionHash string `json:"transaction_hash"`
			BlockNumber     int64  `json:"block_number"`
			Status          string `json:"status"`
			Timestamp       int64  `json:"timestamp"`
		} `json:"blockchain"`
	} `json:"data"`
}

func (r *apiUploadResponse) validate() string {
	switch {
	case !r.Success:
		return "upload was not accepted"
	case r.Data == nil || r.Data.File == nil || r.Data.Blockchain == nil:
		return "upload response is missing data"
	case r.Data.Blockchain.TransactionHash == "":
		return "upload response is missing transaction_hash"
	}
	return ""
}

// apiTransactionResponse is the raw API response for transaction lookups.
type apiTransactionResponse struct {
	apiEnvelope
	Data *struct {
		Transaction *struct {
			Hash        string `json:"hash"`
			BlockNumber int64  `json:"blockNumber"`
			Status      string `json:"status"`
			Timestamp   int64  `json:"timestamp"`
		} `json:"transaction"`
	} `json:"data"`
}

func (r *apiTransactionResponse) validate() string {
	if r.Data == nil || r.Data.Transaction == nil {
		return "transaction response is missing data.transaction"
	}
	return ""
}

// apiVerificationResponse is the raw API response for document verification.
type apiVerificationResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		TxID     string `json:"txId"`
		Document *struct {
			Filename    string `json:"filename"`
			ContentType string `json:"contentType"`
			Size        int64  `json:"size"`
			Owner       struct {
				Address string `json:"address"`
				Name    string `json:"name"`
				Email   string `json:"email"`
			} `json:"owner"`
			UploadedAt   string `json:"uploadedAt"`
			HasChanged   bool   `json:"hasChanged"`
			LastVerified string `json:"lastVerified"`
		} `json:"document"`
		Arweave      map[string]any `json:"arweave"`
		Blockchain   BlockchainData `json:"blockchain"`
		Verification *struct {
			Hash       string `json:"hash"`
			HasChanged bool   `json:"hasChanged"`
			VerifiedAt string `json:"verifiedAt"`
		} `json:"verification"`
		Message string `json:"message"`
	} `json:"data"`
}

// validate checks the data of a successful verification; a success=false
// envelope is a valid negative answer.
func (r *apiVerificationResponse) validate() string {
	if !r.Success {
		return ""
	}
	switch {
	case r.Data == nil:
		return "verification response is missing data"
	case r.Data.TxID == "":
		return "verification response is missing txId"
	case r.Data.Document == nil:
		return "verification response is missing document"
	case r.Data.Verification == nil:
		return "verification response is missing verification"
	}
	return ""
}

// apiAuthResponse is the raw API response for login and signup.
type apiAuthResponse struct {
	apiEnvelope
	Data *struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	} `json:"data"`
}

func (r *apiAuthResponse) validate() string {
	switch {
	case !r.Success:
		return "authentication was not accepted"
	case r.Data == nil || r.Data.Token == "":
		return "authentication response is missing token"
	}
	return ""
}

// apiDeleteResponse is the raw API response for file deletion.
type apiDeleteResponse struct {
	apiEnvelope
	Data *DeleteResult `json:"data"`
}

func (r *apiDeleteResponse) validate() string {
	if r.Data == nil {
		return "delete response is missing data"
	}
	return ""
}

// apiDocument is a single document in the documents listing.
type apiDocument struct {
	ID           string `json:"id"`
	TxID         string `json:"txId"`
	Filename     string `json:"filename"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
	UploadedAt   string `json:"uploadedAt"`
	HasChanged   bool   `json:"hasChanged"`
	LastVerified string `json:"lastVerified"`
	Owner        struct {
		WalletAddress string `json:"walletAddress"`
		Name          string `json:"name"`
		Email         string `json:"email"`
	} `json:"owner"`
	CloudinaryData struct {
		URL string `json:"url"`
	} `json:"cloudinaryData"`
	BlockchainData BlockchainData `json:"blockchainData"`
	IsOwner        bool           `json:"isOwner"`
}

// apiDocumentsResponse is the raw API response for listing documents.
type apiDocumentsResponse struct {
	apiEnvelope
	Data *struct {
		UserAddress    string        `json:"userAddress"`
		Documents      []apiDocument `json:"documents"`
		TotalDocuments int           `json:"totalDocuments"`
	} `json:"data"`
}

func (r *apiDocumentsResponse) validate() string {
	if r.Data == nil {
		return "documents response is missing data"
	}
	return ""
}

// apiHealthResponse is the raw API response for the health check.
type apiHealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
}

func (r *apiHealthResponse) validate() string {
	if r.Status == "" {
		return "health response is missing status"
	}
	return ""
}

// validator is implemented by every raw response envelope.
type validator interface {
	validate() string
}
