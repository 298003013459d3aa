// Package testutil holds helpers shared by the internal package tests.
package testutil

import (
	"database/sql"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/univerify/univerify/internal/config"
	"github.com/univerify/univerify/internal/database"
)

// PDFContent is a minimal document that detects as application/pdf.
var PDFContent = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// SetupTestDB creates a migrated in-memory SQLite database.
// The database is closed when the test completes.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Initialize(database.MemoryPath)
	if err != nil {
		t.Fatalf("failed to initialize test db: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// SetupTestConfig returns a valid configuration pointing at apiURL with
// fast confirmation polling and temporary receipt storage.
func SetupTestConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()

	return &config.Config{
		APIURL:         apiURL,
		AppURL:         "https://univerify.vercel.app",
		DBPath:         database.MemoryPath,
		MaxFileSize:    10 * 1024 * 1024,
		AllowedTypes:   []string{"application/pdf", "image/png", "text/plain"},
		ConfirmRetries: 3,
		ConfirmDelay:   time.Millisecond,
		RequestTimeout: 10 * time.Second,
		ListenAddr:     ":0",
		LogLevel:       "debug",
		LogFormat:      "text",
		ReceiptStore:   config.ReceiptStoreNone,
		ReceiptDir:     t.TempDir(),
	}
}

// CreateTestFile writes content to name inside a temporary directory and
// returns its path.
func CreateTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

// AssertStatusCode checks that the HTTP response status code matches expected
func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int) {
	t.Helper()

	if rr.Code != wantStatus {
		t.Errorf("status code = %d, want %d\nBody: %s", rr.Code, wantStatus, rr.Body.String())
	}
}
