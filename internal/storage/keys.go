package storage

import (
	"fmt"
	"path"
	"strings"
)

// Key prefixes of the two receipt kinds.
const (
	UploadPrefix       = "uploads/"
	VerificationPrefix = "verifications/"
)

// ValidateKey rejects keys that are empty, absolute, contain traversal
// segments or null bytes.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key not allowed")
	}
	if strings.ContainsRune(key, '\x00') {
		return fmt.Errorf("null bytes not allowed in key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid key: %s", key)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return fmt.Errorf("path traversal not allowed: %s", key)
		}
	}
	if cleaned := path.Clean(key); cleaned != key || cleaned == "." {
		return fmt.Errorf("invalid key: %s", key)
	}
	return nil
}

// keySegment makes s safe to use as a single key segment.
func keySegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, ".")
	if s == "" {
		return "_"
	}
	return s
}

// UploadKey is the key of the receipt for the upload anchored by txHash.
func UploadKey(txHash string) string {
	return UploadPrefix + keySegment(strings.ToLower(txHash)) + ".json"
}

// VerificationKey is the key of a verification receipt. unixNano orders
// receipts of the same document.
func VerificationKey(documentID string, unixNano int64) string {
	return fmt.Sprintf("%s%s-%d.json", VerificationPrefix, keySegment(documentID), unixNano)
}
