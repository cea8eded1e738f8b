package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// Metadata describes one extracted document
type Metadata struct {
	Path       string `json:"path"`
	Extension  string `json:"extension"`
	SizeBytes  int64  `json:"size_bytes"`
	Characters int    `json:"characters"`
	Lines      int    `json:"lines"`
	Timestamp  string `json:"timestamp"` // RFC3339 format
	Hash       string `json:"hash"`      // SHA256 hex digest of the extracted text
}

// NewMetadata describes text extracted from path, stamped with the current time
func NewMetadata(text, path string) *Metadata {
	m := &Metadata{
		Path:       path,
		Extension:  Extension(path),
		Characters: utf8.RuneCountInString(text),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Hash:       computeHash(text),
	}
	if text != "" {
		m.Lines = strings.Count(text, "\n") + 1
	}
	if info, err := os.Stat(path); err == nil {
		m.SizeBytes = info.Size()
	}
	return m
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
