package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Report is the persisted unit produced by one successful scan batch.
type Report struct {
	// Core identifiers
	ID        string    // Unique report identifier (UUID)
	CreatedAt time.Time // Record creation timestamp

	// Content
	Title   string // Patient-friendly title generated from the redacted transcript
	OCRText string // Full transcript across all pages, joined by the page break marker
	Summary string // Patient-friendly summary body (empty if generation produced none)

	// Artifact
	PDF       []byte // Paginated document built from the redacted page images (nil if empty)
	PageCount int    // Number of input pages in the batch

	// Ownership
	OwnerEmail string // Lowercased owner identity; records are scoped per owner
}

// NewReport constructs a report with a fresh identifier and creation time.
// The owner email is normalized to lowercase so that lookups are stable.
func NewReport(title, ocrText, summary string, pdf []byte, pageCount int, ownerEmail string) *Report {
	return &Report{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		Title:      title,
		OCRText:    ocrText,
		Summary:    summary,
		PDF:        pdf,
		PageCount:  pageCount,
		OwnerEmail: strings.ToLower(strings.TrimSpace(ownerEmail)),
	}
}
