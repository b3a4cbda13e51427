// Package query derives display views from an already fetched document list.
// Every function is pure: inputs are never mutated and a new slice is returned.
package query

import (
	"strings"
	"time"

	"dokubox/internal/model"
)

// Predicate narrows a document list. Empty fields match everything.
type Predicate struct {
	// Text is matched case-insensitively against title, store and notes.
	Text string
	// CategoryID must equal the document's category exactly.
	CategoryID string
}

// Filter returns the documents matching p, in input order.
func Filter(docs []model.Document, p Predicate) []model.Document {
	needle := strings.ToLower(p.Text)

	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if p.CategoryID != "" && d.CategoryID != p.CategoryID {
			continue
		}
		if needle != "" && !matchesText(d, needle) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matchesText(d model.Document, needle string) bool {
	for _, field := range [...]string{d.Title, d.Store, d.Notes} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// IsExpired reports whether d has an expiration date before now.
func IsExpired(d model.Document, now time.Time) bool {
	return d.ExpirationDate != nil && d.ExpirationDate.Before(now)
}

// ExpiringWithin returns the documents that are not yet expired and expire
// no later than now+window.
func ExpiringWithin(docs []model.Document, now time.Time, window time.Duration) []model.Document {
	limit := now.Add(window)

	out := make([]model.Document, 0)
	for _, d := range docs {
		if d.ExpirationDate == nil || IsExpired(d, now) {
			continue
		}
		if !d.ExpirationDate.After(limit) {
			out = append(out, d)
		}
	}
	return out
}
