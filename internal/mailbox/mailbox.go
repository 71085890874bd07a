// Package mailbox produces the EmailRecord batches the classification engine
// consumes: parsed .eml files, YAML inbox files and generated demo data. It
// owns the boundary-side normalization the engine itself refuses to do.
package mailbox

import (
	"fmt"
	"strconv"

	"github.com/mailsift/mailsift/internal/classifier"
)

const (
	// DefaultBatchLimit applies when the caller gives no usable limit.
	DefaultBatchLimit = 50

	// MaxBatchLimit is the hard cap on batch size.
	MaxBatchLimit = 100
)

// ClampLimit maps any requested batch size into [1, MaxBatchLimit], falling
// back to DefaultBatchLimit for zero or negative values.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultBatchLimit
	}
	if n > MaxBatchLimit {
		return MaxBatchLimit
	}
	return n
}

// ParseLimit is ClampLimit over a raw query/flag value; non-numeric input
// falls back to the default.
func ParseLimit(raw string) int {
	if raw == "" {
		return DefaultBatchLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultBatchLimit
	}
	return ClampLimit(n)
}

// Truncate bounds a batch to at most limit records, preserving order.
func Truncate(emails []classifier.EmailRecord, limit int) []classifier.EmailRecord {
	if len(emails) <= limit {
		return emails
	}
	return emails[:limit]
}

// Normalize fills the fields the engine assumes are present. Records without
// an id get a positional one; nil header maps stay nil (the engine passes
// headers through untouched).
func Normalize(emails []classifier.EmailRecord) []classifier.EmailRecord {
	for i := range emails {
		if emails[i].ID == "" {
			emails[i].ID = fmt.Sprintf("email-%d", i+1)
		}
	}
	return emails
}
