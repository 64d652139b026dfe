// Package ident generates the human-facing identifiers stored with records:
// donation receipt codes, blog slugs and card transaction ids.
package ident

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"golang.org/x/text/unicode/norm"
)

// DefaultReceiptPrefix is used when no organization prefix is configured.
const DefaultReceiptPrefix = "YPG"

// fallbackSlug is used when a title contains nothing slug-worthy.
const fallbackSlug = "post"

// NewReceiptCode returns "<PREFIX>-<8 uppercase hex>" drawn from a random UUID.
// Uniqueness is enforced by the store; callers regenerate on conflict.
func NewReceiptCode(prefix string) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultReceiptPrefix
	}
	id := uuid.New()
	return fmt.Sprintf("%s-%X", prefix, id[:4])
}

// Slugify lower-cases title, strips accents and punctuation and joins the
// remaining words with hyphens.
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range norm.NFKD.String(title) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingDash = true
		}
	}

	if b.Len() == 0 {
		return fallbackSlug
	}
	return b.String()
}

// SlugCandidate returns base for n == 0 and "base-n" otherwise.
func SlugCandidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// NewTransactionID returns a sortable gateway reference such as "TXN-01J...".
func NewTransactionID() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	return "TXN-" + id.String()
}
