package util

import (
	"crypto/rand"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// MaxIdentifierLen bounds the address-derived part of a report name so the
// full filename stays well under the 255-byte limit of common filesystems.
const MaxIdentifierLen = 64

var unsafeIdentifierChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeIdentifier turns a purchaser address into a filename-safe token:
// "@" and anything outside [A-Za-z0-9._-] become "_". The result is at most
// MaxIdentifierLen bytes.
func SafeIdentifier(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "@", "_")
	s = unsafeIdentifierChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "._")
	if len(s) > MaxIdentifierLen {
		s = strings.TrimRight(s[:MaxIdentifierLen], "._")
	}

	if s == "" {
		return "anonymous"
	}

	return s
}

// ReportID derives a per-order report identifier from the purchaser address.
// The nonce suffix keeps concurrent orders for the same address apart.
func ReportID(address string) string {
	return "UX_Report_" + SafeIdentifier(address) + "_" + NewNonce()
}

// NewNonce is a lower-cased ULID: unique per call, sortable by creation time.
func NewNonce() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	return strings.ToLower(id.String())
}
