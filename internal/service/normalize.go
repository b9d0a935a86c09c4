package service

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/lumenfeed/newsrag/internal/domain"
)

// NormalizeURL strips the query component entirely so tracking parameters
// never distinguish the same article. Scheme, host, path, and fragment are
// left untouched.
func NormalizeURL(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", domain.ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "source link is not a parseable URL", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", domain.ErrInvalidURL
	}
	u.RawQuery = ""
	return u.String(), nil
}

// NormalizeText collapses every whitespace run (including newlines) into a
// single space and trims the ends. Paragraph boundaries are destroyed here;
// the result is the basis for fingerprinting, not for chunking.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Fingerprint returns the SHA-256 hex digest of the UTF-8 encoding of the
// normalized text. Texts that normalize identically always collide, which
// is the content-dedup signal.
func Fingerprint(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
