// Package security screens externally supplied strings for SSRF targets, path
// traversal, injection, and encoding evasion. Every check fails closed: a
// string that cannot be fully decoded or parsed is rejected, never passed on.
package security

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// maxDecodeRounds bounds iterative percent-decoding. Layered encodings
	// deeper than this are rejected rather than decoded further.
	maxDecodeRounds = 5

	defaultMaxURLLength = 2048
	maxCookieLength     = 8192
)

// Categories a rejection can come from, one per named check.
const (
	CategoryDecode    = "decode"
	CategoryTraversal = "traversal"
	CategoryControl   = "control"
	CategoryInjection = "injection"
	CategoryScheme    = "scheme"
	CategoryHost      = "host"
	CategoryLength    = "length"
	CategoryMalformed = "malformed"
)

// RejectError explains why an input was refused.
type RejectError struct {
	Category string
	Reason   string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("rejected (%s): %s", e.Category, e.Reason)
}

func reject(category, reason string) error {
	return &RejectError{Category: category, Reason: reason}
}

// Validator screens user-supplied URLs and strings.
type Validator struct {
	maxURLLength  int
	requireDomain bool // reject raw IP-literal hostnames
}

func New(maxURLLength int, requireDomain bool) *Validator {
	if maxURLLength <= 0 {
		maxURLLength = defaultMaxURLLength
	}
	return &Validator{maxURLLength: maxURLLength, requireDomain: requireDomain}
}

// decodeFully applies iterative percent-decoding, stopping early once a round
// is a no-op. A decode failure on the first round means the input is not
// valid percent-encoding at all; treat anything undecodable as hostile.
func decodeFully(s string) (string, error) {
	cur := s
	for i := 0; i < maxDecodeRounds; i++ {
		if !strings.Contains(cur, "%") {
			return cur, nil
		}
		next, err := url.QueryUnescape(cur)
		if err != nil {
			return "", reject(CategoryDecode, "undecodable percent-encoding")
		}
		if next == cur {
			return cur, nil
		}
		cur = next
	}
	return cur, nil
}

// Screen rejects any string containing attack patterns, after full decoding.
// It is the gate for every externally supplied value, URL or not.
func (v *Validator) Screen(input string) error {
	if input == "" {
		return reject(CategoryMalformed, "empty input")
	}

	decoded, err := decodeFully(input)
	if err != nil {
		return err
	}

	// Check both the raw and decoded forms: some payloads only show up raw
	// (overlong UTF-8 bytes), others only after decoding.
	for _, s := range []string{input, decoded} {
		switch {
		case hasTraversal(s):
			return reject(CategoryTraversal, "path traversal sequence")
		case hasControl(s):
			return reject(CategoryControl, "null byte or CRLF injection")
		case hasShell(s):
			return reject(CategoryInjection, "shell metacharacters")
		case hasSQL(s):
			return reject(CategoryInjection, "SQL injection idiom")
		case hasScript(s):
			return reject(CategoryInjection, "script injection idiom")
		case hasScheme(s):
			return reject(CategoryScheme, "forbidden protocol scheme")
		}
	}
	return nil
}

// ScreenURL runs Screen plus URL-specific checks: length bound, http/https
// scheme allowlist, and the internal-host blocklist. Returns the parsed URL
// on success so callers never re-parse a value that was screened.
func (v *Validator) ScreenURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, reject(CategoryMalformed, "URL is required")
	}
	if len(raw) > v.maxURLLength {
		return nil, reject(CategoryLength, fmt.Sprintf("URL too long (max %d)", v.maxURLLength))
	}
	if err := v.Screen(raw); err != nil {
		return nil, err
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, reject(CategoryMalformed, "invalid URL format")
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, reject(CategoryScheme, "only http/https URLs allowed")
	}

	hostname := u.Hostname()
	if blockedHost(hostname) {
		return nil, reject(CategoryHost, "internal hosts not allowed")
	}

	// Re-check the decoded hostname: %31%32%37... style obfuscation of the
	// authority itself.
	if decoded, err := decodeFully(hostname); err != nil {
		return nil, err
	} else if decoded != hostname && blockedHost(decoded) {
		return nil, reject(CategoryHost, "internal hosts not allowed")
	}

	if v.requireDomain && isIPLiteral(hostname) {
		return nil, reject(CategoryHost, "raw IP hosts not allowed")
	}

	return u, nil
}
