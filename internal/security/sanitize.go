package security

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	controlCharRe = regexp.MustCompile(`[\x00-\x09\x0b\x0c\x0e-\x1f\x7f]`)
	cookieCtrlRe  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	filenameBadRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	spaceRunRe    = regexp.MustCompile(`\s+`)
)

// Sanitize cleans a string that may be echoed back to clients or logged:
// NFKC-normalizes Unicode, strips HTML markup, and removes control characters.
// This is an output hygiene step, not the SSRF defense.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	s = htmlTagRe.ReplaceAllString(s, "")
	return controlCharRe.ReplaceAllString(s, "")
}

// SanitizeMap deep-cleans every string value of a JSON-shaped structure.
func SanitizeMap(value any) any {
	switch v := value.(type) {
	case string:
		return Sanitize(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = SanitizeMap(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = SanitizeMap(val)
		}
		return out
	default:
		return value
	}
}

// SanitizeCookie validates and cleans a user-supplied cookie blob before it
// is handed to an extractor. Returns "" when the cookie must be discarded.
func SanitizeCookie(cookie string) string {
	if cookie == "" || len(cookie) > maxCookieLength {
		return ""
	}
	if hasTraversal(cookie) || hasShell(cookie) || hasSQL(cookie) || hasScript(cookie) || hasScheme(cookie) {
		return ""
	}
	return cookieCtrlRe.ReplaceAllString(cookie, "")
}

// SanitizeFilename produces a safe filename for Content-Disposition headers.
func SanitizeFilename(name string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 50
	}
	cleaned := filenameBadRe.ReplaceAllString(name, "")
	cleaned = strings.TrimRight(strings.TrimSpace(cleaned), ".")
	cleaned = spaceRunRe.ReplaceAllString(cleaned, " ")
	if len(cleaned) > maxLength {
		cleaned = strings.TrimSpace(cleaned[:maxLength])
	}
	if cleaned == "" {
		return "media"
	}
	return cleaned
}
