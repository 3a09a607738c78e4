package security

import (
	"regexp"
	"strings"
)

// Pattern tables are split per category so each check stays individually
// testable. All matching happens on the fully decoded, lowercased input.

// Path traversal, including percent-encoded and overlong/alternate UTF-8
// encodings of "../" that survive decoding as raw bytes.
var traversalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.\.[/\\]`),
	regexp.MustCompile(`(?i)%2e%2e`),
	regexp.MustCompile(`(?i)%c0%ae`),
	regexp.MustCompile(`(?i)%e0%80%ae`),
}

// Overlong UTF-8 encodings of '.' as raw bytes. These are invalid UTF-8, so
// regexp (which matches code points) cannot see them; byte comparison can.
var traversalByteSeqs = []string{
	"\xc0\xae",
	"\xe0\x80\xae",
}

// Null bytes and CRLF smuggling.
var controlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`%00`),
	regexp.MustCompile("\x00"),
	regexp.MustCompile(`[\r\n]`),
	regexp.MustCompile(`(?i)%0[ad]`),
}

// Shell metacharacters and command idioms.
var shellPatterns = []*regexp.Regexp{
	regexp.MustCompile("`"),
	regexp.MustCompile(`\$\{`),
	regexp.MustCompile(`\$\(`),
	regexp.MustCompile(`(?i);\s*(?:ls|cat|rm|wget|curl|bash|sh|nc|python|perl|ruby|php)\b`),
	regexp.MustCompile(`(?i)\|\s*(?:ls|cat|rm|wget|curl|bash|sh|nc|python|perl|ruby|php)\b`),
	regexp.MustCompile(`>\s*/`),
}

// SQL injection idioms.
var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)union\s+(?:all\s+)?select`),
	regexp.MustCompile(`(?i)'\s*or\s+'?1'?\s*=\s*'?1`),
	regexp.MustCompile(`(?i);\s*drop\s+table`),
	regexp.MustCompile(`(?i)'\s*;\s*--`),
	regexp.MustCompile(`(?i)\bsleep\s*\(\s*\d`),
}

// Script/HTML injection idioms.
var scriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)on(?:error|load|click|mouseover)\s*=`),
	regexp.MustCompile(`(?i)<\s*iframe`),
	regexp.MustCompile(`(?i)data\s*:\s*text/html`),
}

// Forbidden protocol schemes appearing anywhere in the input, not just as the
// URL scheme (defeats scheme smuggling through redirect parameters).
var schemePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)file://`),
	regexp.MustCompile(`(?i)gopher://`),
	regexp.MustCompile(`(?i)dict://`),
	regexp.MustCompile(`(?i)ftp://`),
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func hasTraversal(s string) bool {
	for _, seq := range traversalByteSeqs {
		if strings.Contains(s, seq) {
			return true
		}
	}
	return matchAny(traversalPatterns, s)
}
func hasControl(s string) bool { return matchAny(controlPatterns, s) }
func hasShell(s string) bool   { return matchAny(shellPatterns, s) }
func hasSQL(s string) bool     { return matchAny(sqlPatterns, s) }
func hasScript(s string) bool  { return matchAny(scriptPatterns, s) }
func hasScheme(s string) bool  { return matchAny(schemePatterns, s) }
