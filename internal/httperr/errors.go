// Package httperr defines the service error taxonomy: typed errors carrying a
// stable machine-checkable code and an actionable HTTP status, plus the JSON
// envelope they serialize to. Messages never include raw upstream error text.
package httperr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
)

// Stable error codes. Clients match on these, never on messages.
const (
	CodeMissingParameter    = "MISSING_PARAMETER"
	CodeInvalidURL          = "INVALID_URL"
	CodeInvalidHash         = "INVALID_HASH"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeUnauthorizedURL     = "UNAUTHORIZED_URL"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeStreamFailed        = "STREAM_FAILED"
	CodeUnsupportedPlatform = "UNSUPPORTED_PLATFORM"
	CodeExtractionFailed    = "EXTRACTION_FAILED"
	CodeInternal            = "INTERNAL_ERROR"

	// Extraction failure refinements, detected from extractor error text.
	CodeAgeRestricted  = "AGE_RESTRICTED"
	CodePrivateContent = "PRIVATE_CONTENT"
	CodeDeletedContent = "DELETED_CONTENT"
	CodeLoginRequired  = "LOGIN_REQUIRED"
	CodeGeoRestricted  = "GEO_RESTRICTED"
	CodeTimeout        = "TIMEOUT"
)

// Error is a typed service error with a wire code and HTTP status.
type Error struct {
	Code       string
	Message    string
	Status     int
	RetryAfter int // seconds, only set for RATE_LIMITED
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

func MissingParameter(name string) *Error {
	return New(CodeMissingParameter, http.StatusBadRequest, "missing required parameter: "+name)
}

func InvalidURL(reason string) *Error {
	return New(CodeInvalidURL, http.StatusBadRequest, reason)
}

func InvalidHash() *Error {
	return New(CodeInvalidHash, http.StatusNotFound, "unknown or expired hash")
}

func Unauthorized(reason string) *Error {
	return New(CodeUnauthorized, http.StatusUnauthorized, reason)
}

func Forbidden(reason string) *Error {
	return New(CodeForbidden, http.StatusForbidden, reason)
}

func UnauthorizedURL() *Error {
	return New(CodeUnauthorizedURL, http.StatusForbidden, "URL is not authorized for relay")
}

func RateLimited(retryAfter int) *Error {
	e := New(CodeRateLimited, http.StatusTooManyRequests, "too many requests")
	e.RetryAfter = retryAfter
	return e
}

func StreamFailed() *Error {
	return New(CodeStreamFailed, http.StatusBadGateway, "failed to fetch media from upstream")
}

func UnsupportedPlatform() *Error {
	return New(CodeUnsupportedPlatform, http.StatusBadRequest, "platform not supported")
}

func Internal() *Error {
	return New(CodeInternal, http.StatusInternalServerError, "internal error")
}

// envelope is the uniform wire shape for errors: {success:false, error:{code,message}}.
type envelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Write serializes err as the JSON envelope with its HTTP status.
// Unknown error types are flattened to INTERNAL_ERROR so upstream detail never leaks.
func Write(w http.ResponseWriter, err error) {
	e, ok := err.(*Error)
	if !ok {
		e = Internal()
	}

	var env envelope
	env.Error.Code = e.Code
	env.Error.Message = e.Message

	w.Header().Set("Content-Type", "application/json")
	if e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(e.RetryAfter))
	}
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(env)
}

// extractor failure text -> refined code, mirroring the patterns scrapers
// actually emit. Order matters: first match wins.
var failurePatterns = []struct {
	re   *regexp.Regexp
	code string
}{
	{regexp.MustCompile(`(?i)age[_-]?restricted|18\+|mature|adult.only`), CodeAgeRestricted},
	{regexp.MustCompile(`(?i)private|members.only`), CodePrivateContent},
	{regexp.MustCompile(`(?i)deleted|removed|taken.down|no.longer|unavailable|not.available`), CodeDeletedContent},
	{regexp.MustCompile(`(?i)login|sign.in|authenticate|session`), CodeLoginRequired},
	{regexp.MustCompile(`(?i)geo[_-]?blocked|country|region|not.available.in.your`), CodeGeoRestricted},
	{regexp.MustCompile(`(?i)rate.limit|too.many|429|throttl`), CodeRateLimited},
	{regexp.MustCompile(`(?i)timeout|timed?.out`), CodeTimeout},
	{regexp.MustCompile(`(?i)404|not.found|does.not.exist`), CodeDeletedContent},
	{regexp.MustCompile(`(?i)403|forbidden|access.denied`), CodePrivateContent},
}

// DetectExtractionCode maps an extractor failure message to a refined code.
// Unrecognized messages fall back to EXTRACTION_FAILED.
func DetectExtractionCode(msg string) string {
	if msg == "" {
		return CodeExtractionFailed
	}
	for _, p := range failurePatterns {
		if p.re.MatchString(msg) {
			return p.code
		}
	}
	return CodeExtractionFailed
}

// StatusForExtractionCode picks the HTTP status for a refined extraction code.
func StatusForExtractionCode(code string) int {
	switch code {
	case CodeLoginRequired:
		return http.StatusUnauthorized
	case CodePrivateContent, CodeAgeRestricted, CodeGeoRestricted:
		return http.StatusForbidden
	case CodeDeletedContent:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
