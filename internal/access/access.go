// Package access classifies inbound requests as public (trusted origin),
// private (API key), or denied. Pure classification, no state machine: the
// decision is computed per request and never persisted.
package access

import (
	"crypto/subtle"
	"strings"
)

// Mode of an access decision.
type Mode string

const (
	ModePublic  Mode = "public"
	ModePrivate Mode = "private"
	ModeDenied  Mode = "denied"
)

// Distinct denial reasons: a bad key is not the same failure as no
// credentials at all, and they map to different HTTP statuses.
const (
	ReasonInvalidKey    = "invalid API key"
	ReasonNoCredentials = "no credentials"
)

// Decision is the outcome of classifying one request.
type Decision struct {
	Allowed    bool
	Mode       Mode
	APIKeyUsed bool
	Reason     string
}

// Controller holds the configured credentials and origin allowlist.
type Controller struct {
	apiKeys        []string
	allowedOrigins []string // prefix match against Origin/Referer
}

func New(apiKeys, allowedOrigins []string) *Controller {
	return &Controller{apiKeys: apiKeys, allowedOrigins: allowedOrigins}
}

// Classify decides access for a request given its optional API key (query or
// header) and optional Origin/Referer values.
//
// An API key, when present, always wins: a valid key grants private mode and
// an invalid one denies outright, regardless of origin. Without a key, a
// configured origin prefix grants public mode.
func (c *Controller) Classify(apiKey, origin, referer string) Decision {
	if apiKey != "" {
		if c.validKey(apiKey) {
			return Decision{Allowed: true, Mode: ModePrivate, APIKeyUsed: true}
		}
		return Decision{Mode: ModeDenied, APIKeyUsed: true, Reason: ReasonInvalidKey}
	}

	if c.originAllowed(origin) || c.originAllowed(referer) {
		return Decision{Allowed: true, Mode: ModePublic}
	}

	return Decision{Mode: ModeDenied, Reason: ReasonNoCredentials}
}

// validKey compares in constant time so key probing gains nothing from timing.
func (c *Controller) validKey(key string) bool {
	for _, k := range c.apiKeys {
		if len(k) == len(key) && subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

func (c *Controller) originAllowed(value string) bool {
	if value == "" {
		return false
	}
	for _, prefix := range c.allowedOrigins {
		if prefix != "" && strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
