// Package media decides how a candidate asset is served: its MIME type and
// extension, the most honest size figure available, and whether the client is
// redirected upstream or the bytes are relayed through this service.
package media

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Format is the descriptor handed over by an extraction collaborator.
// Read-only input: the classifier never mutates it.
type Format struct {
	URL           string  `json:"url"`
	MIME          string  `json:"mime,omitempty"`
	Bitrate       int64   `json:"bitrate,omitempty"`  // bits per second
	Duration      float64 `json:"duration,omitempty"` // seconds
	RequiresRelay bool    `json:"requiresRelay,omitempty"`
	Quality       string  `json:"quality,omitempty"`
}

// DeliveryMode selects how the asset reaches the client.
type DeliveryMode string

const (
	// DeliveryRedirect points the client at the upstream URL directly.
	DeliveryRedirect DeliveryMode = "redirect"
	// DeliveryRelay streams the bytes through this service.
	DeliveryRelay DeliveryMode = "relay"
)

// SizeType qualifies how trustworthy a size figure is. The classifier never
// presents an estimate as exact and never fabricates a number when none is
// knowable.
type SizeType string

const (
	SizeExact     SizeType = "exact"
	SizeEstimated SizeType = "estimated"
	SizeUnknown   SizeType = "unknown"
)

// Size is the resolved size of an asset.
type Size struct {
	Bytes   int64    `json:"bytes,omitempty"` // 0 when Type == unknown
	Type    SizeType `json:"type"`
	Display string   `json:"display"`
}

// Classification is the immutable result of one classify call. It is not
// persisted; callers recompute on demand.
type Classification struct {
	Extension    string       `json:"extension"`
	MIME         string       `json:"mime"`
	Playlist     bool         `json:"playlist"`
	Size         Size         `json:"size"`
	DeliveryMode DeliveryMode `json:"deliveryMode"`
}

// State of the classifier. INIT -> CLASSIFIED -> READY on success, -> ERROR
// on failure. READY and ERROR are terminal until Reset.
type State int

const (
	StateInit State = iota
	StateClassified
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateClassified:
		return "CLASSIFIED"
	case StateReady:
		return "READY"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var ErrMalformedFormat = errors.New("media: malformed format descriptor")

// Classifier is a small state machine around classify. One instance per
// extraction pass; Reset returns it to INIT.
type Classifier struct {
	state   State
	lastErr error
}

func NewClassifier() *Classifier {
	return &Classifier{state: StateInit}
}

func (c *Classifier) State() State { return c.state }
func (c *Classifier) Err() error   { return c.lastErr }

func (c *Classifier) Reset() {
	c.state = StateInit
	c.lastErr = nil
}

// Classify resolves MIME/extension, size, and delivery mode for a format.
// Errors transition to ERROR and propagate to the caller uncaught; the
// classifier does not retry or swallow failures.
func (c *Classifier) Classify(f Format, headers http.Header) (*Classification, error) {
	if f.URL == "" {
		c.state = StateError
		c.lastErr = fmt.Errorf("%w: missing url", ErrMalformedFormat)
		return nil, c.lastErr
	}
	if f.Bitrate < 0 || f.Duration < 0 {
		c.state = StateError
		c.lastErr = fmt.Errorf("%w: negative bitrate or duration", ErrMalformedFormat)
		return nil, c.lastErr
	}

	mime, ext := resolveType(f, headers)
	playlist := IsPlaylistURL(f.URL) || IsPlaylistMIME(mime)

	cls := &Classification{
		Extension: ext,
		MIME:      mime,
		Playlist:  playlist,
		Size:      resolveSize(f, headers, ext, playlist),
	}
	c.state = StateClassified

	// Delivery mode is decided once per format, not re-evaluated per request.
	cls.DeliveryMode = DeliveryRedirect
	if f.RequiresRelay || playlist {
		cls.DeliveryMode = DeliveryRelay
	}

	c.state = StateReady
	return cls, nil
}

// resolveType prefers an explicit content type, then response headers, then
// the URL path; unknown falls back to a generic binary type over guessing.
func resolveType(f Format, headers http.Header) (mime, ext string) {
	if f.MIME != "" {
		mime = strings.ToLower(f.MIME)
		if e := ExtensionFromMIME(mime); e != "" {
			return mime, e
		}
		if e := extensionFromURL(f.URL); e != "" {
			return mime, e
		}
		return mime, "bin"
	}

	if ct := headers.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), fallbackMIME) {
		lower := strings.ToLower(ct)
		if i := strings.IndexByte(lower, ';'); i >= 0 {
			lower = strings.TrimSpace(lower[:i])
		}
		if e := ExtensionFromMIME(lower); e != "" {
			return lower, e
		}
		if e := extensionFromURL(f.URL); e != "" {
			return lower, e
		}
		return lower, "bin"
	}

	if e := extensionFromURL(f.URL); e != "" {
		if m := MIMEFromExtension(e); m != "" {
			return m, e
		}
		return fallbackMIME, e
	}

	return fallbackMIME, "bin"
}

// resolveSize applies the size policy in strict priority order:
//  1. Content-Length, trusted only for byte-stable progressive containers;
//  2. the total embedded in Content-Range, always trusted when present;
//  3. bitrate*duration/8, flagged estimated;
//  4. unknown.
func resolveSize(f Format, headers http.Header, ext string, playlist bool) Size {
	if headers != nil {
		if !playlist && IsProgressive(ext) {
			if cl := headers.Get("Content-Length"); cl != "" {
				if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n > 0 {
					return Size{Bytes: n, Type: SizeExact, Display: displayBytes(n, false)}
				}
			}
		}
		if total, ok := contentRangeTotal(headers.Get("Content-Range")); ok {
			return Size{Bytes: total, Type: SizeExact, Display: displayBytes(total, false)}
		}
	}

	if f.Bitrate > 0 && f.Duration > 0 {
		n := int64(float64(f.Bitrate) * f.Duration / 8)
		return Size{Bytes: n, Type: SizeEstimated, Display: displayBytes(n, true)}
	}

	return Size{Type: SizeUnknown, Display: "unknown"}
}

// contentRangeTotal parses the total length out of "bytes 100-199/1000".
// A "*" total means the upstream does not know either.
func contentRangeTotal(cr string) (int64, bool) {
	if cr == "" {
		return 0, false
	}
	i := strings.LastIndexByte(cr, '/')
	if i < 0 || i == len(cr)-1 {
		return 0, false
	}
	total := cr[i+1:]
	if total == "*" {
		return 0, false
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func displayBytes(n int64, estimated bool) string {
	const unit = 1024
	prefix := ""
	if estimated {
		prefix = "~"
	}
	if n < unit {
		return fmt.Sprintf("%s%d B", prefix, n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%s%.1f %ciB", prefix, float64(n)/float64(div), "KMGTPE"[exp])
}
