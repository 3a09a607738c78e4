package media

import (
	"path"
	"strings"
)

var mimeToExtension = map[string]string{
	"video/mp4":                     "mp4",
	"video/webm":                    "webm",
	"video/quicktime":               "mov",
	"audio/mpeg":                    "mp3",
	"audio/mp4":                     "m4a",
	"audio/webm":                    "webm",
	"audio/aac":                     "aac",
	"audio/ogg":                     "ogg",
	"image/jpeg":                    "jpg",
	"image/png":                     "png",
	"image/webp":                    "webp",
	"image/gif":                     "gif",
	"application/vnd.apple.mpegurl": "m3u8",
	"application/x-mpegurl":         "m3u8",
	"application/dash+xml":          "mpd",
}

var extensionToMIME = map[string]string{
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mov":  "video/quicktime",
	"mp3":  "audio/mpeg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"ogg":  "audio/ogg",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
	"m3u8": "application/vnd.apple.mpegurl",
	"mpd":  "application/dash+xml",
}

// progressiveExtensions are byte-stable containers whose advertised
// Content-Length can be trusted as an exact size. Manifest-driven formats are
// deliberately absent: their advertised length is unreliable.
var progressiveExtensions = map[string]bool{
	"mp4":  true,
	"webm": true,
	"mov":  true,
	"mp3":  true,
	"m4a":  true,
	"aac":  true,
	"ogg":  true,
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
	"gif":  true,
}

const fallbackMIME = "application/octet-stream"

// ExtensionFromMIME maps a MIME type to its canonical extension ("" if unknown).
func ExtensionFromMIME(mime string) string {
	base := strings.TrimSpace(strings.ToLower(mime))
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	return mimeToExtension[base]
}

// MIMEFromExtension maps an extension to a MIME type ("" if unknown).
func MIMEFromExtension(ext string) string {
	return extensionToMIME[strings.TrimPrefix(strings.ToLower(ext), ".")]
}

// extensionFromURL pulls a file extension from a URL path, ignoring query.
func extensionFromURL(rawURL string) string {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.TrimPrefix(path.Ext(p), ".")
	return strings.ToLower(ext)
}

// IsProgressive reports whether ext names a byte-stable progressive container.
func IsProgressive(ext string) bool {
	return progressiveExtensions[strings.ToLower(ext)]
}

// IsPlaylistURL reports whether a URL points at a streaming manifest rather
// than a single progressive file.
func IsPlaylistURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.Contains(lower, ".m3u8") ||
		strings.Contains(lower, ".mpd") ||
		strings.Contains(lower, "/manifest/")
}

// IsPlaylistMIME reports whether a content type names a streaming manifest.
func IsPlaylistMIME(mime string) bool {
	lower := strings.ToLower(mime)
	return strings.Contains(lower, "mpegurl") || strings.Contains(lower, "dash+xml")
}
