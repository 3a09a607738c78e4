package security

import (
	"net"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Address ranges that must never be reachable through the relay: loopback,
// RFC1918, link-local, CGNAT, "this network", cloud metadata, and their IPv6
// counterparts. IPv4-mapped IPv6 is unwrapped before matching.
var blockedNets = mustParseCIDRs(
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"100.64.0.0/10",
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

// Hostname patterns blocked regardless of what they resolve to.
var blockedHostPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^localhost$`),
	regexp.MustCompile(`^metadata\.`),
	regexp.MustCompile(`\.internal$`),
	regexp.MustCompile(`\.local$`),
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic("security: bad blocklist CIDR " + c)
		}
		nets = append(nets, n)
	}
	return nets
}

// blockedIP reports whether ip falls inside any forbidden range.
func blockedIP(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	for _, n := range blockedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// parseIPLiteral interprets hostname as an IP literal, including the
// decimal/octal/hex obfuscations attackers use to hide internal targets:
// "2130706433", "017700000001", "0x7f000001", "0x7f.0.0.1", "[::1]".
// Returns nil when hostname is not an IP literal of any form.
func parseIPLiteral(hostname string) net.IP {
	h := strings.TrimSuffix(strings.TrimPrefix(hostname, "["), "]")

	if ip := net.ParseIP(h); ip != nil {
		return ip
	}

	// Dotted forms with per-octet radix tricks (0x7f.0.0.1, 0177.0.0.1) and
	// inet_aton shorthand (127.1, 10.0.5): the final part fills the
	// remaining bytes.
	if strings.Contains(h, ".") {
		parts := strings.Split(h, ".")
		if len(parts) < 2 || len(parts) > 4 {
			return nil
		}
		vals := make([]uint64, len(parts))
		for i, p := range parts {
			v, err := parseNumeric(p)
			if err != nil {
				return nil
			}
			vals[i] = v
		}
		var addr uint64
		for i, v := range vals[:len(vals)-1] {
			if v > 255 {
				return nil
			}
			addr |= v << (8 * uint(3-i))
		}
		last := vals[len(vals)-1]
		if last >= 1<<(8*uint(5-len(vals))) {
			return nil
		}
		addr |= last
		return net.IPv4(byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr))
	}

	// Single integer form (decimal, octal, or hex 32-bit address).
	v, err := parseNumeric(h)
	if err != nil || v > 0xFFFFFFFF {
		return nil
	}
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// parseNumeric parses decimal, 0-prefixed octal, and 0x-prefixed hex.
func parseNumeric(s string) (uint64, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		return strconv.ParseUint(s[2:], 16, 64)
	case len(s) > 1 && s[0] == '0':
		return strconv.ParseUint(s[1:], 8, 64)
	default:
		return strconv.ParseUint(s, 10, 64)
	}
}

// blockedHost reports whether hostname targets internal infrastructure.
// The hostname is punycode-normalized first so Unicode lookalike domains
// collapse to their ASCII form before pattern matching.
func blockedHost(hostname string) bool {
	if hostname == "" {
		return true
	}
	// A trailing dot is a valid FQDN spelling of the same host and must not
	// dodge the blocklist ("localhost." resolves exactly like "localhost").
	lowered := strings.TrimSuffix(strings.ToLower(hostname), ".")
	if ascii, err := idna.Lookup.ToASCII(strings.Trim(lowered, "[]")); err == nil && ascii != "" {
		if !strings.HasPrefix(lowered, "[") {
			lowered = ascii
		}
	}

	for _, re := range blockedHostPatterns {
		if re.MatchString(lowered) {
			return true
		}
	}
	if ip := parseIPLiteral(lowered); ip != nil {
		return blockedIP(ip)
	}
	return false
}

// isIPLiteral reports whether hostname is a raw IP in any supported notation.
func isIPLiteral(hostname string) bool {
	return parseIPLiteral(strings.ToLower(hostname)) != nil
}
