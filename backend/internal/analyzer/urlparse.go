package analyzer

import (
	"net/netip"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// specialSchemes use the lenient authority grammar browsers apply to web URLs
var specialSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ws":    true,
	"wss":   true,
	"ftp":   true,
	"file":  true,
}

// hostProfile converts internationalized hosts the way browsers do before
// lookup: nontransitional mapping with hyphen placement left unchecked.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.Transitional(false),
	idna.CheckHyphens(false),
	idna.StrictDomainName(false),
)

// parsedURL keeps the parts of an absolute URL the rules read
type parsedURL struct {
	Scheme string
	Host   string
}

// parseAbsolute parses raw with browser URL rules and no base. The bool is
// true when parsing failed. Paths, queries and fragments never fail; only the
// scheme, the authority and the host can.
func parseAbsolute(raw string) (parsedURL, bool) {
	input := stripURLInput(raw)

	scheme, rest, ok := splitScheme(input)
	if !ok {
		return parsedURL{}, true
	}

	if !specialSchemes[scheme] {
		return parseOpaque(scheme, rest)
	}

	rest = strings.ReplaceAll(rest, `\`, "/")
	if scheme == "file" {
		return parseFile(rest)
	}

	// Any run of slashes, including none, introduces the authority.
	rest = strings.TrimLeft(rest, "/")
	authority := rest
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		authority = rest[:i]
	}

	host, ok := splitAuthority(authority)
	if !ok || host == "" {
		return parsedURL{}, true
	}
	host, ok = parseSpecialHost(host)
	if !ok {
		return parsedURL{}, true
	}
	return parsedURL{Scheme: scheme, Host: host}, false
}

// stripURLInput drops leading and trailing C0 controls and spaces, then every
// tab and newline
func stripURLInput(raw string) string {
	s := strings.TrimFunc(raw, func(r rune) bool { return r <= 0x20 })
	if strings.ContainsAny(s, "\t\n\r") {
		s = strings.NewReplacer("\t", "", "\n", "", "\r", "").Replace(s)
	}
	return s
}

// splitScheme returns the lowercased scheme and whatever follows its colon
func splitScheme(s string) (string, string, bool) {
	if s == "" || !isASCIIAlpha(s[0]) {
		return "", "", false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ':':
			return strings.ToLower(s[:i]), s[i+1:], true
		case isASCIIAlpha(c), isASCIIDigit(c), c == '+', c == '-', c == '.':
		default:
			return "", "", false
		}
	}
	return "", "", false
}

// parseOpaque handles schemes without the web authority grammar. Only a
// "//" prefix carries a host, and that host may be empty.
func parseOpaque(scheme, rest string) (parsedURL, bool) {
	if !strings.HasPrefix(rest, "//") {
		return parsedURL{Scheme: scheme}, false
	}
	rest = rest[2:]
	authority := rest
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		authority = rest[:i]
	}

	host, ok := splitAuthority(authority)
	if !ok {
		return parsedURL{}, true
	}
	if strings.HasPrefix(host, "[") {
		host, ok = parseIPv6Host(host)
		if !ok {
			return parsedURL{}, true
		}
		return parsedURL{Scheme: scheme, Host: host}, false
	}
	if strings.ContainsFunc(host, isForbiddenHostRune) {
		return parsedURL{}, true
	}
	return parsedURL{Scheme: scheme, Host: host}, false
}

// parseFile handles file URLs, whose authority has no credentials or port
func parseFile(rest string) (parsedURL, bool) {
	if !strings.HasPrefix(rest, "//") {
		return parsedURL{Scheme: "file"}, false
	}
	rest = rest[2:]
	host := rest
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		host = rest[:i]
	}
	if host == "" {
		return parsedURL{Scheme: "file"}, false
	}

	host, ok := parseSpecialHost(host)
	if !ok {
		return parsedURL{}, true
	}
	if host == "localhost" {
		host = ""
	}
	return parsedURL{Scheme: "file", Host: host}, false
}

// splitAuthority drops credentials and validates the port. The host is
// returned as written.
func splitAuthority(authority string) (string, bool) {
	if at := strings.LastIndex(authority, "@"); at >= 0 {
		authority = authority[at+1:]
		if authority == "" {
			return "", false
		}
	}

	host, port := authority, ""
	if i := portColon(authority); i >= 0 {
		host, port = authority[:i], authority[i+1:]
	}
	if port != "" {
		for i := 0; i < len(port); i++ {
			if !isASCIIDigit(port[i]) {
				return "", false
			}
		}
		n, err := strconv.ParseUint(port, 10, 64)
		if err != nil || n > 65535 {
			return "", false
		}
	}
	return host, true
}

// portColon finds the colon that starts the port, skipping any inside an
// IPv6 literal
func portColon(authority string) int {
	inBrackets := false
	for i := 0; i < len(authority); i++ {
		switch authority[i] {
		case '[':
			inBrackets = true
		case ']':
			inBrackets = false
		case ':':
			if !inBrackets {
				return i
			}
		}
	}
	return -1
}

// parseSpecialHost decodes, maps and validates a web host. IPv4 hosts come
// back in dotted-quad form.
func parseSpecialHost(host string) (string, bool) {
	if strings.HasPrefix(host, "[") {
		return parseIPv6Host(host)
	}

	decoded := percentDecode(host)
	if !utf8.ValidString(decoded) {
		return "", false
	}

	ascii, ok := domainToASCII(decoded)
	if !ok || ascii == "" {
		return "", false
	}
	if strings.ContainsFunc(ascii, isForbiddenDomainRune) {
		return "", false
	}

	if endsInNumber(ascii) {
		addr, ok := parseIPv4(ascii)
		if !ok {
			return "", false
		}
		return addr, true
	}
	return ascii, true
}

func domainToASCII(host string) (string, bool) {
	if isPlainASCII(host) && !strings.Contains(strings.ToLower(host), "xn--") {
		return strings.ToLower(host), true
	}
	ascii, err := hostProfile.ToASCII(host)
	if err != nil {
		return "", false
	}
	return ascii, true
}

func parseIPv6Host(host string) (string, bool) {
	if !strings.HasSuffix(host, "]") {
		return "", false
	}
	addr, err := netip.ParseAddr(host[1 : len(host)-1])
	if err != nil || !addr.Is6() || addr.Zone() != "" {
		return "", false
	}
	return "[" + addr.String() + "]", true
}

// percentDecode decodes valid escapes and leaves malformed ones untouched
func percentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// endsInNumber reports whether the last label makes the host an IPv4 address
func endsInNumber(host string) bool {
	labels := strings.Split(host, ".")
	if len(labels) > 1 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	last := labels[len(labels)-1]
	if last == "" {
		return false
	}
	allDigits := true
	for i := 0; i < len(last); i++ {
		if !isASCIIDigit(last[i]) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return true
	}
	_, ok := parseIPv4Number(last)
	return ok
}

// parseIPv4 accepts the decimal, octal and hex forms browsers accept and
// returns the dotted quad
func parseIPv4(host string) (string, bool) {
	parts := strings.Split(host, ".")
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 4 {
		return "", false
	}

	numbers := make([]uint64, len(parts))
	for i, p := range parts {
		n, ok := parseIPv4Number(p)
		if !ok {
			return "", false
		}
		numbers[i] = n
	}
	for _, n := range numbers[:len(numbers)-1] {
		if n > 255 {
			return "", false
		}
	}
	last := numbers[len(numbers)-1]
	if last >= 1<<(8*(5-len(numbers))) {
		return "", false
	}

	addr := last
	for i, n := range numbers[:len(numbers)-1] {
		addr += n << (8 * (3 - i))
	}
	return strconv.FormatUint(addr>>24, 10) + "." +
		strconv.FormatUint(addr>>16&0xff, 10) + "." +
		strconv.FormatUint(addr>>8&0xff, 10) + "." +
		strconv.FormatUint(addr&0xff, 10), true
}

func parseIPv4Number(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	base := 10
	switch {
	case len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X"):
		s, base = s[2:], 16
	case len(s) >= 2 && s[0] == '0':
		s, base = s[1:], 8
	}
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		// Overflow still names a number; the range check rejects it.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 1 << 40, true
		}
		return 0, false
	}
	return n, true
}

func isForbiddenHostRune(r rune) bool {
	switch r {
	case 0, '\t', '\n', '\r', ' ', '#', '/', ':', '<', '>', '?', '@', '[', '\\', ']', '^', '|':
		return true
	}
	return false
}

func isForbiddenDomainRune(r rune) bool {
	return isForbiddenHostRune(r) || r <= 0x1f || r == '%' || r == 0x7f
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func isASCIIAlpha(c byte) bool { return 'a' <= c|0x20 && c|0x20 <= 'z' }

func isASCIIDigit(c byte) bool { return '0' <= c && c <= '9' }

func isHex(c byte) bool { return isASCIIDigit(c) || ('a' <= c|0x20 && c|0x20 <= 'f') }

func unhex(c byte) byte {
	if isASCIIDigit(c) {
		return c - '0'
	}
	return c|0x20 - 'a' + 10
}
