package protocol

import (
	"regexp"
	"strings"

	"github.com/nao1215/bannerscan/internal/model"
)

// serverSignature recognizes one server product inside a banner.
type serverSignature struct {
	// product is the display name.
	product string

	// match is a lowercase substring that identifies the product.
	match string

	// version optionally extracts the version into capture group 1.
	version *regexp.Regexp
}

// identify returns the product and version of the first matching signature.
func identify(text string, signatures []serverSignature) (product, version string) {
	lower := strings.ToLower(text)
	for _, sig := range signatures {
		if !strings.Contains(lower, sig.match) {
			continue
		}
		if sig.version != nil {
			if m := sig.version.FindStringSubmatch(text); len(m) > 1 {
				version = strings.TrimRight(m[1], ".-")
			}
		}
		return sig.product, version
	}
	return "", ""
}

// Classify infers the service identity from captured banner text.
// It is pure: the same text always yields the same identity.
// Matching is case-insensitive; leading whitespace is ignored.
func Classify(text string) model.ServiceIdentity {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, "HTTP/1."):
		return classifyHTTP(trimmed)
	case strings.HasPrefix(upper, "220") && strings.Contains(upper, "FTP"):
		return classifyFTP(trimmed)
	case strings.HasPrefix(upper, "220") && strings.Contains(upper, "SMTP"):
		// "SMTP" also covers "ESMTP".
		return classifySMTP(trimmed)
	default:
		return model.UnknownService()
	}
}

// firstLine returns the first line of text without its terminator.
func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimRight(line, "\r")
}

// afterReplyCode strips a three digit reply code and its separator
// ("220 " or "220-") from a greeting line.
func afterReplyCode(line string) string {
	if len(line) < 3 {
		return ""
	}
	rest := line[3:]
	if rest != "" && (rest[0] == ' ' || rest[0] == '-') {
		rest = rest[1:]
	}
	return strings.TrimSpace(rest)
}
