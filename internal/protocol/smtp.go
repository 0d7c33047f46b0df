package protocol

import (
	"regexp"
	"strings"

	"github.com/nao1215/bannerscan/internal/model"
)

// smtpServers lists mail server software recognizable from the greeting.
var smtpServers = []serverSignature{
	{product: "Postfix", match: "postfix"},
	{product: "Exim", match: "exim", version: regexp.MustCompile(`(?i)exim\s+([0-9][0-9A-Za-z.\-]*)`)},
	{product: "Sendmail", match: "sendmail", version: regexp.MustCompile(`(?i)sendmail\s+([0-9][0-9A-Za-z.\-]*)`)},
	{product: "Microsoft Exchange", match: "microsoft", version: regexp.MustCompile(`(?i)version:?\s*([0-9][0-9.]*)`)},
	{product: "OpenSMTPD", match: "opensmtpd"},
	{product: "Dovecot", match: "dovecot"},
	{product: "Zimbra", match: "zimbra"},
	{product: "qmail", match: "qmail"},
}

// DefaultHeloName is the name announced in the EHLO follow-up.
const DefaultHeloName = "bannerscan.localdomain"

// ehloCommand returns the follow-up query sent after an SMTP greeting.
func ehloCommand(name string) string {
	return "EHLO " + name + "\r\n"
}

// classifySMTP builds the identity of an SMTP greeting. SMTP servers
// announce their host name right after the reply code, so
// "220 test.local ESMTP Postfix (Ubuntu)" yields detail "test.local".
func classifySMTP(text string) model.ServiceIdentity {
	product, version := identify(text, smtpServers)
	return model.ServiceIdentity{
		Kind:    model.ServiceSMTP,
		Detail:  extractHostname(firstLine(text)),
		Product: product,
		Version: version,
	}
}

// extractHostname returns the first token after the reply code. A greeting
// that opens with the protocol keyword ("220 ESMTP Postfix") names no host.
func extractHostname(line string) string {
	fields := strings.Fields(afterReplyCode(line))
	if len(fields) == 0 || isSMTPKeyword(fields[0]) {
		return ""
	}
	return fields[0]
}

func isSMTPKeyword(token string) bool {
	return strings.EqualFold(token, "ESMTP") || strings.EqualFold(token, "SMTP")
}
