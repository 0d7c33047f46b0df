package protocol

import (
	"regexp"

	"github.com/nao1215/bannerscan/internal/model"
)

// ftpServers lists FTP server software recognizable from the greeting.
var ftpServers = []serverSignature{
	{product: "vsFTPd", match: "vsftpd", version: regexp.MustCompile(`(?i)vsftpd\s+v?([0-9][0-9A-Za-z.\-]*)`)},
	{product: "ProFTPD", match: "proftpd", version: regexp.MustCompile(`(?i)proftpd\s+v?([0-9][0-9A-Za-z.\-]*)`)},
	{product: "Pure-FTPd", match: "pure-ftpd"},
	{product: "FileZilla Server", match: "filezilla", version: regexp.MustCompile(`(?i)filezilla server(?:\s+version)?\s+v?([0-9][0-9A-Za-z.\-]*)`)},
	{product: "Microsoft IIS FTP", match: "microsoft ftp"},
	{product: "wu-ftpd", match: "wu-", version: regexp.MustCompile(`(?i)wu-([0-9][0-9A-Za-z.\-]*)`)},
}

// ftpHelpCommand is the follow-up query sent after an FTP greeting.
const ftpHelpCommand = "HELP\r\n"

// classifyFTP builds the identity of an FTP greeting. The detail is the
// greeting text after the reply code, e.g.
// "Test FTP Server (vsFTPd 3.0.3) ready." for
// "220 Test FTP Server (vsFTPd 3.0.3) ready.".
func classifyFTP(text string) model.ServiceIdentity {
	product, version := identify(text, ftpServers)
	return model.ServiceIdentity{
		Kind:    model.ServiceFTP,
		Detail:  afterReplyCode(firstLine(text)),
		Product: product,
		Version: version,
	}
}
