// Package protocol captures and interprets service banners.
//
// # Banner capture
//
// Reader takes ownership of an established connection, captures the text the
// service sends (or is induced to send) and closes the connection. Services
// that greet first, such as FTP and SMTP, are read passively. Plain HTTP sends
// nothing until it receives a request, so ports configured as HTTP ports get a
// HEAD request immediately and every other port gets one after a silent
// passive wait.
//
// Multi-line greetings ("220-" continuation lines) are read to the final
// line, and an HTTP status line is followed by its header block so that the
// Server header is available to the classifier.
//
// # Classification
//
// Classify is a pure function over captured text. Its rules are ordered and
// the first match wins:
//
//  1. Text starting with "HTTP/1." is HTTP; the detail is the Server header.
//  2. Text starting with "220" that mentions FTP is FTP; the detail is the
//     greeting text after the reply code.
//  3. Text starting with "220" that mentions SMTP or ESMTP is SMTP; the
//     detail is the host name announced after the reply code.
//  4. Anything else is unknown.
//
// On top of the kind and detail, known server software is recognized from
// per-protocol signature tables to fill in product and version.
//
// WellKnownService maps a port number to its conventional service name and is
// used as a hint when a port produced no recognizable banner.
package protocol
