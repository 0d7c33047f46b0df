package protocol

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nao1215/bannerscan/internal/model"
)

// headProbe is the minimal request that makes an HTTP server answer.
const headProbe = "HEAD / HTTP/1.0\r\n\r\n"

// DefaultHTTPPorts are the ports that receive the HEAD probe immediately,
// without a passive wait.
var DefaultHTTPPorts = []uint16{80, 81, 591, 3000, 5000, 8000, 8008, 8080, 8081, 8888}

// httpServerNames normalizes the product token of a Server header.
// Keys are lowercase.
var httpServerNames = map[string]string{
	"nginx":         "nginx",
	"apache":        "Apache httpd",
	"lighttpd":      "lighttpd",
	"microsoft-iis": "Microsoft IIS",
	"caddy":         "Caddy",
	"openresty":     "OpenResty",
	"litespeed":     "LiteSpeed",
	"gunicorn":      "gunicorn",
	"cloudflare":    "Cloudflare",
	"envoy":         "Envoy",
	"jetty":         "Jetty",
	"werkzeug":      "Werkzeug",
}

// classifyHTTP builds the identity of an HTTP response.
// The detail is the Server header value, empty when absent.
func classifyHTTP(text string) model.ServiceIdentity {
	server := headerValue(text, "Server")
	product, version := parseServerHeader(server)
	return model.ServiceIdentity{
		Kind:    model.ServiceHTTP,
		Detail:  server,
		Product: product,
		Version: version,
	}
}

// headerValue returns the first value of the named header from a raw
// response head.
func headerValue(text, name string) string {
	return ResponseHeaders(text).Get(name)
}

// ResponseHeaders parses the header block of a raw HTTP response head.
// Lines may end in CRLF or LF. Parsing stops at the blank line that ends the
// block; malformed lines are skipped. The status line is not included.
func ResponseHeaders(text string) http.Header {
	header := make(http.Header)
	lines := strings.Split(text, "\n")
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		header.Add(key, strings.TrimSpace(value))
	}
	return header
}

// StatusCode returns the status code of a raw HTTP response head, or 0 when
// the status line is malformed.
func StatusCode(text string) int {
	fields := strings.Fields(firstLine(strings.TrimLeft(text, " \t\r\n")))
	if len(fields) < 2 || !strings.HasPrefix(strings.ToUpper(fields[0]), "HTTP/") {
		return 0
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil || code < 100 || code > 999 {
		return 0
	}
	return code
}

// parseServerHeader splits "nginx/1.18.0 (Ubuntu)" into product and version.
// Unrecognized products are returned as written.
func parseServerHeader(server string) (product, version string) {
	fields := strings.Fields(server)
	if len(fields) == 0 {
		return "", ""
	}
	product, version, _ = strings.Cut(fields[0], "/")
	if name, ok := httpServerNames[strings.ToLower(product)]; ok {
		product = name
	}
	return product, version
}
