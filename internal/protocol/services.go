package protocol

import (
	"bufio"
	_ "embed"
	"strconv"
	"strings"
	"sync"
)

//go:embed services.txt
var servicesFile string

// wellKnown maps a TCP port to its conventional service name.
var wellKnown = sync.OnceValue(func() map[uint16]string {
	return parseServices(servicesFile)
})

// WellKnownService returns the conventional service name for a TCP port,
// or "" when the port has none. The name says nothing about what actually
// listens there.
func WellKnownService(port uint16) string {
	return wellKnown()[port]
}

// parseServices reads nmap-services formatted text ("name port/proto ...").
// Comments, blank lines, malformed lines and non-TCP entries are skipped.
// The first entry for a port wins.
func parseServices(text string) map[uint16]string {
	services := make(map[uint16]string)

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		portText, proto, ok := strings.Cut(fields[1], "/")
		if !ok || !strings.EqualFold(proto, "tcp") {
			continue
		}
		port, err := strconv.ParseUint(portText, 10, 16)
		if err != nil || port == 0 {
			continue
		}
		if _, exists := services[uint16(port)]; !exists {
			services[uint16(port)] = fields[0]
		}
	}
	return services
}
