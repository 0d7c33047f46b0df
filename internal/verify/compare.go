package verify

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nao1215/bannerscan/internal/model"
)

// Comparison is the difference between the open ports found by bannerscan
// and by nmap.
type Comparison struct {
	// OnlyScanner lists ports only bannerscan reported open.
	OnlyScanner []uint16 `json:"only_scanner"`

	// OnlyNmap lists ports only nmap reported open.
	OnlyNmap []uint16 `json:"only_nmap"`

	// Match is true when both found the same open ports.
	Match bool `json:"match"`
}

// Compare diffs the report's open ports against nmapOpen.
// nmapOpen may be unsorted and contain duplicates.
func Compare(report *model.ScanReport, nmapOpen []uint16) Comparison {
	var scanner []uint16
	if report != nil {
		scanner = report.OpenPortNumbers()
	}
	theirs := normalize(nmapOpen)

	c := Comparison{
		OnlyScanner: difference(scanner, theirs),
		OnlyNmap:    difference(theirs, scanner),
	}
	c.Match = len(c.OnlyScanner) == 0 && len(c.OnlyNmap) == 0
	return c
}

// String renders the comparison for the terminal.
func (c Comparison) String() string {
	if c.Match {
		return "Results match nmap output."
	}
	var sb strings.Builder
	if len(c.OnlyScanner) > 0 {
		sb.WriteString(fmt.Sprintf("Ports found only by bannerscan: %v\n", c.OnlyScanner))
	}
	if len(c.OnlyNmap) > 0 {
		sb.WriteString(fmt.Sprintf("Ports found only by nmap: %v\n", c.OnlyNmap))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func normalize(ports []uint16) []uint16 {
	out := slices.Clone(ports)
	slices.Sort(out)
	return slices.Compact(out)
}

// difference returns the elements of a missing from b. Both are sorted.
func difference(a, b []uint16) []uint16 {
	out := make([]uint16, 0)
	for _, p := range a {
		if _, found := slices.BinarySearch(b, p); !found {
			out = append(out, p)
		}
	}
	return out
}
