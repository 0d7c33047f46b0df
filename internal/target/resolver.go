package target

import (
	"strconv"
	"strings"

	"github.com/nao1215/bannerscan/internal/model"
)

// Port bounds accepted by the resolver.
const (
	MinPort = 1
	MaxPort = 65535
)

// ParsePortRange parses a port expression of the form "start-end".
// A single port "N" is accepted as shorthand for "N-N". Whitespace around
// the bounds is ignored.
func ParsePortRange(expr string) (uint16, uint16, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return 0, 0, &InvalidRangeError{Expr: expr, Reason: "empty expression, expected START-END"}
	}

	startText, endText, isRange := strings.Cut(trimmed, "-")
	if !isRange {
		endText = startText
	}

	start, err := parseBound(startText)
	if err != nil {
		return 0, 0, &InvalidRangeError{Expr: expr, Reason: "start " + err.Error()}
	}
	end, err := parseBound(endText)
	if err != nil {
		return 0, 0, &InvalidRangeError{Expr: expr, Reason: "end " + err.Error()}
	}

	if err := checkRange(start, end); err != nil {
		err.Expr = expr
		return 0, 0, err
	}
	return uint16(start), uint16(end), nil //nolint:gosec // bounds checked above
}

// parseBound parses one side of a range. Range checking happens in checkRange
// so that out-of-range numbers get the same message as other bound errors.
func parseBound(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errMissing
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errNotNumber
	}
	return n, nil
}

// checkRange validates numeric bounds.
func checkRange(start, end int) *InvalidRangeError {
	if start < MinPort || start > MaxPort {
		return &InvalidRangeError{Reason: "start " + strconv.Itoa(start) + " is outside 1-65535"}
	}
	if end < MinPort || end > MaxPort {
		return &InvalidRangeError{Reason: "end " + strconv.Itoa(end) + " is outside 1-65535"}
	}
	if start > end {
		return &InvalidRangeError{Reason: "start " + strconv.Itoa(start) + " is greater than end " + strconv.Itoa(end)}
	}
	return nil
}

// Resolve produces the ordered ScanTargets for host and the port expression.
// It fails with *InvalidHostError for an empty host and *InvalidRangeError
// for a bad expression; the host is checked first.
func Resolve(host, portExpr string) ([]model.ScanTarget, error) {
	if err := ValidateHost(host); err != nil {
		return nil, err
	}
	start, end, err := ParsePortRange(portExpr)
	if err != nil {
		return nil, err
	}
	return expand(strings.TrimSpace(host), start, end), nil
}

// ResolveRange is Resolve for numeric bounds.
func ResolveRange(host string, start, end int) ([]model.ScanTarget, error) {
	if err := ValidateHost(host); err != nil {
		return nil, err
	}
	if err := checkRange(start, end); err != nil {
		err.Expr = strconv.Itoa(start) + "-" + strconv.Itoa(end)
		return nil, err
	}
	return expand(strings.TrimSpace(host), uint16(start), uint16(end)), nil //nolint:gosec // bounds checked above
}

// ValidateHost checks that the host string is usable.
func ValidateHost(host string) error {
	if strings.TrimSpace(host) == "" {
		return &InvalidHostError{Host: host}
	}
	return nil
}

// expand builds one target per port in start..end inclusive.
func expand(host string, start, end uint16) []model.ScanTarget {
	targets := make([]model.ScanTarget, 0, int(end)-int(start)+1)
	for port := int(start); port <= int(end); port++ {
		targets = append(targets, model.NewScanTarget(host, uint16(port))) //nolint:gosec // port <= 65535
	}
	return targets
}
