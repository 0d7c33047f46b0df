package protocol

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/bannerscan/internal/model"
	"golang.org/x/text/encoding/charmap"
)

// DefaultReadTimeout is the banner read timeout used when none is given.
const DefaultReadTimeout = time.Second

// Limits on captured text.
const (
	maxBannerBytes    = 4096
	maxBannerLines    = 32
	maxFollowUpLines  = 16
	readerBufferBytes = maxBannerBytes
)

// Banner is the text captured from an open port.
type Banner struct {
	// Text is the decoded greeting or response head, lines joined by "\n".
	// Empty means no banner.
	Text string

	// Extra holds the reply to the follow-up query, one entry per line.
	Extra []string
}

// IsEmpty reports whether nothing was captured.
func (b Banner) IsEmpty() bool {
	return b.Text == ""
}

// Reader captures banners from open connections.
// A Reader is safe for concurrent use by multiple goroutines.
type Reader struct {
	// httpPorts receive the HEAD probe without a passive wait.
	httpPorts map[uint16]struct{}

	// followUp enables the HELP/EHLO capability query.
	followUp bool

	// heloName is announced in EHLO.
	heloName string

	logger *slog.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithHTTPPorts replaces the set of ports probed as HTTP immediately.
func WithHTTPPorts(ports ...uint16) ReaderOption {
	return func(r *Reader) {
		r.httpPorts = make(map[uint16]struct{}, len(ports))
		for _, p := range ports {
			r.httpPorts[p] = struct{}{}
		}
	}
}

// WithFollowUp enables a single capability query after FTP and SMTP
// greetings: HELP for FTP, EHLO for SMTP.
func WithFollowUp(enabled bool) ReaderOption {
	return func(r *Reader) {
		r.followUp = enabled
	}
}

// WithHeloName sets the name announced in the EHLO follow-up.
func WithHeloName(name string) ReaderOption {
	return func(r *Reader) {
		if name = strings.TrimSpace(name); name != "" {
			r.heloName = name
		}
	}
}

// WithReaderLogger sets the logger.
func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader creates a Reader with DefaultHTTPPorts.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{heloName: DefaultHeloName}
	WithHTTPPorts(DefaultHTTPPorts...)(r)

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// IsHTTPPort reports whether port receives the HEAD probe immediately.
func (r *Reader) IsHTTPPort(port uint16) bool {
	_, ok := r.httpPorts[port]
	return ok
}

// ReadBanner captures the banner of conn, which is connected to port.
// The whole exchange is bounded by readTimeout; a non-positive value selects
// DefaultReadTimeout. ReadBanner owns conn and always closes it.
//
// A peer that closes without sending anything, or stays silent, yields an
// empty Banner. Silence is reported as ErrReadTimeout and other failures as
// ErrReadError; any text captured before a failure is still returned.
func (r *Reader) ReadBanner(ctx context.Context, conn net.Conn, port uint16, readTimeout time.Duration) (Banner, error) {
	defer conn.Close()

	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	deadline := time.Now().Add(readTimeout)

	// Cancellation forces any blocked read or write to return.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	br := bufio.NewReaderSize(conn, readerBufferBytes)

	if r.IsHTTPPort(port) {
		if err := r.send(ctx, conn, headProbe, deadline); err != nil {
			return Banner{}, err
		}
	} else {
		passive := time.Now().Add(readTimeout / 2)
		if err := armDeadline(ctx, conn, passive); err != nil {
			return Banner{}, readError(ctx, err)
		}
		if _, err := br.Peek(1); err != nil {
			switch {
			case ctx.Err() != nil:
				return Banner{}, readError(ctx, err)
			case isTimeout(err):
				// Silent so far: the service may be waiting for a client.
				r.logger.Debug("no greeting, sending HEAD probe", "port", port)
				if err := r.send(ctx, conn, headProbe, deadline); err != nil {
					return Banner{}, err
				}
			case errors.Is(err, io.EOF):
				return Banner{}, nil
			default:
				return Banner{}, readError(ctx, err)
			}
		}
	}

	if err := armDeadline(ctx, conn, deadline); err != nil {
		return Banner{}, readError(ctx, err)
	}

	lines, err := readGreeting(br)
	banner := Banner{Text: strings.Join(lines, "\n")}
	if banner.IsEmpty() {
		switch {
		case err == nil, errors.Is(err, io.EOF) && ctx.Err() == nil:
			return Banner{}, nil
		default:
			return Banner{}, readError(ctx, err)
		}
	}

	if r.followUp {
		banner.Extra = r.queryCapabilities(ctx, conn, br, banner.Text, deadline)
	}
	return banner, nil
}

// queryCapabilities sends the follow-up query matching the greeting and
// returns the reply lines. Failures only shorten the reply.
func (r *Reader) queryCapabilities(ctx context.Context, conn net.Conn, br *bufio.Reader, greeting string, deadline time.Time) []string {
	var command string
	switch Classify(greeting).Kind {
	case model.ServiceFTP:
		command = ftpHelpCommand
	case model.ServiceSMTP:
		command = ehloCommand(r.heloName)
	default:
		return nil
	}

	if err := r.send(ctx, conn, command, deadline); err != nil {
		r.logger.Debug("follow-up query failed", "error", err)
		return nil
	}

	var extra []string
	for len(extra) < maxFollowUpLines {
		line, err := readLine(br)
		if line != "" {
			extra = append(extra, line)
			if isFinalReplyLine(line) {
				break
			}
		}
		if err != nil {
			break
		}
	}
	return extra
}

// send writes a request before deadline.
func (r *Reader) send(ctx context.Context, conn net.Conn, request string, deadline time.Time) error {
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return readError(ctx, err)
	}
	if ctx.Err() != nil {
		return readError(ctx, ctx.Err())
	}
	if _, err := io.WriteString(conn, request); err != nil {
		return readError(ctx, err)
	}
	return nil
}

// armDeadline sets the read deadline unless ctx is already done, in which
// case the deadline stays in the past.
func armDeadline(ctx context.Context, conn net.Conn, t time.Time) error {
	if err := conn.SetReadDeadline(t); err != nil {
		return err
	}
	if ctx.Err() != nil {
		_ = conn.SetReadDeadline(time.Unix(1, 0))
		return ctx.Err()
	}
	return nil
}

// readGreeting reads the first non-blank line and its continuation: the rest
// of a "NNN-" multi-line reply, or the header block after an HTTP status line.
// It stops at maxBannerLines or maxBannerBytes.
func readGreeting(br *bufio.Reader) ([]string, error) {
	first, err := readLine(br)
	// Blank lines ahead of the greeting are skipped, up to maxBannerLines.
	for skipped := 0; first == "" && err == nil && skipped < maxBannerLines; skipped++ {
		first, err = readLine(br)
	}
	if first == "" {
		return nil, err
	}
	lines := []string{first}
	if err != nil {
		return lines, nil
	}

	size := len(first)
	switch {
	case strings.HasPrefix(strings.ToUpper(first), "HTTP/"):
		for len(lines) < maxBannerLines && size < maxBannerBytes {
			line, err := readLine(br)
			if line == "" {
				// Blank line ends the header block.
				break
			}
			lines = append(lines, line)
			size += len(line)
			if err != nil {
				break
			}
		}
	case isContinuationLine(first):
		code := first[:3]
		for len(lines) < maxBannerLines && size < maxBannerBytes {
			line, err := readLine(br)
			if line != "" {
				lines = append(lines, line)
				size += len(line)
				if strings.HasPrefix(line, code+" ") || line == code {
					break
				}
			}
			if err != nil {
				break
			}
		}
	}
	return lines, nil
}

// readLine reads one line, decoded and without its terminator. A line longer
// than the buffer is truncated. A partial line is returned along with the
// error that ended it.
func readLine(br *bufio.Reader) (string, error) {
	raw, err := br.ReadSlice('\n')
	line := decode(bytes.TrimRight(raw, "\r\n"))
	// Discard the rest of an oversized line.
	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = br.ReadSlice('\n')
	}
	return line, err
}

// decode converts raw bytes to clean text. Invalid UTF-8 is taken as
// ISO-8859-1. Control characters other than tab are dropped.
func decode(raw []byte) string {
	text := string(raw)
	if !utf8.Valid(raw) {
		if b, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil {
			text = string(b)
		}
	}
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}

// isContinuationLine reports whether line opens a multi-line reply ("220-").
func isContinuationLine(line string) bool {
	return len(line) >= 4 && isDigits(line[:3]) && line[3] == '-'
}

// isFinalReplyLine reports whether line ends a reply ("250 ", "214 ").
func isFinalReplyLine(line string) bool {
	return len(line) >= 3 && isDigits(line[:3]) && (len(line) == 3 || line[3] == ' ')
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// readError wraps err in the matching read sentinel. Cancellation is
// reported as a read error wrapping the context error.
func readError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrReadError, ctx.Err())
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %w", ErrReadTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrReadError, err)
}
