// Package wire implements the pure, allocation-conscious HTTP/1.x codec
// used by the session engine: request-preamble serialization, newline
// extraction from a growing receive buffer, and status-line/header-line
// parsing. None of these functions touch a socket; the engine feeds them
// bytes and reacts to what comes back.
package wire

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/nczempin/asynchttp/headers"
	"github.com/nczempin/asynchttp/method"
)

// Version is the HTTP protocol version used on the wire.
type Version struct {
	Major, Minor int
}

var (
	Version10 = Version{1, 0}
	Version11 = Version{1, 1}
)

func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// ErrIncomplete is returned by the parsers below when the supplied bytes
// do not yet contain a full line/status-line. It is a control-flow signal
// for the caller to read more and retry, never surfaced to the library's
// caller as a request error.
var ErrIncomplete = errors.New("wire: incomplete")

// Status is a parsed HTTP status line.
type Status struct {
	Code int
	Text string
}

// IsInformational, IsSuccess, IsRedirect, IsClientError and IsServerError
// classify a status code by half-open range, per spec §9's redesign note
// to use range predicates rather than enum arithmetic on the status code.
func IsInformational(code int) bool { return code >= 100 && code < 200 }
func IsSuccess(code int) bool       { return code >= 200 && code < 300 }
func IsRedirect(code int) bool      { return code >= 300 && code < 400 }
func IsClientError(code int) bool   { return code >= 400 && code < 500 }
func IsServerError(code int) bool   { return code >= 500 && code < 600 }
func IsError(code int) bool         { return code >= 400 }

// SerializeOptions carries everything needed to build a request preamble.
type SerializeOptions struct {
	Method  method.Method
	Target  string // the URL path; "/" is substituted if empty
	Version Version

	Host string
	Port int // 0 means "use the scheme default", which is then omitted
	Secure bool

	UserAgent string
	Referer   string

	// ExtraHeaders are caller-supplied headers. Defaults the engine would
	// otherwise synthesize (Host, Accept, Accept-Encoding, Connection) are
	// skipped when ExtraHeaders already has that name.
	ExtraHeaders *headers.Headers

	// ProxyTarget, if non-empty, replaces Target on the request line with
	// an absolute URL — the proxy-mode extension point of spec §4.2.
	ProxyTarget string
}

// Serialize builds the HTTP/1.x request preamble (request line, header
// lines, terminating blank line) described in spec §4.2.
func Serialize(opts SerializeOptions) []byte {
	var buf bytes.Buffer
	// Small-object optimization: most preambles are well under 1KiB.
	buf.Grow(512)

	target := opts.Target
	if opts.ProxyTarget != "" {
		target = opts.ProxyTarget
	} else if target == "" {
		target = "/"
	}

	buf.WriteString(opts.Method.String())
	buf.WriteByte(' ')
	buf.WriteString(target)
	buf.WriteString(" HTTP/")
	buf.WriteString(opts.Version.String())
	buf.WriteString("\r\n")

	supplied := func(name string) bool {
		return opts.ExtraHeaders != nil && opts.ExtraHeaders.Has(name)
	}

	if opts.Version == Version11 {
		if !supplied("Host") {
			buf.WriteString("Host: ")
			buf.WriteString(opts.Host)
			if opts.Port != 0 && opts.Port != defaultPort(opts.Secure) {
				buf.WriteByte(':')
				buf.WriteString(strconv.Itoa(opts.Port))
			}
			buf.WriteString("\r\n")
		}
		if !supplied("Accept") {
			buf.WriteString("Accept: */*\r\n")
		}
		if !supplied("Accept-Encoding") {
			// deflate is intentionally not advertised: servers disagree on
			// whether it means a raw zlib stream or a raw deflate stream.
			buf.WriteString("Accept-Encoding: gzip\r\n")
		}
		if !supplied("Connection") {
			buf.WriteString("Connection: close\r\n")
		}
	}

	if opts.UserAgent != "" {
		buf.WriteString("User-Agent: ")
		buf.WriteString(opts.UserAgent)
		buf.WriteString("\r\n")
	}
	if opts.Referer != "" {
		buf.WriteString("Referer: ")
		buf.WriteString(opts.Referer)
		buf.WriteString("\r\n")
	}

	if opts.ExtraHeaders != nil {
		opts.ExtraHeaders.Each(func(name, value string) {
			buf.WriteString(name)
			buf.WriteString(": ")
			buf.WriteString(value)
			buf.WriteString("\r\n")
		})
	}

	buf.WriteString("\r\n")
	return buf.Bytes()
}

func defaultPort(secure bool) int {
	if secure {
		return 443
	}
	return 80
}

// ExtractLine scans buf for the first LF. If none is found it returns
// ErrIncomplete and buf is left untouched by the caller's perspective
// (the function is pure; it returns what it found, the caller decides
// whether to keep buffering). On success it returns the bytes before the
// LF with at most one trailing CR stripped, and the remainder of buf
// after the consumed line.
func ExtractLine(buf []byte) (line []byte, rest []byte, err error) {
	idx := bytes.IndexByte(buf, '\n')
	if idx < 0 {
		return nil, buf, ErrIncomplete
	}
	raw := buf[:idx]
	if len(raw) > 0 && raw[len(raw)-1] == '\r' {
		raw = raw[:len(raw)-1]
	}
	return raw, buf[idx+1:], nil
}

// ParseStatusLine parses one line as an HTTP status line: "HTTP/x.y SP
// code SP text". Per spec §4.2, a line shorter than 12 bytes or whose
// code bytes are non-digit is ErrIncomplete, leaving state unchanged for
// the caller to retry once more bytes arrive.
func ParseStatusLine(line []byte) (Status, error) {
	if len(line) < 12 {
		return Status{}, ErrIncomplete
	}
	codeBytes := line[9:12]
	code := 0
	for _, b := range codeBytes {
		if b < '0' || b > '9' {
			return Status{}, ErrIncomplete
		}
		code = code*10 + int(b-'0')
	}
	text := ""
	if len(line) > 13 {
		text = string(line[13:])
	}
	return Status{Code: code, Text: text}, nil
}

// ParseHeaderLine parses one header line. An empty line signals the end
// of the header block (done=true). A non-empty line is appended to into
// and done is false. Malformed lines (no colon) are ignored, matching the
// original's tolerant behavior — field lines without a colon carry no
// semantic the engine acts on.
func ParseHeaderLine(line []byte, into *headers.Headers) (done bool) {
	if len(line) == 0 {
		return true
	}
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return false
	}
	name := string(bytes.TrimSpace(line[:idx]))
	value := string(bytes.TrimSpace(line[idx+1:]))
	into.Add(name, value)
	return false
}
