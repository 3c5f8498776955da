// Package method validates and represents the HTTP method token used by a
// request: a non-empty run of US-ASCII visible characters excluding control
// bytes, DEL, and the RFC 7230 separators.
package method

import "github.com/nczempin/asynchttp/errors"

// Method is a validated HTTP method token. Equality is byte-exact: no
// canonicalization (in particular, no upper-casing) is performed.
type Method struct {
	token string
}

// Predefined, pre-validated standard methods.
var (
	GET     = mustStandard("GET")
	POST    = mustStandard("POST")
	PUT     = mustStandard("PUT")
	HEAD    = mustStandard("HEAD")
	DELETE  = mustStandard("DELETE")
	OPTIONS = mustStandard("OPTIONS")
	TRACE   = mustStandard("TRACE")
	CONNECT = mustStandard("CONNECT")
)

func mustStandard(token string) Method {
	m, err := New(token)
	if err != nil {
		panic(err)
	}
	return m
}

// isSeparator reports whether b is one of the RFC 7230 tchar-excluded
// separators: ( ) < > @ , ; : \ " / [ ] ? = { } and SPACE.
func isSeparator(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"', '/', '[', ']', '?', '=', '{', '}', ' ':
		return true
	default:
		return false
	}
}

// New validates s against §3's token grammar and returns a Method.
func New(s string) (Method, error) {
	if len(s) == 0 {
		return Method{}, errors.New(errors.EmptyMethod, "method must not be empty")
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b < 0x21 || b >= 0x7f || isSeparator(b) {
			return Method{}, errors.Newf(errors.InvalidCharacter, "method %q contains forbidden character %q at index %d", s, b, i)
		}
	}
	return Method{token: s}, nil
}

// String returns the method's wire token.
func (m Method) String() string {
	return m.token
}

// Equal reports byte-exact equality between two methods.
func (m Method) Equal(other Method) bool {
	return m.token == other.token
}

// IsZero reports whether m is the zero Method (never successfully
// constructed).
func (m Method) IsZero() bool {
	return m.token == ""
}
