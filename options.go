package asynchttp

import "github.com/nczempin/asynchttp/headers"

// AuthMethod is a bitmask of permitted authentication schemes. The auth
// module itself is out of scope (spec §1); this is the integration point
// RequestOptions.AuthMethods is typed against.
type AuthMethod uint32

const (
	AuthBasic AuthMethod = 1 << iota
	AuthDigest
	AuthNegotiate
	AuthNTLM
)

// PostFields is a structured body for form submissions, the integration
// point for RequestOptions.PostFields. Nothing encodes it into a wire
// body: the engine writes only the request preamble and sends no request
// body.
type PostFields struct {
	Fields map[string]string
}

// RequestOptions enumerates the recognized per-request options of spec §3.
type RequestOptions struct {
	// MaxRedirects upper-bounds a redirect chain. Default 8. It is stored
	// but not read, since redirects are not followed — see FollowLocation.
	MaxRedirects int

	// Referer is the Referer header value; empty omits the header.
	Referer string
	// UserAgent is the User-Agent header value; empty omits the header.
	UserAgent string

	// Username and Password are auth credentials, unused until the auth
	// module is wired in (out of scope per spec §1).
	Username string
	Password string
	// AuthMethods is a bitmask of permitted auth schemes.
	AuthMethods AuthMethod

	// ExtraHeaders are merged after the engine's defaults.
	ExtraHeaders *headers.Headers

	// PostFields is a structured body for form submissions.
	PostFields *PostFields

	// InputData is a raw body source; InputDataSize is its length. Both are
	// stored only: the engine sends no request body and reads neither.
	InputData     []byte
	InputDataSize int64

	// RangeStart and RangeEnd hold a byte range; -1 means unset. They are
	// stored only: no Range header is emitted from them.
	RangeStart int64
	RangeEnd   int64

	// FollowLocation, if true, would follow 3xx responses bounded by
	// MaxRedirects. Stubbed per spec §9: the flag is parsed and
	// observable but does not yet trigger a redirected resubmission.
	FollowLocation bool

	// DiscardData, if true, means body bytes are consumed but not
	// retained on the Result.
	DiscardData bool

	// AutoReferer, if true, means redirects would set Referer to the
	// prior URL. Dormant along with FollowLocation.
	AutoReferer bool

	// StopOnError, if true, aborts before reading the body once the
	// status code is >= 400.
	StopOnError bool

	// SetCookies, if true, emits cookies from the session's cookie jar.
	SetCookies bool
}

// DefaultRequestOptions returns the spec's documented defaults.
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{
		MaxRedirects: 8,
		RangeStart:   -1,
		RangeEnd:     -1,
	}
}
