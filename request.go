package asynchttp

import (
	"net/url"

	httperrors "github.com/nczempin/asynchttp/errors"
	"github.com/nczempin/asynchttp/method"
	"github.com/nczempin/asynchttp/observer"
)

// Request is the immutable description of one HTTP exchange submitted to
// a Session (spec §3). It is built and validated synchronously by
// NewRequest; nothing about it requires a worker goroutine to exist yet.
type Request struct {
	Method  method.Method
	URL     *url.URL
	Options RequestOptions

	Observer observer.Observer

	host   string
	port   int
	secure bool
}

// NewRequest validates m and rawURL per spec §4.8's request factory and
// returns a Request ready for Session.Submit. The scheme is dispatched
// synchronously, before any task is in flight: "http" selects a plain
// connection, "https" selects TLS, anything else is UnsupportedProtocol,
// and a URL the parser rejects outright is InvalidUrl.
func NewRequest(m method.Method, rawURL string, opts RequestOptions, obs observer.Observer) (*Request, error) {
	if m.IsZero() {
		return nil, httperrors.New(httperrors.EmptyMethod, "method must not be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, httperrors.Wrapf(httperrors.InvalidUrl, err, "parsing %q", rawURL)
	}
	if u.Host == "" {
		return nil, httperrors.Newf(httperrors.InvalidUrl, "%q has no host", rawURL)
	}

	var secure bool
	switch u.Scheme {
	case "http":
		secure = false
	case "https":
		secure = true
	default:
		return nil, httperrors.Newf(httperrors.UnsupportedProtocol, "scheme %q is not http or https", u.Scheme)
	}

	host := u.Hostname()
	port := defaultPortForScheme(secure)
	if p := u.Port(); p != "" {
		port, err = parsePort(p)
		if err != nil {
			return nil, httperrors.Wrapf(httperrors.InvalidUrl, err, "parsing port in %q", rawURL)
		}
	}

	return &Request{
		Method:   m,
		URL:      u,
		Options:  opts,
		Observer: obs,
		host:     host,
		port:     port,
		secure:   secure,
	}, nil
}

func defaultPortForScheme(secure bool) int {
	if secure {
		return 443
	}
	return 80
}

func parsePort(s string) (int, error) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, httperrors.Newf(httperrors.InvalidUrl, "port %q is not numeric", s)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func (r *Request) target() string {
	if r.URL.RawQuery != "" {
		return r.URL.EscapedPath() + "?" + r.URL.RawQuery
	}
	return r.URL.EscapedPath()
}

func (r *Request) notify(e observer.Event) {
	if r.Observer != nil {
		r.Observer.Notify(e)
	}
}
