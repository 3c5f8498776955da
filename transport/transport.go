// Package transport provides the socket/TLS primitives the session engine
// dials through. Per spec §1 these are explicitly out-of-scope external
// collaborators — this package is a thin adapter over the standard
// library's net and crypto/tls, not a reimplementation of either.
package transport

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	httperrors "github.com/nczempin/asynchttp/errors"
)

// Conn is the minimal socket surface the engine needs: blocking Write (the
// preamble is written in one shot per spec §4.5), blocking Read (driven
// from a dedicated forwarder goroutine, see forward in the root package's
// data_worker.go),
// Close, and SetReadDeadline for callers that want one. The per-request
// timeout of spec §5 is not implemented through this deadline: the
// session layer instead closes the connection directly once its timer
// fires (see Session.Cancel), which unblocks a pending Read immediately
// without needing a deadline armed up front.
type Conn interface {
	Write(buf []byte) (int, error)
	Read(buf []byte) (int, error)
	Close() error
	SetReadDeadline(t time.Time) error
}

// DefaultPort returns the scheme's default port: 443 for secure, 80
// otherwise.
func DefaultPort(secure bool) int {
	if secure {
		return 443
	}
	return 80
}

// Dial performs the blocking DNS-resolve-then-connect described in spec
// §4.4 steps (a)-(c): resolution happens implicitly inside net.Dialer, and
// the returned error is reported as HostnameError when it is specifically
// a resolution failure, or NetworkError otherwise. When secure is true the
// connection is then TLS-wrapped and the handshake is performed before
// returning, still on the control worker's goroutine.
func Dial(ctx context.Context, host string, port int, secure bool, tlsConfig *tls.Config) (Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialer := net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if isDNSError(err) {
			return nil, httperrors.Wrapf(httperrors.HostnameError, err, "resolving %s", host)
		}
		return nil, httperrors.Wrapf(httperrors.NetworkError, err, "connecting to %s", addr)
	}

	if tcpConn, ok := rawConn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	if !secure {
		return &conn{Conn: rawConn}, nil
	}

	cfg := tlsConfig
	if cfg == nil {
		cfg = &tls.Config{ServerName: host}
	} else if cfg.ServerName == "" {
		clone := cfg.Clone()
		clone.ServerName = host
		cfg = clone
	}

	tlsConn := tls.Client(rawConn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, httperrors.Wrapf(httperrors.NetworkError, err, "TLS handshake with %s", host)
	}

	return &conn{Conn: tlsConn}, nil
}

func isDNSError(err error) bool {
	for e := err; e != nil; {
		if _, ok := e.(*net.DNSError); ok {
			return true
		}
		unwrapper, ok := e.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		e = unwrapper.Unwrap()
	}
	return false
}

// conn adapts a net.Conn (plain TCP or TLS) to Conn.
type conn struct {
	net.Conn
}
