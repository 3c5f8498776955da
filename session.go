// Package asynchttp is an asynchronous HTTP/1.x client engine: submit a
// Request to a Session and receive a Result handle that is filled in as
// the status line, headers and body become available, without blocking
// the submitting goroutine.
//
// A Session splits work across two kinds of workers, mirroring the
// control/data split of the engine this package's design is grounded on:
// a control worker resolves hostnames and opens connections, and a data
// worker owns every connection from the moment it's established,
// multiplexing reads across all of them through a single fan-in channel
// rather than blocking per connection.
package asynchttp

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	httperrors "github.com/nczempin/asynchttp/errors"
	"github.com/nczempin/asynchttp/headers"
)

// Session is the entry point of this package: it owns the worker
// goroutines and the queues that feed them, and is safe for concurrent
// use by multiple goroutines submitting requests.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc

	control *controlWorker
	data    *dataWorker

	logger         *slog.Logger
	clock          clock.Clock
	requestTimeout time.Duration
	cookieJar      http.CookieJar

	nextID atomic.Uint64

	records sync.Map // uint64 -> *record, for Cancel lookups

	wg     sync.WaitGroup
	closed atomic.Bool
}

// SessionOption configures a Session at construction time. The
// functional-options pattern stands in for the teacher's config-struct
// constructor: there is no configuration file format in scope here, only
// a small, growable set of tunables.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	maxControlConcurrency int64
	maxDataConcurrency    int64
	tlsConfig             *tls.Config
	logger                *slog.Logger
	clock                 clock.Clock
	requestTimeout        time.Duration
	cookieJar             http.CookieJar
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		maxControlConcurrency: 64,
		maxDataConcurrency:    256,
	}
}

// WithMaxControlConcurrency bounds how many DNS-resolve-and-connect
// operations may be in flight at once.
func WithMaxControlConcurrency(n int64) SessionOption {
	return func(c *sessionConfig) { c.maxControlConcurrency = n }
}

// WithMaxDataConcurrency bounds how many established connections the data
// worker will read from concurrently — the "data-queue semaphore" of spec
// §5.
func WithMaxDataConcurrency(n int64) SessionOption {
	return func(c *sessionConfig) { c.maxDataConcurrency = n }
}

// WithTLSConfig supplies the *tls.Config used for https:// requests.
func WithTLSConfig(cfg *tls.Config) SessionOption {
	return func(c *sessionConfig) { c.tlsConfig = cfg }
}

// WithLogger supplies the *slog.Logger the session reports lifecycle
// events through (worker start/stop, a request timing out). A request's
// other terminal errors are not logged; they reach the caller only
// through its Result. Passing
// nil, or never calling this option, falls back to slog.Default().
func WithLogger(logger *slog.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = logger }
}

// WithClock substitutes the clock.Clock used for the per-request timeout
// timer, letting tests advance a clock.NewMock() deterministically instead
// of sleeping in wall-clock time. Defaults to clock.New() (real time).
func WithClock(c clock.Clock) SessionOption {
	return func(cfg *sessionConfig) { cfg.clock = c }
}

// WithRequestTimeout bounds how long a request may run without completing,
// counted from Submit (so it includes resolve and connect), before the
// session cancels it — the per-request timeout of spec §5. Zero (the
// default) disables the timer.
func WithRequestTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) { c.requestTimeout = d }
}

// WithCookieJar attaches a standard-library http.CookieJar. Its mechanics
// are explicitly out of scope (spec §4.7 names the cookie jar as an
// extension point); this session only consults it to populate the Cookie
// header on requests with RequestOptions.SetCookies set.
func WithCookieJar(jar http.CookieJar) SessionOption {
	return func(c *sessionConfig) { c.cookieJar = jar }
}

// NewSession starts a Session's worker goroutines and returns it ready
// to accept Submit calls. Callers must call Close when done.
func NewSession(opts ...SessionOption) (*Session, error) {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxControlConcurrency <= 0 || cfg.maxDataConcurrency <= 0 {
		return nil, httperrors.New(httperrors.SystemError, "concurrency limits must be positive")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	cl := cfg.clock
	if cl == nil {
		cl = clock.New()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		ctx:            ctx,
		cancel:         cancel,
		logger:         logger,
		clock:          cl,
		requestTimeout: cfg.requestTimeout,
		cookieJar:      cfg.cookieJar,
	}
	s.data = newDataWorker(cfg.maxDataConcurrency)
	s.control = newControlWorker(cfg.maxControlConcurrency, cfg.tlsConfig, s.data.register)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		logger.Debug("control worker starting")
		s.control.run(ctx)
		logger.Debug("control worker stopped")
	}()
	go func() {
		defer s.wg.Done()
		logger.Debug("data worker starting")
		s.data.run(ctx)
		logger.Debug("data worker stopped")
	}()

	return s, nil
}

// Submit enqueues req for processing and returns immediately with a
// Result handle the caller polls or blocks on (spec §3/§6). Submission
// itself never blocks on network I/O; it only fails if the Session has
// been closed.
func (s *Session) Submit(req *Request) (*Result, error) {
	if s.closed.Load() {
		return nil, httperrors.New(httperrors.SystemError, "session is closed")
	}

	if req.Options.SetCookies && s.cookieJar != nil {
		s.applyCookies(req)
	}

	id := s.nextID.Add(1)
	rv := newRendezvous(id)
	rec := newRecord(id, req, rv)

	var timer *clock.Timer
	if s.requestTimeout > 0 {
		timer = s.clock.AfterFunc(s.requestTimeout, func() {
			s.logger.Warn("request timed out", "id", id)
			s.Cancel(id)
		})
	}
	rec.onDone = func() {
		if timer != nil {
			timer.Stop()
		}
		s.records.Delete(id)
	}

	s.records.Store(id, rec)

	select {
	case s.control.queue <- rec:
	case <-s.ctx.Done():
		s.records.Delete(id)
		if timer != nil {
			timer.Stop()
		}
		return nil, httperrors.New(httperrors.Canceled, "session is shutting down")
	}

	return newResult(rv), nil
}

func (s *Session) applyCookies(req *Request) {
	cookies := s.cookieJar.Cookies(req.URL)
	if len(cookies) == 0 {
		return
	}
	if req.Options.ExtraHeaders == nil {
		req.Options.ExtraHeaders = headers.New()
	}
	var value string
	for i, c := range cookies {
		if i > 0 {
			value += "; "
		}
		value += c.Name + "=" + c.Value
	}
	req.Options.ExtraHeaders.Set("Cookie", value)
}

// Cancel requests explicit cancellation of the request identified by id
// (spec §4.7/§5/§8 S5). Setting cancelRequested alone only takes effect on
// the data worker's next dispatch for that record — which, for a
// connection that has gone idle with no bytes and no close in flight,
// might never come. So Cancel also closes the connection directly here,
// the same way Close does for every live record, to unblock the
// forwarder's blocking Read within one wait-wake cycle (spec §9 invariant
// (c)) and let dispatch observe the flag and publish Canceled. Cancelling
// an already-completed or already-canceled request is a no-op (spec §8
// property 4): getConn returns nil until the control worker connects, and
// record.terminal()/fail() guard against a second publish — so calling
// Cancel twice, or calling it after Body() has already returned, has the
// same observable outcome as calling it once.
func (s *Session) Cancel(id uint64) {
	v, ok := s.records.Load(id)
	if !ok {
		return
	}
	rec := v.(*record)
	rec.rv.cancelRequested.Store(true)
	rec.closeConn()
}

// Close stops both workers and releases their resources. Results already
// handed out remain readable for whatever stage they reached before
// Close was called; any stage not yet reached will never arrive.
//
// A blocking Read on an open connection does not observe context
// cancellation, so every still-open connection is closed directly here
// first — that is what unblocks each connection's forwarder goroutine in
// time for s.wg.Wait() to return.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.records.Range(func(_, v any) bool {
		v.(*record).closeConn()
		return true
	})
	s.cancel()
	s.wg.Wait()
	return nil
}
