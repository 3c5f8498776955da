package asynchttp

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	httperrors "github.com/nczempin/asynchttp/errors"
	"github.com/nczempin/asynchttp/headers"
	"github.com/nczempin/asynchttp/wire"
)

// Stage is one of the monotonically advancing values a Result passes
// through, or the terminal Error (spec §3).
type Stage int32

const (
	NoData Stage = iota
	StatusReady
	HeadersReady
	BodyReady
	errorStage
)

func (s Stage) String() string {
	switch s {
	case NoData:
		return "NoData"
	case StatusReady:
		return "StatusReady"
	case HeadersReady:
		return "HeadersReady"
	case BodyReady:
		return "BodyReady"
	case errorStage:
		return "Error"
	default:
		return "Unknown"
	}
}

// ErrResultInvalidated is returned by Result's accessors once the handle
// has been closed by its owner — spec §4.3's "logic error" case.
var ErrResultInvalidated = httperrors.New(httperrors.CodeNone, "result handle has been invalidated")

// rendezvous is the shared state between a Result and the engine's request
// record (spec §3's "Result handle"). Both sides hold a reference to it;
// neither holds a reference to the other, so destruction of either side
// only flips a flag the other observes (spec §9's cyclic-ownership note).
type rendezvous struct {
	id uint64

	stage atomic.Int32
	sem   *semaphore.Weighted

	// Written exactly once each, by the engine, before the matching stage
	// is published — see the release/acquire discipline in wait().
	status  wire.Status
	headers *headers.Headers
	body    []byte
	err     error

	// ownerDropped is set when the caller's handle is closed (implicit
	// cancel, spec §5's "no external observer" path): the engine abandons
	// the request silently, publishing nothing.
	ownerDropped atomic.Bool
	// cancelRequested is set by Session.Cancel (explicit cancel, spec
	// §5/§8 S5): the engine publishes a Canceled error on its next
	// dispatch for this record, rather than staying silent.
	cancelRequested atomic.Bool
	closed           atomic.Bool
}

func newRendezvous(id uint64) *rendezvous {
	sem := semaphore.NewWeighted(1)
	// Start fully held: wait()'s first Acquire genuinely blocks until the
	// first publish* call below releases it, rather than succeeding
	// immediately on an unlimited semaphore (spec §5/§9 note (b): the
	// result handle must never busy-wait).
	sem.Acquire(context.Background(), 1)
	return &rendezvous{
		id:  id,
		sem: sem,
	}
}

// notify wakes one blocked waiter, if any, then immediately reclaims the
// permit if nobody was waiting to take it — returning the semaphore to its
// held steady state so the next notify can Release again without ever
// driving cur negative (size-1 semaphore, at most one outstanding permit).
func (r *rendezvous) notify() {
	r.sem.Release(1)
	r.sem.TryAcquire(1)
}

// publishStatus, publishHeaders, publishBody and publishError are called
// exactly once each by the engine. Each stores its field with a plain
// write, then stage with an atomic store, then notifies the semaphore
// once — the write-then-store-then-release discipline spec §4.3
// prescribes, relying on Go's atomic store/load to publish the preceding
// plain write.
func (r *rendezvous) publishStatus(s wire.Status) {
	r.status = s
	r.stage.Store(int32(StatusReady))
	r.notify()
}

func (r *rendezvous) publishHeaders(h *headers.Headers) {
	r.headers = h
	r.stage.Store(int32(HeadersReady))
	r.notify()
}

func (r *rendezvous) publishBody(b []byte) {
	r.body = b
	r.stage.Store(int32(BodyReady))
	r.notify()
}

func (r *rendezvous) publishError(err error) {
	r.err = err
	r.stage.Store(int32(errorStage))
	r.notify()
}

// hasOwner reports whether the caller side has not yet dropped its
// handle — the data worker consults this before an expensive delivery
// (spec §4.5/§5's implicit-cancel path).
func (r *rendezvous) hasOwner() bool {
	return !r.ownerDropped.Load()
}

// wait implements spec §4.3's blocking protocol: loop { snapshot stage;
// if Error, return the recorded error; if snapshot >= want, return; else
// acquire the semaphore once and retry }.
func (r *rendezvous) wait(ctx context.Context, want Stage) error {
	for {
		if r.closed.Load() {
			return ErrResultInvalidated
		}
		snapshot := Stage(r.stage.Load())
		if snapshot == errorStage {
			return r.err
		}
		if snapshot >= want {
			return nil
		}
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return err
		}
	}
}

// Result is the caller-visible handle described in spec §3/§4.3/§6: a
// shareable, thread-safe rendezvous carrying status, headers and body as
// they become available, plus a terminal error.
type Result struct {
	rv *rendezvous
}

func newResult(rv *rendezvous) *Result {
	return &Result{rv: rv}
}

// Identity returns the stable request id assigned at submission.
func (r *Result) Identity() uint64 {
	return r.rv.id
}

// Status blocks until the status line is available, Error occurs, or ctx
// is done.
func (r *Result) Status(ctx context.Context) (wire.Status, error) {
	if err := r.rv.wait(ctx, StatusReady); err != nil {
		return wire.Status{}, err
	}
	return r.rv.status, nil
}

// Headers blocks until the header block is available, Error occurs, or
// ctx is done.
func (r *Result) Headers(ctx context.Context) (*headers.Headers, error) {
	if err := r.rv.wait(ctx, HeadersReady); err != nil {
		return nil, err
	}
	return r.rv.headers, nil
}

// Body blocks until the body is available, Error occurs, or ctx is done.
func (r *Result) Body(ctx context.Context) ([]byte, error) {
	if err := r.rv.wait(ctx, BodyReady); err != nil {
		return nil, err
	}
	return r.rv.body, nil
}

// HasStatus, HasHeaders, HasBody and IsCompleted are the non-blocking
// observations of spec §4.3; none of them ever block.
func (r *Result) HasStatus() bool {
	s := Stage(r.rv.stage.Load())
	return s >= StatusReady && s != errorStage
}

func (r *Result) HasHeaders() bool {
	s := Stage(r.rv.stage.Load())
	// A stop-on-error response goes from StatusReady straight to BodyReady
	// without ever publishing headers.
	return s >= HeadersReady && s != errorStage && r.rv.headers != nil
}

func (r *Result) HasBody() bool {
	s := Stage(r.rv.stage.Load())
	return s >= BodyReady && s != errorStage
}

func (r *Result) IsCompleted() bool {
	s := Stage(r.rv.stage.Load())
	return s == BodyReady || s == errorStage
}

// Err returns the terminal error, if any, without blocking.
func (r *Result) Err() error {
	if Stage(r.rv.stage.Load()) == errorStage {
		return r.rv.err
	}
	return nil
}

// Close drops the handle: spec §4.3 "Destruction signals cancellation to
// the engine", rendered in Go as an explicit Close rather than a
// destructor. This is the implicit-cancel path — the engine abandons the
// request silently, unlike Session.Cancel which publishes Canceled.
func (r *Result) Close() error {
	r.rv.ownerDropped.Store(true)
	r.rv.closed.Store(true)
	// Wake a goroutine already blocked in wait() so it observes `closed`
	// instead of waiting for a publish that may now never come.
	r.rv.notify()
	return nil
}
