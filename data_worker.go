package asynchttp

import (
	"context"
	"io"

	"golang.org/x/sync/semaphore"

	httperrors "github.com/nczempin/asynchttp/errors"
)

// ioEvent is one message fanned into the data worker's aggregator channel
// by a per-connection forwarder goroutine: either a chunk of bytes read
// off the wire, a read error, or a clean EOF. This is the Go rendering of
// spec §4.5's "multi-object wait": rather than one thread blocking on a
// wait-for-any-of-N-objects primitive, each connection gets its own
// blocking Read in its own goroutine, and all of them funnel into the
// single channel the data worker's select loop actually waits on — the
// "single event-loop thread with a task queue and a reactor" spec §9
// names as an equally valid alternative architecture.
type ioEvent struct {
	rec  *record
	data []byte
	err  error
	eof  bool
}

// dataWorker owns every record from the moment its connection is
// established until its body is delivered or it fails. Once a record's
// forwarder has started, only dataWorker.run's goroutine touches its
// parse state (startForwarder sets stateConnected before starting the
// forwarder), so record and its pipeline need no locking of their own.
type dataWorker struct {
	register   chan *record
	aggregator chan ioEvent
	sem        *semaphore.Weighted
}

func newDataWorker(maxConcurrent int64) *dataWorker {
	return &dataWorker{
		register:   make(chan *record),
		aggregator: make(chan ioEvent, 64),
		sem:        semaphore.NewWeighted(maxConcurrent),
	}
}

// run is the single dispatch loop of spec §4.5: it never blocks on any
// one connection, only on the fan-in channel that every connection's
// forwarder writes to.
func (w *dataWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-w.register:
			// startForwarder blocks on w.sem until a data-queue slot frees
			// up, so it must not run on this loop's own goroutine — doing
			// so would stall dispatch of the very aggregator events whose
			// completion releases slots.
			go w.startForwarder(ctx, rec)
		case ev := <-w.aggregator:
			w.dispatch(ev)
		}
	}
}

func (w *dataWorker) startForwarder(ctx context.Context, rec *record) {
	if !rec.rv.hasOwner() {
		rec.closeConn()
		return
	}
	if rec.rv.cancelRequested.Load() {
		rec.fail(httperrors.New(httperrors.Canceled, "request canceled before send"))
		rec.closeConn()
		return
	}

	// Acquire the data-queue slot (spec §5) before this connection starts
	// being read from; released in dispatch once the connection reaches a
	// terminal outcome. Only connections that actually forward hold one.
	if err := w.sem.Acquire(ctx, 1); err != nil {
		rec.closeConn()
		return
	}

	conn := rec.getConn()
	preamble := rec.serializePreamble()
	if _, err := conn.Write(preamble); err != nil {
		rec.fail(httperrors.Wrap(httperrors.NetworkError, err, "writing request preamble"))
		rec.closeConn()
		w.sem.Release(1)
		return
	}
	rec.req.notify(bytesWrittenEvent(rec.id, int64(len(preamble))))
	rec.state = stateConnected

	go forward(ctx, rec, w.aggregator)
}

// forward is the per-connection goroutine standing in for the "wait on
// this object" half of spec §4.5's multi-object wait: it blocks on
// Read, and only Read, forever translating each result into an ioEvent
// on the shared aggregator channel.
func forward(ctx context.Context, rec *record, aggregator chan<- ioEvent) {
	conn := rec.getConn()
	buf := make([]byte, 32*1024)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case aggregator <- ioEvent{rec: rec, data: chunk}:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			ev := ioEvent{rec: rec, err: err}
			if err == io.EOF {
				ev = ioEvent{rec: rec, eof: true}
			}
			select {
			case aggregator <- ev:
			case <-ctx.Done():
			}
			return
		}
	}
}

// dispatch handles one aggregator event. Every branch that closes rec.conn
// releases the data-queue slot startForwarder acquired for this record —
// exactly one release per forwarded connection, since rec.terminal() short
// -circuits every dispatch call after the first terminal outcome.
func (w *dataWorker) dispatch(ev ioEvent) {
	rec := ev.rec
	if rec.terminal() {
		return
	}
	if !rec.rv.hasOwner() {
		// Abandoned silently: nothing is published, but the record is
		// marked terminal so later events for it are dropped above.
		rec.failed = true
		rec.closeConn()
		w.sem.Release(1)
		return
	}
	if rec.rv.cancelRequested.Load() {
		rec.fail(httperrors.New(httperrors.Canceled, "request canceled"))
		rec.closeConn()
		w.sem.Release(1)
		return
	}

	switch {
	case ev.err != nil:
		rec.fail(httperrors.Wrap(httperrors.NetworkError, ev.err, "reading response"))
		rec.closeConn()
		w.sem.Release(1)
		return
	case ev.eof:
		if rec.state < stateHeadersReceived {
			rec.fail(httperrors.New(httperrors.NetworkError, "connection was closed unexpectedly"))
		} else if err := finalizeUnknownLength(rec); err != nil {
			rec.fail(err)
		}
		rec.closeConn()
		w.sem.Release(1)
		return
	default:
		if err := feed(rec, ev.data); err != nil {
			rec.fail(err)
			rec.closeConn()
			w.sem.Release(1)
			return
		}
		if rec.state == stateContentReceived {
			rec.closeConn()
			w.sem.Release(1)
		}
	}
}
