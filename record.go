package asynchttp

import (
	"bytes"
	"sync"

	"github.com/nczempin/asynchttp/headers"
	"github.com/nczempin/asynchttp/transport"
	"github.com/nczempin/asynchttp/wire"
)

// recordState is the per-request progression through the receive phases
// of spec §4.6.
type recordState int

const (
	stateInitial recordState = iota
	stateConnected
	stateStatusReceived
	stateHeadersReceived
	stateContentReceived
	stateTrailingHeadersReceived
)

// record is the engine's private bookkeeping for one in-flight request —
// the internal counterpart to the caller-visible Request/Result pair. It
// is owned by the control worker until connected, then handed to the data
// worker, which owns it for the rest of its life.
type record struct {
	id uint64

	req *Request
	rv  *rendezvous

	// connMu guards conn: it is written once by the control worker's
	// connect goroutine, but read and closed from Session.Cancel/Close on
	// whatever goroutine the caller calls them from, with no other
	// synchronization between record creation and that write (unlike
	// rv.cancelRequested/rv.ownerDropped, which are already atomic).
	connMu sync.Mutex
	conn   transport.Conn
	secure bool

	state recordState

	// recvBuf accumulates bytes read off the wire that have not yet been
	// consumed by a complete line or a complete body chunk (spec §4.6's
	// "Receive phase").
	recvBuf bytes.Buffer

	respHeaders   *headers.Headers
	statusCode    int
	contentLength int64 // -1 means unknown (read until close)
	bytesRead     int64
	chunked       bool
	gzipped       bool

	sink *decompressSink
	body bytes.Buffer

	err    error
	failed bool

	// onDone, if set, is called exactly once when the record reaches a
	// terminal stage (failed or body delivered) — the session's hook for
	// evicting the record from its Cancel-lookup table and stopping its
	// timeout timer.
	onDone func()
}

func newRecord(id uint64, req *Request, rv *rendezvous) *record {
	return &record{
		id:            id,
		req:           req,
		rv:            rv,
		state:         stateInitial,
		contentLength: -1,
		respHeaders:   headers.New(),
	}
}

// setConn records the connection established by the control worker.
// Called exactly once, before rec is handed off to the data worker.
func (rec *record) setConn(c transport.Conn) {
	rec.connMu.Lock()
	rec.conn = c
	rec.connMu.Unlock()
}

// getConn returns the current connection, or nil if connect hasn't
// happened yet.
func (rec *record) getConn() transport.Conn {
	rec.connMu.Lock()
	defer rec.connMu.Unlock()
	return rec.conn
}

// closeConn closes the connection if one has been established. Safe to
// call from any goroutine, including concurrently with itself and with
// setConn — Cancel and Close both call this directly.
func (rec *record) closeConn() {
	rec.connMu.Lock()
	c := rec.conn
	rec.connMu.Unlock()
	if c != nil {
		c.Close()
	}
}

func (rec *record) serializePreamble() []byte {
	opts := wire.SerializeOptions{
		Method:       rec.req.Method,
		Target:       rec.req.target(),
		Version:      wire.Version11,
		Host:         rec.req.host,
		Port:         rec.req.port,
		Secure:       rec.secure,
		UserAgent:    rec.req.Options.UserAgent,
		Referer:      rec.req.Options.Referer,
		ExtraHeaders: rec.req.Options.ExtraHeaders,
	}
	return wire.Serialize(opts)
}

// terminal reports whether rec has already reached a stage the data
// worker should stop delivering events for (completed or failed). Once
// either happens, the rendezvous has published its final stage and must
// not be overwritten by a stray event from a goroutine racing the
// connection close that followed.
func (rec *record) terminal() bool {
	return rec.failed || rec.state == stateContentReceived
}

func (rec *record) fail(err error) {
	if rec.terminal() {
		return
	}
	rec.failed = true
	rec.err = err
	rec.rv.publishError(err)
	// RequestCompleted is the one event spec §6 obliges the core to
	// deliver; completeBody fires it with success=true, this is its
	// success=false counterpart for every DISCONNECTED/CANCELLED/error
	// termination (spec §4.5).
	rec.req.notify(completedEvent(rec.id, false))
	if rec.onDone != nil {
		rec.onDone()
	}
}

// finish is called once, by completeBody, when the body stage is
// published successfully.
func (rec *record) finish() {
	if rec.onDone != nil {
		rec.onDone()
	}
}
