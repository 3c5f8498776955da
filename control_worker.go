package asynchttp

import (
	"context"
	"crypto/tls"

	"golang.org/x/sync/semaphore"

	httperrors "github.com/nczempin/asynchttp/errors"
	"github.com/nczempin/asynchttp/transport"
)

// controlWorker implements spec §4.4: resolve and connect, off the data
// path, so a slow DNS lookup or TCP handshake never blocks a connection
// that's already streaming. Concurrency is bounded by sem, the "control
// semaphore" of spec §5.
type controlWorker struct {
	queue     chan *record
	sem       *semaphore.Weighted
	tlsConfig *tls.Config
	handoff   chan<- *record
}

func newControlWorker(maxConcurrent int64, tlsConfig *tls.Config, handoff chan<- *record) *controlWorker {
	return &controlWorker{
		queue:     make(chan *record, 256),
		sem:       semaphore.NewWeighted(maxConcurrent),
		tlsConfig: tlsConfig,
		handoff:   handoff,
	}
}

// run spawns one goroutine per queued record, each gated by sem, so the
// control worker's own dispatch loop never blocks on a single slow
// connect.
func (w *controlWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-w.queue:
			if err := w.sem.Acquire(ctx, 1); err != nil {
				return
			}
			go w.connect(ctx, rec)
		}
	}
}

func (w *controlWorker) connect(ctx context.Context, rec *record) {
	defer w.sem.Release(1)

	if !rec.rv.hasOwner() {
		return
	}
	if rec.rv.cancelRequested.Load() {
		rec.fail(httperrors.New(httperrors.Canceled, "request canceled before connect"))
		return
	}

	rec.secure = rec.req.secure
	rec.req.notify(hostnameResolvedEvent(rec.id, rec.req.host))

	conn, err := transport.Dial(ctx, rec.req.host, rec.req.port, rec.secure, w.tlsConfig)
	if err != nil {
		rec.fail(err)
		return
	}
	rec.setConn(conn)
	rec.req.notify(connectionOpenedEvent(rec.id))

	select {
	case w.handoff <- rec:
	case <-ctx.Done():
		conn.Close()
	}
}
