package asynchttp

import (
	"bytes"
	"compress/gzip"
	"io"

	httperrors "github.com/nczempin/asynchttp/errors"
)

// decompressSink is a streaming gzip decompression sink (spec §4.6's
// "Body phase" decompression step). Compressed bytes arrive incrementally
// from the data worker as they're read off the wire; write bridges them
// into an io.Pipe that a background goroutine drains through gzip.Reader,
// accumulating plaintext into buf. The codec itself is the standard
// library's compress/gzip — implementing gzip is explicitly out of scope
// per spec §1, gzip being an external collaborator the client only needs
// to drive.
type decompressSink struct {
	pw   *io.PipeWriter
	done chan struct{}

	buf    bytes.Buffer
	errVal error
}

// newDecompressSink starts the background drain goroutine. Call write for
// each chunk read off the wire, then close to flush and collect the
// decompressed bytes (or the first decode error).
func newDecompressSink() *decompressSink {
	pr, pw := io.Pipe()
	s := &decompressSink{pw: pw, done: make(chan struct{})}

	go func() {
		defer close(s.done)
		gz, err := gzip.NewReader(pr)
		if err != nil {
			s.errVal = httperrors.Wrap(httperrors.ProtocolError, err, "initializing gzip decoder")
			io.Copy(io.Discard, pr)
			return
		}
		if _, err := io.Copy(&s.buf, gz); err != nil && err != io.ErrUnexpectedEOF {
			// io.ErrUnexpectedEOF means the compressed stream ended before
			// the gzip member's trailer; it is tolerated as the non-fatal
			// final-flush case and the plaintext decoded so far is kept.
			// Anything else is a genuine protocol error.
			s.errVal = httperrors.Wrap(httperrors.ProtocolError, err, "decoding gzip stream")
			// Stop accepting input so a later write fails instead of
			// blocking on a pipe nobody reads any more.
			pr.CloseWithError(s.errVal)
		}
	}()

	return s
}

// write feeds one chunk of compressed bytes read off the wire into the
// decoder. It blocks until the drain goroutine has consumed the chunk.
func (s *decompressSink) write(p []byte) error {
	_, err := s.pw.Write(p)
	if err != nil {
		return httperrors.Wrap(httperrors.ProtocolError, err, "writing to gzip pipe")
	}
	return nil
}

// close signals end-of-stream, waits for the drain goroutine to finish,
// and returns the accumulated plaintext and the first decode error, if
// any.
func (s *decompressSink) close() ([]byte, error) {
	s.pw.Close()
	<-s.done
	if s.errVal != nil {
		return s.buf.Bytes(), s.errVal
	}
	return s.buf.Bytes(), nil
}
