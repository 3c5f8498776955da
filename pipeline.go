package asynchttp

import (
	"strconv"

	httperrors "github.com/nczempin/asynchttp/errors"
	"github.com/nczempin/asynchttp/method"
	"github.com/nczempin/asynchttp/wire"
)

// feed drives rec through as many of the Receive/Status/Headers/Body
// phases of spec §4.6 as the newly arrived chunk permits, publishing to
// rec.rv as each phase completes. It is called from the data worker's
// single dispatch loop each time a READ event carries bytes for rec, so
// it never blocks.
func feed(rec *record, chunk []byte) error {
	rec.recvBuf.Write(chunk)

	if rec.state == stateConnected {
		if err := parseStatusLine(rec); err != nil {
			return err
		}
	}
	if rec.state == stateStatusReceived {
		if err := parseHeaders(rec); err != nil {
			return err
		}
	}
	if rec.state == stateHeadersReceived {
		if err := consumeBody(rec); err != nil {
			return err
		}
	}
	return nil
}

func parseStatusLine(rec *record) error {
	line, rest, err := wire.ExtractLine(rec.recvBuf.Bytes())
	if err == wire.ErrIncomplete {
		return nil
	}
	status, err := wire.ParseStatusLine(line)
	if err == wire.ErrIncomplete {
		// A full line arrived but wasn't a well-formed status line; more
		// bytes won't fix that.
		return httperrors.New(httperrors.ProtocolError, "malformed status line")
	}
	rec.recvBuf.Reset()
	rec.recvBuf.Write(rest)
	rec.state = stateStatusReceived
	rec.statusCode = status.Code
	rec.rv.publishStatus(status)
	rec.req.notify(statusEvent(rec.id, status))

	if rec.req.Options.StopOnError && wire.IsError(status.Code) {
		return completeBody(rec)
	}
	return nil
}

func parseHeaders(rec *record) error {
	for {
		line, rest, err := wire.ExtractLine(rec.recvBuf.Bytes())
		if err == wire.ErrIncomplete {
			return nil
		}
		done := wire.ParseHeaderLine(line, rec.respHeaders)
		rec.recvBuf.Reset()
		rec.recvBuf.Write(rest)
		if done {
			return finishHeaders(rec)
		}
	}
}

func finishHeaders(rec *record) error {
	if v, ok := rec.respHeaders.Get("Content-Length"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return httperrors.Wrapf(httperrors.ProtocolError, err, "parsing Content-Length %q", v)
		}
		rec.contentLength = n
	}
	if rec.respHeaders.HasValueFold("Transfer-Encoding", "chunked") {
		rec.chunked = true
	}
	if rec.respHeaders.HasValueFold("Content-Encoding", "gzip") {
		rec.gzipped = true
		rec.sink = newDecompressSink()
	}

	rec.state = stateHeadersReceived
	rec.rv.publishHeaders(rec.respHeaders)
	rec.req.notify(headersEvent(rec.id))

	if rec.req.Method.Equal(method.HEAD) || rec.statusCode == 204 {
		return completeBody(rec)
	}
	return nil
}

// consumeBody drains whatever of the body has arrived so far. Chunked
// transfer-encoding is recognized but its framing is not decoded — spec
// §7 names this the protocol error the engine raises rather than silently
// misinterpreting the stream.
func consumeBody(rec *record) error {
	if rec.chunked {
		return httperrors.New(httperrors.ProtocolError, "chunked transfer-encoding is not supported")
	}

	avail := rec.recvBuf.Bytes()
	if rec.contentLength >= 0 {
		remaining := rec.contentLength - rec.bytesRead
		if int64(len(avail)) > remaining {
			avail = avail[:remaining]
		}
	}
	if len(avail) > 0 {
		if err := appendBody(rec, avail); err != nil {
			return err
		}
		rec.bytesRead += int64(len(avail))
		rec.recvBuf.Next(len(avail))
		rec.req.notify(downloadProgressEvent(rec.id, rec.bytesRead, rec.contentLength))
	}

	if rec.contentLength >= 0 && rec.bytesRead >= rec.contentLength {
		return completeBody(rec)
	}
	return nil
}

func appendBody(rec *record, p []byte) error {
	if !rec.gzipped {
		rec.body.Write(p)
		return nil
	}
	return rec.sink.write(p)
}

// finalizeUnknownLength is invoked by the data worker when the peer
// closes the connection after headers are complete. Per spec §4.6/§8
// property 5, a close while bytesRead hasn't reached a known
// contentLength is "unexpected end of data"; with no Content-Length at
// all, the close itself marks the end of a well-formed body
// (read-until-close).
func finalizeUnknownLength(rec *record) error {
	if rec.contentLength >= 0 && rec.bytesRead != rec.contentLength {
		return httperrors.New(httperrors.NetworkError, "unexpected end of data")
	}
	return completeBody(rec)
}

func completeBody(rec *record) error {
	body := rec.body.Bytes()
	if rec.gzipped {
		decoded, err := rec.sink.close()
		if err != nil {
			return err
		}
		body = decoded
	}
	if rec.req.Options.DiscardData {
		body = nil
	}
	rec.state = stateContentReceived
	rec.rv.publishBody(body)
	rec.req.notify(completedEvent(rec.id, true))
	rec.finish()
	return nil
}
