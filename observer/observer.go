// Package observer defines the event kinds and payload an Observer
// receives as a request progresses through the session engine (spec §6).
// The transport used to deliver these events to a caller-owned endpoint is
// out of scope; Observer is the integration point the engine calls into.
package observer

// Kind identifies the type of a progress or lifecycle event.
type Kind int

const (
	HostnameResolved Kind = iota
	ConnectionOpened
	UploadProgress
	ResponseStarted
	DownloadProgress
	BytesWritten
	RequestCompleted
	DebugMessage
	CertificateError
	HttpStatus
	HttpHeaders
)

func (k Kind) String() string {
	switch k {
	case HostnameResolved:
		return "HostnameResolved"
	case ConnectionOpened:
		return "ConnectionOpened"
	case UploadProgress:
		return "UploadProgress"
	case ResponseStarted:
		return "ResponseStarted"
	case DownloadProgress:
		return "DownloadProgress"
	case BytesWritten:
		return "BytesWritten"
	case RequestCompleted:
		return "RequestCompleted"
	case DebugMessage:
		return "DebugMessage"
	case CertificateError:
		return "CertificateError"
	case HttpStatus:
		return "HttpStatus"
	case HttpHeaders:
		return "HttpHeaders"
	default:
		return "Unknown"
	}
}

// Event is one message delivered to an Observer. Only the fields relevant
// to Kind are populated; the rest are zero.
type Event struct {
	Kind Kind

	Id uint64

	HostName string

	NumBytes   int64
	TotalBytes int64

	Success bool

	DebugType    string
	DebugMessage string

	HttpStatusCode int
	HttpStatusText string

	SSLMessage string
}

// Observer receives request lifecycle events. RequestCompleted is the
// only event the engine is obliged to deliver (spec §6); everything else
// is a best-effort progress hook and an Observer must not block the
// caller it was delivered from for long — the engine delivers each event
// synchronously on the goroutine that produced it: the data worker's
// loop, a control worker connect goroutine, or a forwarder's start-up
// goroutine.
type Observer interface {
	Notify(Event)
}

// Func adapts a plain function to the Observer interface.
type Func func(Event)

func (f Func) Notify(e Event) { f(e) }
