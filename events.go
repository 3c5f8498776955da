package asynchttp

import (
	"github.com/nczempin/asynchttp/observer"
	"github.com/nczempin/asynchttp/wire"
)

func statusEvent(id uint64, status wire.Status) observer.Event {
	return observer.Event{
		Kind:           observer.HttpStatus,
		Id:             id,
		HttpStatusCode: status.Code,
		HttpStatusText: status.Text,
	}
}

func headersEvent(id uint64) observer.Event {
	return observer.Event{Kind: observer.HttpHeaders, Id: id}
}

func downloadProgressEvent(id uint64, numBytes, totalBytes int64) observer.Event {
	return observer.Event{
		Kind:       observer.DownloadProgress,
		Id:         id,
		NumBytes:   numBytes,
		TotalBytes: totalBytes,
	}
}

func completedEvent(id uint64, success bool) observer.Event {
	return observer.Event{Kind: observer.RequestCompleted, Id: id, Success: success}
}

func hostnameResolvedEvent(id uint64, hostname string) observer.Event {
	return observer.Event{Kind: observer.HostnameResolved, Id: id, HostName: hostname}
}

func connectionOpenedEvent(id uint64) observer.Event {
	return observer.Event{Kind: observer.ConnectionOpened, Id: id}
}

func bytesWrittenEvent(id uint64, numBytes int64) observer.Event {
	return observer.Event{Kind: observer.BytesWritten, Id: id, NumBytes: numBytes}
}
