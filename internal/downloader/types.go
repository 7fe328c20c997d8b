package downloader

import (
	"errors"
	"io"

	"github.com/tanq16/baku/internal/utils"
)

var ErrInvalidArgument = errors.New("url and output path are required")
var ErrInvalidWorkerCount = errors.New("worker count must be positive")
var ErrSizeUnavailable = errors.New("remote size unavailable")
var ErrRangeRequestFailed = errors.New("range request failed")

// Job describes one download: a single URL streamed into a single local file.
// It is immutable once handed to a Coordinator.
type Job struct {
	ID               string
	URL              string
	OutputPath       string
	Workers          int
	LegacyRanges     bool
	HTTPClientConfig utils.HTTPClientConfig
}

// ByteRange is a half-open [Start, End) span of the remote file. Plans keep
// ranges ordered by Start with range[0].Start == 0 and the last End equal to
// the total size; legacy plans inflate every End by the size remainder, so
// interior ranges overlap their successor by that many bytes.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Size() int64 {
	return r.End - r.Start
}

type WorkerStatus int32

const (
	StatusCreated WorkerStatus = iota
	StatusConnecting
	StatusStreaming
	StatusDone
	StatusFailed
)

func (s WorkerStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusConnecting:
		return "connecting"
	case StatusStreaming:
		return "streaming"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

func (s WorkerStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// JobStatus is the aggregate over all workers. A job with a failed worker
// stays InProgress until every sibling has also reached a terminal state.
type JobStatus int

const (
	InProgress JobStatus = iota
	AllDone
	PartialFailure
)

func (s JobStatus) String() string {
	switch s {
	case AllDone:
		return "all done"
	case PartialFailure:
		return "partial failure"
	}
	return "in progress"
}

// WorkerSnapshot is a point-in-time view of one worker for pollers.
type WorkerSnapshot struct {
	ID      int
	Range   ByteRange
	Written int64
	Status  WorkerStatus
	Err     error
}

// writeAtCloser is what a worker writes through; *os.File in production,
// bounds-checking doubles in tests.
type writeAtCloser interface {
	io.WriterAt
	io.Closer
}
