package downloader

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/tanq16/baku/internal/utils"
)

// worker downloads one byte range into its own file handle. The written
// counter and status each have exactly one writer (the worker goroutine)
// and are read by pollers through atomics; err is written before the
// Failed status is stored, so observers of a terminal status see it.
type worker struct {
	id      int
	jobID   string
	rng     ByteRange
	remote  *Remote
	out     writeAtCloser
	written atomic.Int64
	status  atomic.Int32
	err     error
}

func (w *worker) fail(err error) {
	w.err = err
	w.status.Store(int32(StatusFailed))
}

func (w *worker) snapshot() WorkerSnapshot {
	st := WorkerStatus(w.status.Load())
	snap := WorkerSnapshot{
		ID:      w.id,
		Range:   w.rng,
		Written: w.written.Load(),
		Status:  st,
	}
	if st == StatusFailed {
		snap.Err = w.err
	}
	return snap
}

// run streams the assigned range to the destination. There are no retries:
// a failure leaves the worker in Failed and the siblings untouched.
func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	defer w.out.Close()
	log := utils.GetLogger("worker")
	if w.rng.Size() <= 0 {
		w.status.Store(int32(StatusDone))
		return
	}
	w.status.Store(int32(StatusConnecting))
	stream, err := w.remote.OpenRange(w.rng.Start, w.rng.End-1)
	if err != nil {
		w.fail(err)
		log.Error().Str("jobId", w.jobID).Int("worker", w.id).Err(err).Msg("Range request failed")
		return
	}
	defer stream.Close()
	w.status.Store(int32(StatusStreaming))
	log.Debug().Str("jobId", w.jobID).Int("worker", w.id).Int64("start", w.rng.Start).Int64("end", w.rng.End).Msg("Streaming range")

	buffer := make([]byte, utils.DefaultChunkSize)
	offset := w.rng.Start
	for {
		bytesRead, readErr := stream.Read(buffer)
		if bytesRead > 0 {
			// advance by bytes actually read, never the buffer size
			if _, writeErr := w.out.WriteAt(buffer[:bytesRead], offset); writeErr != nil {
				w.fail(writeErr)
				log.Error().Str("jobId", w.jobID).Int("worker", w.id).Err(writeErr).Msg("Write failed")
				return
			}
			offset += int64(bytesRead)
			w.written.Add(int64(bytesRead))
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			w.fail(readErr)
			log.Error().Str("jobId", w.jobID).Int("worker", w.id).Err(readErr).Msg("Stream read failed")
			return
		}
	}
	w.status.Store(int32(StatusDone))
	log.Debug().Str("jobId", w.jobID).Int("worker", w.id).Int64("bytes", w.written.Load()).Msg("Range complete")
}
