package downloader

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/tanq16/baku/internal/utils"
)

// Coordinator owns one download job: it probes the remote size, carves the
// byte ranges, opens one file handle per worker, and launches the workers.
// Workers fail independently; the coordinator never cancels siblings.
type Coordinator struct {
	job       Job
	remote    *Remote
	dest      *DestFile
	workers   []*worker
	totalSize int64
	wg        sync.WaitGroup
	done      chan struct{}
}

func NewCoordinator(job Job) *Coordinator {
	return &Coordinator{
		job:  job,
		done: make(chan struct{}),
	}
}

// Start validates the job, sizes and pre-allocates the destination file and
// launches one goroutine per range. It returns once all workers are running;
// use Wait or Done to block until they finish. Wait and the status accessors
// are only meaningful after Start returns nil.
func (c *Coordinator) Start() error {
	log := utils.GetLogger("coordinator")
	if c.job.URL == "" || c.job.OutputPath == "" {
		return fmt.Errorf("%w: missing url or output path", ErrInvalidArgument)
	}
	if parsed, err := url.Parse(c.job.URL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidArgument, parsed.Scheme)
	}
	if c.job.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkerCount, c.job.Workers)
	}
	clientConfig := c.job.HTTPClientConfig
	clientConfig.HighThreadMode = c.job.Workers > 5
	c.remote = NewRemote(c.job.URL, utils.NewBakuHTTPClient(clientConfig))

	size, err := c.remote.FetchSize()
	if err != nil {
		return fmt.Errorf("error determining download size: %v", err)
	}
	c.totalSize = size
	log.Debug().Str("jobId", c.job.ID).Int64("size", size).Int("workers", c.job.Workers).Msg("Remote size resolved")

	outputPath, err := ResolveOutputPath(c.job.OutputPath, c.job.URL)
	if err != nil {
		return fmt.Errorf("error resolving output path: %v", err)
	}
	c.dest, err = CreateDestFile(outputPath, size)
	if err != nil {
		return fmt.Errorf("error preparing output file: %v", err)
	}

	ranges, err := PlanRanges(size, c.job.Workers, c.job.LegacyRanges)
	if err != nil {
		c.dest.Close()
		return err
	}
	c.workers = make([]*worker, len(ranges))
	for i, rng := range ranges {
		handle, err := c.dest.OpenHandle()
		if err != nil {
			for _, w := range c.workers[:i] {
				w.out.Close()
			}
			c.dest.Close()
			return fmt.Errorf("error opening output handle: %v", err)
		}
		c.workers[i] = &worker{
			id:     i,
			jobID:  c.job.ID,
			rng:    rng,
			remote: c.remote,
			out:    handle,
		}
	}
	c.dest.Close()
	log.Debug().Str("jobId", c.job.ID).Str("output", c.dest.Path).Int("ranges", len(ranges)).Msg("Launching workers")
	for _, w := range c.workers {
		c.wg.Add(1)
		go w.run(&c.wg)
	}
	go func() {
		c.wg.Wait()
		close(c.done)
	}()
	return nil
}

// Wait blocks until every worker has reached a terminal state.
func (c *Coordinator) Wait() {
	<-c.done
}

// Done exposes completion for select loops, such as display tickers.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// BytesWritten sums the live per-worker counters. With legacy ranges the
// sum can exceed TotalSize because overlapping spans are written twice.
func (c *Coordinator) BytesWritten() int64 {
	var total int64
	for _, w := range c.workers {
		total += w.written.Load()
	}
	return total
}

func (c *Coordinator) TotalSize() int64 {
	return c.totalSize
}

func (c *Coordinator) OutputPath() string {
	if c.dest == nil {
		return ""
	}
	return c.dest.Path
}

// Progress formats the summed counters against the total, without clamping.
// A zero-byte download reports complete immediately.
func (c *Coordinator) Progress() string {
	if c.totalSize <= 0 {
		return "100.00 %"
	}
	return fmt.Sprintf("%.2f %%", float64(c.BytesWritten())*100/float64(c.totalSize))
}

func (c *Coordinator) IsComplete() bool {
	return c.BytesWritten() >= c.totalSize
}

// Status reports InProgress until every worker is terminal, then AllDone or
// PartialFailure depending on whether any worker failed.
func (c *Coordinator) Status() JobStatus {
	failed := false
	for _, w := range c.workers {
		st := WorkerStatus(w.status.Load())
		if !st.Terminal() {
			return InProgress
		}
		if st == StatusFailed {
			failed = true
		}
	}
	if failed {
		return PartialFailure
	}
	return AllDone
}

// Snapshot copies the current per-worker state for display and inspection.
func (c *Coordinator) Snapshot() []WorkerSnapshot {
	snaps := make([]WorkerSnapshot, len(c.workers))
	for i, w := range c.workers {
		snaps[i] = w.snapshot()
	}
	return snaps
}
