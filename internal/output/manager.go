package output

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tanq16/baku/internal/utils"
)

type workerRow struct {
	id      int
	status  string
	written int64
	total   int64
	err     error
}

type ErrorReport struct {
	Worker int
	Error  error
	Time   time.Time
}

// Manager renders one download job as a live per-worker table: a header
// line, one row per worker, and an aggregate footer. Feeders push state in;
// a ticker goroutine repaints in place.
type Manager struct {
	mutex       sync.RWMutex
	jobLabel    string
	totalSize   int64
	rows        []*workerRow
	errors      []ErrorReport
	progress    string
	written     int64
	startTime   time.Time
	numLines    int
	doneCh      chan struct{} // Channel to signal stopping the display
	displayTick time.Duration // Interval between display updates
	displayWg   sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

// SetJob registers the job this display tracks, one row per worker. The
// per-row totals size each progress bar independently.
func (m *Manager) SetJob(label string, totalSize int64, workerSizes []int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobLabel = label
	m.totalSize = totalSize
	m.startTime = time.Now()
	m.rows = make([]*workerRow, len(workerSizes))
	for i, size := range workerSizes {
		m.rows[i] = &workerRow{id: i, status: "created", total: size}
	}
}

func (m *Manager) UpdateWorker(id int, status string, written int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if id < 0 || id >= len(m.rows) {
		return
	}
	m.rows[id].status = status
	m.rows[id].written = written
}

func (m *Manager) ReportWorkerError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if id < 0 || id >= len(m.rows) || err == nil {
		return
	}
	if m.rows[id].err != nil {
		return
	}
	m.rows[id].err = err
	m.errors = append(m.errors, ErrorReport{Worker: id, Error: err, Time: time.Now()})
}

// SetAggregate stores the footer values, already formatted upstream.
func (m *Manager) SetAggregate(progress string, written int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.progress = progress
	m.written = written
}

func (m *Manager) statusIndicator(status string) string {
	switch status {
	case "done":
		return successStyle.Render(StyleSymbols["pass"])
	case "failed":
		return errorStyle.Render(StyleSymbols["fail"])
	case "streaming":
		return pendingStyle.Render(StyleSymbols["pending"])
	case "connecting":
		return infoStyle.Render(StyleSymbols["bullet"])
	default:
		return debugStyle.Render(StyleSymbols["dot"])
	}
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.numLines > 0 {
		fmt.Printf("\033[%dA\033[J", m.numLines)
	}
	if len(m.rows) == 0 {
		m.numLines = 0
		return
	}
	availableLines := getTerminalHeight() - 3 // Leave some buffer for prompt
	lineCount := 0

	fmt.Printf("%s%s %s\n", strings.Repeat(" ", 2), headerStyle.Render(m.jobLabel), debugStyle.Render(utils.FormatBytes(uint64(m.totalSize))))
	lineCount++

	// Trim worker rows when the terminal is shorter than the table
	rows := m.rows
	hidden := 0
	maxRows := availableLines - 2
	if maxRows > 0 && len(rows) > maxRows {
		hidden = len(rows) - maxRows
		rows = rows[:maxRows]
	}
	for _, row := range rows {
		indicator := m.statusIndicator(row.status)
		label := streamStyle.Render(fmt.Sprintf("worker %d", row.id))
		var detail string
		if row.err != nil {
			detail = errorStyle.Render(row.err.Error())
		} else {
			detail = fmt.Sprintf("%s %s", PrintProgressBar(row.written, row.total, 30), debugStyle.Render(utils.FormatBytes(uint64(row.written))))
		}
		fmt.Printf("%s%s %s %s\n", strings.Repeat(" ", 2), indicator, label, detail)
		lineCount++
	}
	if hidden > 0 {
		fmt.Printf("%s%s\n", strings.Repeat(" ", 2), debugStyle.Render(fmt.Sprintf("... %d more workers", hidden)))
		lineCount++
	}

	elapsed := time.Since(m.startTime).Round(time.Second)
	aggregate := fmt.Sprintf("%s %s %s %s %s", elapsed.String(), StyleSymbols["bullet"], m.progress, StyleSymbols["bullet"], utils.FormatSpeed(m.written, elapsed.Seconds()))
	fmt.Printf("%s%s\n", strings.Repeat(" ", 2), debugStyle.Render(aggregate))
	lineCount++
	m.numLines = lineCount
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				m.ShowSummary()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func (m *Manager) displayErrors() {
	if len(m.errors) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(strings.Repeat(" ", 2) + errorStyle.Bold(true).Render("Errors:"))
	for i, report := range m.errors {
		fmt.Printf("%s%s %s %s\n",
			strings.Repeat(" ", 2+2),
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			debugStyle.Render(fmt.Sprintf("[%s]", report.Time.Format("15:04:05"))),
			errorStyle.Render(fmt.Sprintf("worker %d", report.Worker)))
		for _, line := range wrapText(report.Error.Error(), 2+4) {
			fmt.Printf("%s%s\n", strings.Repeat(" ", 2+4), errorStyle.Render(line))
		}
	}
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	fmt.Println()
	var done, failed int
	for _, row := range m.rows {
		switch row.status {
		case "done":
			done++
		case "failed":
			failed++
		}
	}
	fmt.Println(strings.Repeat(" ", 2) + success2Style.Render(fmt.Sprintf("Completed %d of %d ranges", done, len(m.rows))))
	if failed > 0 {
		fmt.Println(strings.Repeat(" ", 2) + errorStyle.Render(fmt.Sprintf("Failed %d of %d ranges", failed, len(m.rows))))
	}
	m.displayErrors()
	fmt.Println()
}
