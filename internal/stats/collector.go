package stats

import (
	"sync"
	"time"
)

// Collector aggregates operational counters for an extraction or replay run.
type Collector struct {
	StartTime time.Time
	EndTime   time.Time

	// Extraction side.
	RecordsRead          uint64
	RecordsInWindow      uint64
	ReassembledDatagrams uint64
	PayloadsByKind       map[string]uint64
	RecordsSkipped       uint64
	BytesRecovered       uint64
	Flows                uint64
	FilesWritten         uint64

	// Replay side.
	FramesSent uint64
	BytesSent  uint64

	mu sync.Mutex
}

// NewCollector creates a new statistics collector.
func NewCollector() *Collector {
	return &Collector{
		StartTime:      time.Now(),
		PayloadsByKind: make(map[string]uint64),
	}
}

// RecordRead counts one capture record, noting whether it fell in the window.
func (c *Collector) RecordRead(inWindow bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RecordsRead++
	if inWindow {
		c.RecordsInWindow++
	}
}

// RecordReassembled counts one completed IPv4 datagram.
func (c *Collector) RecordReassembled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ReassembledDatagrams++
}

// RecordPayload counts one recovered UDP payload by demux kind.
func (c *Collector) RecordPayload(kind string, nbytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PayloadsByKind[kind]++
	c.BytesRecovered += uint64(nbytes)
}

// RecordSkipped counts one record outside the understood shapes.
func (c *Collector) RecordSkipped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RecordsSkipped++
}

// SetOutputTotals records the final flow and file counts.
func (c *Collector) SetOutputTotals(flows, filesWritten int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Flows = uint64(flows)
	c.FilesWritten = uint64(filesWritten)
}

// RecordFrameSent counts one transmitted VDIF frame.
func (c *Collector) RecordFrameSent(nbytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FramesSent++
	c.BytesSent += uint64(nbytes)
}

// Finish marks the end of the collection period.
func (c *Collector) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.EndTime = time.Now()
}

// Duration returns the elapsed time.
func (c *Collector) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.EndTime.IsZero() {
		return time.Since(c.StartTime)
	}
	return c.EndTime.Sub(c.StartTime)
}

// Snapshot returns a copy of the current counters (thread-safe).
func (c *Collector) Snapshot() *Collector {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &Collector{
		StartTime:            c.StartTime,
		EndTime:              c.EndTime,
		RecordsRead:          c.RecordsRead,
		RecordsInWindow:      c.RecordsInWindow,
		ReassembledDatagrams: c.ReassembledDatagrams,
		PayloadsByKind:       make(map[string]uint64),
		RecordsSkipped:       c.RecordsSkipped,
		BytesRecovered:       c.BytesRecovered,
		Flows:                c.Flows,
		FilesWritten:         c.FilesWritten,
		FramesSent:           c.FramesSent,
		BytesSent:            c.BytesSent,
	}
	for k, v := range c.PayloadsByKind {
		snap.PayloadsByKind[k] = v
	}
	return snap
}
