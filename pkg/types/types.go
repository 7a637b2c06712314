package types

import (
	"net"
	"time"
)

// LinkKind classifies the link layer of a capture record. The set is closed:
// anything that is not loopback/null or Ethernet is LinkKindUnknown and is
// skipped by the demultiplexer.
type LinkKind int

const (
	LinkKindUnknown LinkKind = iota
	LinkKindLoopback
	LinkKindEthernet
)

func (k LinkKind) String() string {
	switch k {
	case LinkKindLoopback:
		return "loopback/null"
	case LinkKindEthernet:
		return "ethernet"
	default:
		return "unrecognized"
	}
}

// CaptureRecord is one raw link-layer frame read from a capture file.
// Index is 0-based in read order. InWindow reports whether the record falls
// inside the configured extraction window; out-of-window records are still
// delivered because the capture container is sequential-only.
type CaptureRecord struct {
	Index     int
	Kind      LinkKind
	Data      []byte
	Timestamp time.Time
	InWindow  bool
}

// ReassembledDatagram is an IPv4 datagram the defragmenter judged complete.
// Payload is set only when the inner protocol is UDP.
type ReassembledDatagram struct {
	SrcIP    net.IP
	DstIP    net.IP
	Protocol string
	Payload  []byte
}

// IsUDP reports whether the datagram carries a UDP payload.
func (d *ReassembledDatagram) IsUDP() bool {
	return d.Protocol == "UDP"
}

// FlowKey identifies a flow by its endpoint address pair.
type FlowKey struct {
	Src string
	Dst string
}

// NewFlowKey builds a FlowKey from endpoint IPs. Nil addresses map to the
// empty string, which the aggregator treats as "no demux info" (legacy
// file naming without addresses).
func NewFlowKey(src, dst net.IP) FlowKey {
	key := FlowKey{}
	if src != nil {
		key.Src = src.String()
	}
	if dst != nil {
		key.Dst = dst.String()
	}
	return key
}

// HasEndpoints reports whether both addresses of the key are known.
func (k FlowKey) HasEndpoints() bool {
	return k.Src != "" && k.Dst != ""
}

// Window restricts which capture records are eligible for extraction.
// Start is the first eligible 0-based record index; Count is the number of
// eligible records, with 0 meaning "to end of capture".
type Window struct {
	Start int
	Count int
}

// Unbounded reports whether the window covers the whole capture.
func (w Window) Unbounded() bool {
	return w.Start == 0 && w.Count == 0
}

// Contains reports whether record index i falls inside the window.
func (w Window) Contains(i int) bool {
	if i < w.Start {
		return false
	}
	if w.Count == 0 {
		return true
	}
	return i < w.Start+w.Count
}

// End returns the first index past the window, or 0 for "no upper bound".
func (w Window) End() int {
	if w.Count == 0 {
		return 0
	}
	return w.Start + w.Count
}

// OutputPolicy selects how recovered payloads are flushed to disk.
type OutputPolicy int

const (
	// PolicyPerRecord writes a file after every recovered payload. Each file
	// holds the flow's cumulative bytes as of that record.
	PolicyPerRecord OutputPolicy = iota
	// PolicySingleFile buffers per flow and writes one file per flow at
	// end of run.
	PolicySingleFile
)

func (p OutputPolicy) String() string {
	switch p {
	case PolicySingleFile:
		return "single-file"
	default:
		return "per-record"
	}
}
