package extract

import (
	"github.com/google/gopacket"
	log "github.com/sirupsen/logrus"

	"vdifcap/internal/capture"
	"vdifcap/internal/flow"
	"vdifcap/internal/stats"
	"vdifcap/pkg/types"
)

// Extractor orchestrates the capture-to-frame pipeline: capture reader →
// reassembly adapter → protocol demultiplexer → flow aggregator. The
// aggregator is owned by the caller and passed in explicitly; the extractor
// keeps no global state.
type Extractor struct {
	reader      *capture.Reader
	reassembler *capture.Reassembler
	demuxer     *capture.Demuxer
	aggregator  *flow.Aggregator
	stats       *stats.Collector
}

// demuxResult holds an in-window classification until the output path is
// chosen at the end of the walk.
type demuxResult struct {
	index int
	d     capture.Demuxed
}

// NewExtractor creates an extractor over one capture file.
func NewExtractor(pcapPath string, window types.Window, reassembly bool,
	aggregator *flow.Aggregator, collector *stats.Collector) *Extractor {
	return &Extractor{
		reader:      capture.NewReader(pcapPath, window),
		reassembler: capture.NewReassembler(reassembly),
		demuxer:     capture.NewDemuxer(),
		aggregator:  aggregator,
		stats:       collector,
	}
}

// Run consumes the capture once, then emits recovered payloads through the
// aggregator. When reassembly is enabled and completed at least one IPv4
// datagram, only the reassembled datagrams are emitted (indexed by completion
// ordinal) and the demultiplexer results are discarded; otherwise every
// in-window record that classified to a UDP payload is emitted under its
// capture index.
func (e *Extractor) Run() error {
	var pending []demuxResult

	err := e.reader.Walk(func(rec types.CaptureRecord, pkt gopacket.Packet) error {
		e.stats.RecordRead(rec.InWindow)
		e.reassembler.Feed(rec, pkt)

		if !rec.InWindow {
			return nil
		}
		d := e.demuxer.Classify(rec, pkt)
		if d.Recovered() {
			pending = append(pending, demuxResult{index: rec.Index, d: d})
		} else {
			e.stats.RecordSkipped()
			log.WithFields(log.Fields{
				"record": rec.Index,
				"kind":   d.Kind.String(),
			}).Debug("Record skipped")
		}
		return nil
	})
	if err != nil {
		return err
	}

	datagrams := e.reassembler.Datagrams()
	if e.reassembler.Enabled() && len(datagrams) > 0 {
		log.WithField("datagrams", len(datagrams)).Info("Using reassembled IPv4 datagrams")
		for i, dgram := range datagrams {
			e.stats.RecordReassembled()
			if !dgram.IsUDP() {
				continue
			}
			if err := e.aggregator.Record(dgram.SrcIP, dgram.DstIP, dgram.Payload, i); err != nil {
				return err
			}
			e.stats.RecordPayload("reassembled", len(dgram.Payload))
		}
	} else {
		log.WithField("payloads", len(pending)).Info("Using per-record demultiplexed payloads")
		for _, p := range pending {
			if err := e.aggregator.Record(p.d.SrcIP, p.d.DstIP, p.d.Payload, p.index); err != nil {
				return err
			}
			e.stats.RecordPayload(p.d.Kind.String(), len(p.d.Payload))
		}
	}

	if err := e.aggregator.Flush(); err != nil {
		return err
	}
	e.stats.SetOutputTotals(e.aggregator.Flows(), e.aggregator.FilesWritten())
	return nil
}
