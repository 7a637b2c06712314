package capture

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/ip4defrag"
	"github.com/google/gopacket/layers"
	log "github.com/sirupsen/logrus"

	"vdifcap/pkg/types"
)

// Reassembler adapts the gopacket IPv4 defragmenter with strict semantics:
// a datagram is surfaced only once every fragment has been seen, and
// identifiers whose fragments never all arrive are dropped without output.
// When disabled it is a no-op passthrough and every record falls through to
// the demultiplexer.
type Reassembler struct {
	enabled   bool
	defrag    *ip4defrag.IPv4Defragmenter
	datagrams []types.ReassembledDatagram
}

// NewReassembler creates a reassembly adapter. With enabled=false, Feed does
// nothing and Datagrams always returns an empty set.
func NewReassembler(enabled bool) *Reassembler {
	r := &Reassembler{enabled: enabled}
	if enabled {
		r.defrag = ip4defrag.NewIPv4Defragmenter()
	}
	return r
}

// Enabled reports whether reassembly is active for this run.
func (r *Reassembler) Enabled() bool {
	return r.enabled
}

// Feed offers one decoded capture record to the defragmenter. Records without
// an IPv4 layer are ignored. Completed datagrams are collected in completion
// order, which is not necessarily capture order.
func (r *Reassembler) Feed(rec types.CaptureRecord, pkt gopacket.Packet) {
	if !r.enabled {
		return
	}

	ip4Layer := pkt.Layer(layers.LayerTypeIPv4)
	if ip4Layer == nil {
		return
	}
	ip4 := ip4Layer.(*layers.IPv4)

	// Unfragmented datagrams never enter reassembly; they stay on the
	// demultiplexer path.
	if ip4.Flags&layers.IPv4MoreFragments == 0 && ip4.FragOffset == 0 {
		return
	}

	out, err := r.defrag.DefragIPv4(ip4)
	if err != nil {
		log.WithError(err).WithField("record", rec.Index).Warn("IPv4 defragmentation failed, dropping record")
		return
	}
	if out == nil {
		// Fragment held; the datagram is not complete yet.
		return
	}

	dgram := types.ReassembledDatagram{
		SrcIP:    append(net.IP(nil), out.SrcIP...),
		DstIP:    append(net.IP(nil), out.DstIP...),
		Protocol: out.Protocol.String(),
	}

	if out.Protocol == layers.IPProtocolUDP {
		udp := &layers.UDP{}
		if err := udp.DecodeFromBytes(out.Payload, gopacket.NilDecodeFeedback); err != nil {
			log.WithError(err).WithField("record", rec.Index).Warn("UDP decode failed on reassembled datagram")
			return
		}
		dgram.Protocol = "UDP"
		dgram.Payload = append([]byte(nil), udp.Payload...)
	}

	r.datagrams = append(r.datagrams, dgram)
	log.WithFields(log.Fields{
		"record":   rec.Index,
		"src":      dgram.SrcIP,
		"dst":      dgram.DstIP,
		"protocol": dgram.Protocol,
	}).Debug("IPv4 datagram completed")
}

// Datagrams returns the completed datagrams collected so far. Meaningful once
// the capture has been fully consumed; fragments still held for incomplete
// identifiers are never included.
func (r *Reassembler) Datagrams() []types.ReassembledDatagram {
	return r.datagrams
}
