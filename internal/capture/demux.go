package capture

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	log "github.com/sirupsen/logrus"

	"vdifcap/pkg/types"
)

// Fixed loopback framing: 4-byte null link header, 20-byte IPv4 header with
// no options, 8-byte UDP header. The IPv4 source and destination addresses
// therefore sit at byte offsets 16 and 20 of the record.
const (
	loopbackSrcOffset     = 16
	loopbackDstOffset     = 20
	loopbackPayloadOffset = 4 + 20 + 8
)

// DemuxKind is the closed classification of one capture record.
type DemuxKind int

const (
	DemuxLoopback DemuxKind = iota
	DemuxEthernetUDP
	DemuxEthernetOther
	DemuxUnrecognized
)

func (k DemuxKind) String() string {
	switch k {
	case DemuxLoopback:
		return "loopback"
	case DemuxEthernetUDP:
		return "ethernet/udp"
	case DemuxEthernetOther:
		return "ethernet/other"
	default:
		return "unrecognized"
	}
}

// Demuxed is the outcome of classifying one capture record. SrcIP, DstIP and
// Payload are set only for DemuxLoopback and DemuxEthernetUDP.
type Demuxed struct {
	Kind    DemuxKind
	SrcIP   net.IP
	DstIP   net.IP
	Payload []byte
}

// Recovered reports whether classification yielded a UDP payload.
func (d Demuxed) Recovered() bool {
	return d.Kind == DemuxLoopback || d.Kind == DemuxEthernetUDP
}

// Demuxer strips link, IP, and UDP headers from capture records that the
// reassembly path did not resolve.
type Demuxer struct{}

// NewDemuxer creates a new protocol demultiplexer.
func NewDemuxer() *Demuxer {
	return &Demuxer{}
}

// Classify inspects one capture record and recovers the UDP payload and
// endpoint addresses when the record has one of the two understood shapes.
// Everything else is classified for skipping; classification never fails.
func (d *Demuxer) Classify(rec types.CaptureRecord, pkt gopacket.Packet) Demuxed {
	switch rec.Kind {
	case types.LinkKindLoopback:
		return d.classifyLoopback(rec)
	case types.LinkKindEthernet:
		return d.classifyEthernet(rec, pkt)
	default:
		// Link layers outside the two understood shapes are skipped by
		// design, not reported as errors.
		return Demuxed{Kind: DemuxUnrecognized}
	}
}

// classifyLoopback assumes the record is a full UDP-in-IPv4 datagram behind a
// 4-byte null link header and reads addresses and payload from fixed offsets.
// Header fields are not validated; a malformed record yields garbage payload.
func (d *Demuxer) classifyLoopback(rec types.CaptureRecord) Demuxed {
	if len(rec.Data) < loopbackPayloadOffset {
		log.WithField("record", rec.Index).Debug("Loopback record shorter than fixed headers, skipping")
		return Demuxed{Kind: DemuxUnrecognized}
	}

	src := make(net.IP, 4)
	dst := make(net.IP, 4)
	copy(src, rec.Data[loopbackSrcOffset:loopbackSrcOffset+4])
	copy(dst, rec.Data[loopbackDstOffset:loopbackDstOffset+4])

	payload := make([]byte, len(rec.Data)-loopbackPayloadOffset)
	copy(payload, rec.Data[loopbackPayloadOffset:])

	return Demuxed{Kind: DemuxLoopback, SrcIP: src, DstIP: dst, Payload: payload}
}

// classifyEthernet takes addresses and payload from the decoded layer stack.
func (d *Demuxer) classifyEthernet(rec types.CaptureRecord, pkt gopacket.Packet) Demuxed {
	udpLayer := pkt.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return Demuxed{Kind: DemuxEthernetOther}
	}
	udp, ok := udpLayer.(*layers.UDP)
	if !ok {
		return Demuxed{Kind: DemuxEthernetOther}
	}

	ipv4Layer := pkt.Layer(layers.LayerTypeIPv4)
	if ipv4Layer == nil {
		log.WithField("record", rec.Index).Debug("Ethernet UDP without IPv4, skipping")
		return Demuxed{Kind: DemuxEthernetOther}
	}
	ipv4 := ipv4Layer.(*layers.IPv4)

	payload := make([]byte, len(udp.Payload))
	copy(payload, udp.Payload)

	src := append(net.IP(nil), ipv4.SrcIP...)
	dst := append(net.IP(nil), ipv4.DstIP...)

	return Demuxed{Kind: DemuxEthernetUDP, SrcIP: src, DstIP: dst, Payload: payload}
}
