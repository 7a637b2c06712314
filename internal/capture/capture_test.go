package capture

import (
	"encoding/binary"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/require"

	"vdifcap/pkg/types"
)

// Shared fixture helpers: captures are written with the pcapgo writer into a
// temp dir, records are built either through gopacket serialization
// (Ethernet) or by hand (loopback, UDP segments for fragmentation).

func writePcap(t *testing.T, linkType layers.LinkType, records [][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65535, linkType))

	ts := time.Now()
	for _, rec := range records {
		ci := gopacket.CaptureInfo{
			Timestamp:     ts,
			CaptureLength: len(rec),
			Length:        len(rec),
		}
		require.NoError(t, w.WritePacket(ci, rec))
		ts = ts.Add(time.Millisecond)
	}
	return path
}

func ethUDPRecord(t *testing.T, src, dst string, payload []byte) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP(src),
		DstIP:    net.ParseIP(dst),
	}
	udp := &layers.UDP{SrcPort: 12345, DstPort: 7890}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)))
	return buf.Bytes()
}

func ethTCPRecord(t *testing.T, src, dst string, payload []byte) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.ParseIP(src),
		DstIP:    net.ParseIP(dst),
	}
	tcp := &layers.TCP{SrcPort: 12345, DstPort: 80}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(payload)))
	return buf.Bytes()
}

// loopbackRecord assembles a null-link record by hand: 4-byte link header,
// fixed 20-byte IPv4 header, 8-byte UDP header, payload.
func loopbackRecord(src, dst string, payload []byte) []byte {
	rec := make([]byte, 4+20+8+len(payload))
	binary.LittleEndian.PutUint32(rec[0:4], 2) // AF_INET

	ip := rec[4:24]
	ip[0] = 0x45
	binary.BigEndian.PutUint16(ip[2:4], uint16(20+8+len(payload)))
	ip[8] = 64
	ip[9] = 17
	copy(ip[12:16], net.ParseIP(src).To4())
	copy(ip[16:20], net.ParseIP(dst).To4())

	udp := rec[24:32]
	binary.BigEndian.PutUint16(udp[0:2], 12345)
	binary.BigEndian.PutUint16(udp[2:4], 7890)
	binary.BigEndian.PutUint16(udp[4:6], uint16(8+len(payload)))

	copy(rec[32:], payload)
	return rec
}

// udpSegment builds a raw UDP segment (header plus payload) for use as
// fragment material. Checksum is left zero.
func udpSegment(payload []byte) []byte {
	seg := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint16(seg[0:2], 12345)
	binary.BigEndian.PutUint16(seg[2:4], 7890)
	binary.BigEndian.PutUint16(seg[4:6], uint16(8+len(payload)))
	copy(seg[8:], payload)
	return seg
}

// ethFragments splits a UDP segment into two IPv4 fragments at splitAt, which
// must be a multiple of 8.
func ethFragments(t *testing.T, src, dst string, segment []byte, splitAt int) (first, second []byte) {
	t.Helper()
	require.Zero(t, splitAt%8, "fragment split must be on an 8-byte boundary")

	build := func(chunk []byte, offsetUnits uint16, more bool) []byte {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			DstMAC:       net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:    4,
			TTL:        64,
			Id:         0x4242,
			Protocol:   layers.IPProtocolUDP,
			SrcIP:      net.ParseIP(src),
			DstIP:      net.ParseIP(dst),
			FragOffset: offsetUnits,
		}
		if more {
			ip.Flags = layers.IPv4MoreFragments
		}
		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, gopacket.Payload(chunk)))
		return buf.Bytes()
	}

	return build(segment[:splitAt], 0, true), build(segment[splitAt:], uint16(splitAt/8), false)
}

// decodeRecord turns raw record bytes into the (CaptureRecord, Packet) pair
// the pipeline stages consume.
func decodeRecord(index int, kind types.LinkKind, data []byte) (types.CaptureRecord, gopacket.Packet) {
	var decoder gopacket.Decoder = layers.LinkTypeEthernet
	if kind == types.LinkKindLoopback {
		decoder = layers.LinkTypeNull
	}
	pkt := gopacket.NewPacket(data, decoder, gopacket.Default)
	rec := types.CaptureRecord{
		Index:    index,
		Kind:     kind,
		Data:     data,
		InWindow: true,
	}
	return rec, pkt
}
