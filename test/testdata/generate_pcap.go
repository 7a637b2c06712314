// +build ignore

// This program generates sample capture and VDIF files for manual testing:
// an Ethernet capture, a loopback capture, and a standalone VDIF file.
//
// Usage:
//
//	go run test/testdata/generate_pcap.go [outdir]
package main

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func main() {
	outdir := "test/testdata"
	if len(os.Args) > 1 {
		outdir = os.Args[1]
	}

	writeEthernetCapture(filepath.Join(outdir, "sample_eth.pcap"))
	writeLoopbackCapture(filepath.Join(outdir, "sample_lo.pcap"))
	writeVDIFFile(filepath.Join(outdir, "sample.vdif"))
}

// vdifFrame builds one legacy-mode VDIF frame: a 16-byte header followed by
// payload bytes. The declared frame length covers both.
func vdifFrame(frameNumber uint32, payload []byte) []byte {
	total := 16 + len(payload)
	if total%8 != 0 {
		panic("vdif frame length must be a multiple of 8")
	}

	frame := make([]byte, total)
	binary.LittleEndian.PutUint32(frame[0:4], 1<<30) // legacy bit, second 0
	binary.LittleEndian.PutUint32(frame[4:8], frameNumber&0x00ffffff)
	binary.LittleEndian.PutUint32(frame[8:12], uint32(total/8))
	binary.LittleEndian.PutUint32(frame[12:16], 0)
	copy(frame[16:], payload)
	return frame
}

func payloadBytes(n int, fill byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = fill
	}
	return p
}

func writeEthernetCapture(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		panic(err)
	}

	srcIP := net.ParseIP("10.0.0.1")
	dstIP := net.ParseIP("10.0.0.2")
	srcMAC, _ := net.ParseMAC("00:11:22:33:44:55")
	dstMAC, _ := net.ParseMAC("66:77:88:99:aa:bb")
	ts := time.Now()

	for i := 0; i < 3; i++ {
		eth := &layers.Ethernet{
			SrcMAC:       srcMAC,
			DstMAC:       dstMAC,
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    srcIP,
			DstIP:    dstIP,
		}
		udp := &layers.UDP{
			SrcPort: 12345,
			DstPort: 7890,
		}
		udp.SetNetworkLayerForChecksum(ip)

		frame := vdifFrame(uint32(i), payloadBytes(48, byte(i)))

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(frame)); err != nil {
			panic(fmt.Sprintf("failed to serialize: %v", err))
		}

		ci := gopacket.CaptureInfo{
			Timestamp:     ts,
			CaptureLength: len(buf.Bytes()),
			Length:        len(buf.Bytes()),
		}
		if err := w.WritePacket(ci, buf.Bytes()); err != nil {
			panic(fmt.Sprintf("failed to write packet: %v", err))
		}
		ts = ts.Add(10 * time.Millisecond)
	}
}

func writeLoopbackCapture(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeNull); err != nil {
		panic(err)
	}

	src := net.ParseIP("127.0.0.1").To4()
	dst := net.ParseIP("127.0.0.2").To4()
	ts := time.Now()

	for i := 0; i < 3; i++ {
		frame := vdifFrame(uint32(i), payloadBytes(48, byte(0x10+i)))
		rec := loopbackRecord(src, dst, frame)

		ci := gopacket.CaptureInfo{
			Timestamp:     ts,
			CaptureLength: len(rec),
			Length:        len(rec),
		}
		if err := w.WritePacket(ci, rec); err != nil {
			panic(fmt.Sprintf("failed to write packet: %v", err))
		}
		ts = ts.Add(10 * time.Millisecond)
	}
}

// loopbackRecord assembles a null-link record by hand: 4-byte link header
// (AF_INET), 20-byte IPv4 header without options, 8-byte UDP header, payload.
func loopbackRecord(src, dst net.IP, payload []byte) []byte {
	rec := make([]byte, 4+20+8+len(payload))

	binary.LittleEndian.PutUint32(rec[0:4], 2) // AF_INET

	ip := rec[4:24]
	ip[0] = 0x45 // version 4, IHL 5
	binary.BigEndian.PutUint16(ip[2:4], uint16(20+8+len(payload)))
	ip[8] = 64 // TTL
	ip[9] = 17 // UDP
	copy(ip[12:16], src)
	copy(ip[16:20], dst)

	udp := rec[24:32]
	binary.BigEndian.PutUint16(udp[0:2], 12345)
	binary.BigEndian.PutUint16(udp[2:4], 7890)
	binary.BigEndian.PutUint16(udp[4:6], uint16(8+len(payload)))

	copy(rec[32:], payload)
	return rec
}

func writeVDIFFile(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	for i := 0; i < 4; i++ {
		frame := vdifFrame(uint32(i), payloadBytes(64, byte(0xa0+i)))
		if _, err := f.Write(frame); err != nil {
			panic(err)
		}
	}
}
