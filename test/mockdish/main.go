// Mock receiver for end-to-end testing of mock-dbe. Listens on a UDP port,
// decodes each incoming datagram's VDIF header, and prints frame info.
//
// Usage:
//
//	go run test/mockdish/main.go [--addr 127.0.0.1:7890]
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"vdifcap/internal/vdif"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7890", "UDP address to listen on")
	flag.Parse()

	udpAddr, err := net.ResolveUDPAddr("udp", *addr)
	if err != nil {
		log.Fatalf("bad addr %q: %v", *addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		log.Fatalf("listen failed: %v", err)
	}
	defer conn.Close()

	log.Printf("listening on %s", conn.LocalAddr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	frames := 0
	bytes := 0
	go func() {
		buf := make([]byte, 65536)
		for {
			n, peer, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			frames++
			bytes += n

			h, err := vdif.DecodeHeader(buf[:n])
			if err != nil {
				log.Printf("%s: %d bytes, not a VDIF frame: %v", peer, n, err)
				continue
			}
			status := "ok"
			if h.FrameNbytes() != n {
				status = fmt.Sprintf("length mismatch: header declares %d", h.FrameNbytes())
			}
			log.Printf("%s: frame %d, %d bytes, thread %d (%s)", peer, h.FrameNumber, n, h.ThreadID, status)
		}
	}()

	<-sigCh
	log.Printf("received %d frames, %d bytes", frames, bytes)
}
