package network

import (
	"fmt"
	"net"
	"strconv"
	"sync"
)

// UDPSender transmits datagrams to a fixed destination host and port. The
// socket is opened once per run and each datagram is sent as-is, with no
// application framing and no retry.
type UDPSender struct {
	conn *net.UDPConn
	dest *net.UDPAddr
	mu   sync.Mutex
}

// NewUDPSender resolves the destination (hostname or IP literal) and binds an
// ephemeral local UDP port.
func NewUDPSender(host string, port int) (*UDPSender, error) {
	dest, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination %s:%d: %w", host, port, err)
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket: %w", err)
	}

	return &UDPSender{conn: conn, dest: dest}, nil
}

// Send transmits one datagram to the destination.
func (s *UDPSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.WriteToUDP(data, s.dest)
	if err != nil {
		return fmt.Errorf("failed to send to %s: %w", s.dest, err)
	}
	return nil
}

// Dest returns the resolved destination address.
func (s *UDPSender) Dest() net.Addr {
	return s.dest
}

// LocalAddr returns the local address the sender is bound to.
func (s *UDPSender) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Close closes the UDP socket.
func (s *UDPSender) Close() error {
	return s.conn.Close()
}
