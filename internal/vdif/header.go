// Package vdif decodes the structured headers of VDIF data frames. Only the
// header fields are interpreted; frame payloads are opaque bytes. The frame
// length declared in word 2 is the authoritative frame boundary.
package vdif

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderLen is the size of a full VDIF header in bytes.
	HeaderLen = 32
	// LegacyHeaderLen is the size of a legacy-mode header in bytes.
	LegacyHeaderLen = 16
)

// ErrShortHeader marks a buffer too small to hold a VDIF header.
var ErrShortHeader = errors.New("vdif: buffer too short for header")

// ErrBadFrameLength marks a declared frame length smaller than the header
// itself.
var ErrBadFrameLength = errors.New("vdif: declared frame length shorter than header")

// Header is the decoded fixed part of a VDIF frame header. Words are 32-bit
// little-endian.
type Header struct {
	Seconds       uint32 // seconds from reference epoch (30 bits)
	Legacy        bool   // 16-byte header, no extended words
	Invalid       bool   // payload marked invalid by the sender
	FrameNumber   uint32 // frame number within the second (24 bits)
	RefEpoch      uint8  // reference epoch, half-years since 2000 (6 bits)
	FrameLength8  uint32 // total frame length in 8-byte units, header included
	Log2Channels  uint8  // log2 of the channel count (5 bits)
	Version       uint8  // VDIF version (3 bits)
	StationID     uint16
	ThreadID      uint16 // 10 bits
	BitsPerSample uint8  // bits per sample (stored value + 1)
	Complex       bool
}

// DecodeHeader decodes the first four header words from buf. The extended
// user data words of a full header are not interpreted.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < LegacyHeaderLen {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(buf))
	}

	w0 := binary.LittleEndian.Uint32(buf[0:4])
	w1 := binary.LittleEndian.Uint32(buf[4:8])
	w2 := binary.LittleEndian.Uint32(buf[8:12])
	w3 := binary.LittleEndian.Uint32(buf[12:16])

	h := Header{
		Seconds:       w0 & 0x3fffffff,
		Legacy:        w0&(1<<30) != 0,
		Invalid:       w0&(1<<31) != 0,
		FrameNumber:   w1 & 0x00ffffff,
		RefEpoch:      uint8((w1 >> 24) & 0x3f),
		FrameLength8:  w2 & 0x00ffffff,
		Log2Channels:  uint8((w2 >> 24) & 0x1f),
		Version:       uint8(w2 >> 29),
		StationID:     uint16(w3 & 0xffff),
		ThreadID:      uint16((w3 >> 16) & 0x3ff),
		BitsPerSample: uint8((w3>>26)&0x1f) + 1,
		Complex:       w3&(1<<31) != 0,
	}

	if h.FrameNbytes() < h.HeaderNbytes() {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrBadFrameLength, h.FrameNbytes())
	}
	return h, nil
}

// HeaderNbytes returns the header size declared by the legacy bit.
func (h Header) HeaderNbytes() int {
	if h.Legacy {
		return LegacyHeaderLen
	}
	return HeaderLen
}

// FrameNbytes returns the total frame length in bytes, header included.
func (h Header) FrameNbytes() int {
	return int(h.FrameLength8) * 8
}

// PayloadNbytes returns the length of the data array following the header.
func (h Header) PayloadNbytes() int {
	return h.FrameNbytes() - h.HeaderNbytes()
}
