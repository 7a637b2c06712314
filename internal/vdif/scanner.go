package vdif

import (
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// ErrTruncatedFrame marks a frame whose declared length runs past the end of
// the file.
var ErrTruncatedFrame = errors.New("vdif: declared frame length past end of file")

// FrameInfo locates one frame in a VDIF file.
type FrameInfo struct {
	Offset int64
	Header Header
}

// Nbytes returns the frame's total length in bytes.
func (f FrameInfo) Nbytes() int {
	return f.Header.FrameNbytes()
}

// ScanFile walks a VDIF file header by header and returns the frames in file
// order. Payload bytes are skipped, not read; the caller re-reads the raw
// file when it needs frame contents.
func ScanFile(path string) ([]FrameInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vdif: open %s: %w", path, err)
	}
	defer f.Close()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("vdif: %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("vdif: %s: %w", path, err)
	}

	var frames []FrameInfo
	buf := make([]byte, LegacyHeaderLen)
	offset := int64(0)
	for offset < size {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, fmt.Errorf("%w: frame %d at offset %d", ErrTruncatedFrame, len(frames), offset)
		}
		h, err := DecodeHeader(buf)
		if err != nil {
			return nil, fmt.Errorf("vdif: frame %d at offset %d: %w", len(frames), offset, err)
		}

		nbytes := int64(h.FrameNbytes())
		if offset+nbytes > size {
			return nil, fmt.Errorf("%w: frame %d at offset %d declares %d bytes, %d remain",
				ErrTruncatedFrame, len(frames), offset, nbytes, size-offset)
		}

		frames = append(frames, FrameInfo{Offset: offset, Header: h})
		offset += nbytes
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("vdif: %s: %w", path, err)
		}
	}

	log.WithFields(log.Fields{"file": path, "frames": len(frames)}).Debug("VDIF scan complete")
	return frames, nil
}
