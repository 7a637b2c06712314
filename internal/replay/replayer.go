package replay

import (
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"vdifcap/internal/stats"
	"vdifcap/internal/vdif"
)

// ErrSourceFile marks a VDIF file that cannot be opened or whose declared
// frame lengths run past end of file.
var ErrSourceFile = errors.New("source file error")

// ErrTransmission marks a failed datagram send. The remaining sends are
// aborted; a DBE emulator that silently drops data is indistinguishable from
// a real outage.
var ErrTransmission = errors.New("transmission error")

// Sender is the transmit half the replayer needs.
type Sender interface {
	Send(data []byte) error
}

// Replayer emulates a digital back end: it discovers frame boundaries from
// the structured VDIF headers, then re-reads the raw file and sends each
// frame as one UDP datagram, in frame order. The raw re-read guarantees
// byte-for-byte fidelity regardless of anything the structured decoder might
// normalize.
type Replayer struct {
	path      string
	sender    Sender
	collector *stats.Collector
}

// NewReplayer creates a replayer for the given VDIF file. collector may be
// nil.
func NewReplayer(path string, sender Sender, collector *stats.Collector) *Replayer {
	return &Replayer{path: path, sender: sender, collector: collector}
}

// Run sends every frame of the file and returns the number of frames sent.
// The first send failure aborts the run with ErrTransmission; no retry.
func (r *Replayer) Run() (int, error) {
	frames, err := vdif.ScanFile(r.path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceFile, err)
	}
	log.WithFields(log.Fields{"file": r.path, "frames": len(frames)}).Info("Replaying VDIF frames")

	f, err := os.Open(r.path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceFile, err)
	}
	defer f.Close()

	var buf []byte
	sent := 0
	for i, frame := range frames {
		nbytes := frame.Nbytes()
		if nbytes > len(buf) {
			buf = make([]byte, nbytes)
		}
		// Frames are contiguous, so sequential reads stay aligned to the
		// declared boundaries.
		if _, err := io.ReadFull(f, buf[:nbytes]); err != nil {
			return sent, fmt.Errorf("%w: frame %d: %v", ErrSourceFile, i, err)
		}

		if err := r.sender.Send(buf[:nbytes]); err != nil {
			return sent, fmt.Errorf("%w: frame %d: %v", ErrTransmission, i, err)
		}
		sent++
		if r.collector != nil {
			r.collector.RecordFrameSent(nbytes)
		}
		log.WithFields(log.Fields{
			"frame":  i,
			"bytes":  nbytes,
			"thread": frame.Header.ThreadID,
		}).Debug("Sent VDIF frame")
	}

	return sent, nil
}
