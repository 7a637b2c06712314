package capture

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	log "github.com/sirupsen/logrus"

	"vdifcap/pkg/types"
)

// ErrCaptureRead marks a capture file that is missing, unreadable, or
// malformed beyond the point already consumed.
var ErrCaptureRead = errors.New("capture read error")

// Reader walks a classic-pcap capture file sequentially, yielding one
// CaptureRecord per stored frame. The container has no random access, so a
// windowed read still starts at record 0 and only stops early once the window
// upper bound has been passed.
type Reader struct {
	path   string
	window types.Window
}

// NewReader creates a reader for the given capture file and window.
func NewReader(path string, window types.Window) *Reader {
	return &Reader{path: path, window: window}
}

// Walk reads the capture start to finish (or to the window upper bound) and
// invokes fn for every record in file order. Records outside the window are
// delivered with InWindow=false so callers can count them without extracting.
// A non-nil error from fn aborts the walk.
func (r *Reader) Walk(fn func(rec types.CaptureRecord, pkt gopacket.Packet) error) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrCaptureRead, r.path, err)
	}
	defer f.Close()

	pr, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCaptureRead, r.path, err)
	}

	linkType := pr.LinkType()
	kind := classifyLinkType(linkType)
	log.WithFields(log.Fields{
		"file":      r.path,
		"link_type": linkType.String(),
		"kind":      kind.String(),
	}).Debug("Capture link type detected")

	source := gopacket.NewPacketSource(pr, linkType)
	source.DecodeOptions.Lazy = true
	source.DecodeOptions.NoCopy = true

	end := r.window.End()
	index := 0
	for {
		if end != 0 && index >= end {
			break
		}
		pkt, err := source.NextPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %s: record %d: %v", ErrCaptureRead, r.path, index, err)
		}

		rec := types.CaptureRecord{
			Index:     index,
			Kind:      kind,
			Data:      pkt.Data(),
			Timestamp: pkt.Metadata().Timestamp,
			InWindow:  r.window.Contains(index),
		}
		if err := fn(rec, pkt); err != nil {
			return err
		}
		index++
	}

	log.WithFields(log.Fields{"file": r.path, "records": index}).Info("Capture walk complete")
	return nil
}

// classifyLinkType maps the pcap file link type to the closed LinkKind set.
func classifyLinkType(lt layers.LinkType) types.LinkKind {
	switch lt {
	case layers.LinkTypeNull, layers.LinkTypeLoop:
		return types.LinkKindLoopback
	case layers.LinkTypeEthernet:
		return types.LinkKindEthernet
	default:
		return types.LinkKindUnknown
	}
}
