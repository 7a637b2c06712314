package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Reporter outputs run statistics to console and/or a JSON file.
type Reporter struct {
	collector  *Collector
	exportFile string
}

// NewReporter creates a statistics reporter.
func NewReporter(collector *Collector, exportFile string) *Reporter {
	return &Reporter{collector: collector, exportFile: exportFile}
}

// PrintFinalReport prints the end-of-run summary.
func (r *Reporter) PrintFinalReport() {
	r.collector.Finish()
	fmt.Println(r.FormatReport())
}

// ExportJSON exports statistics to the configured JSON file, if any.
func (r *Reporter) ExportJSON() error {
	if r.exportFile == "" {
		return nil
	}

	snap := r.collector.Snapshot()
	export := map[string]interface{}{
		"start_time":   snap.StartTime.Format(time.RFC3339),
		"end_time":     snap.EndTime.Format(time.RFC3339),
		"duration_sec": snap.Duration().Seconds(),
		"extraction": map[string]interface{}{
			"records_read":          snap.RecordsRead,
			"records_in_window":     snap.RecordsInWindow,
			"reassembled_datagrams": snap.ReassembledDatagrams,
			"payloads_by_kind":      snap.PayloadsByKind,
			"records_skipped":       snap.RecordsSkipped,
			"bytes_recovered":       snap.BytesRecovered,
			"flows":                 snap.Flows,
			"files_written":         snap.FilesWritten,
		},
		"replay": map[string]interface{}{
			"frames_sent": snap.FramesSent,
			"bytes_sent":  snap.BytesSent,
		},
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats JSON: %w", err)
	}

	if err := os.WriteFile(r.exportFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file %s: %w", r.exportFile, err)
	}

	log.WithField("file", r.exportFile).Info("Statistics exported to JSON")
	return nil
}

// FormatReport generates a formatted statistics report string.
func (r *Reporter) FormatReport() string {
	snap := r.collector.Snapshot()
	elapsed := snap.Duration()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n=== vdifcap statistics (elapsed: %s) ===\n", elapsed.Round(time.Millisecond)))

	if snap.RecordsRead > 0 {
		sb.WriteString("Capture:\n")
		sb.WriteString(fmt.Sprintf("  Records: %d read, %d in window, %d skipped\n",
			snap.RecordsRead, snap.RecordsInWindow, snap.RecordsSkipped))
		sb.WriteString(fmt.Sprintf("  Reassembled datagrams: %d\n", snap.ReassembledDatagrams))

		kinds := make([]string, 0, len(snap.PayloadsByKind))
		for k := range snap.PayloadsByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			sb.WriteString(fmt.Sprintf("  Payloads (%s): %d\n", k, snap.PayloadsByKind[k]))
		}
		sb.WriteString(fmt.Sprintf("  Recovered: %d bytes across %d flows, %d files written\n",
			snap.BytesRecovered, snap.Flows, snap.FilesWritten))
	}

	if snap.FramesSent > 0 {
		sb.WriteString("Replay:\n")
		sb.WriteString(fmt.Sprintf("  Frames sent: %d (%d bytes)\n", snap.FramesSent, snap.BytesSent))
		if elapsed.Seconds() > 0 {
			sb.WriteString(fmt.Sprintf("  Throughput: %.1f frames/s\n", float64(snap.FramesSent)/elapsed.Seconds()))
		}
	}

	sb.WriteString("========================================\n")
	return sb.String()
}
