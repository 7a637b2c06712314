package config

import (
	"fmt"
	"os"
	"strings"
)

// ValidateExtract checks the configuration used by the extraction tool.
func (c *Config) ValidateExtract() error {
	var errs []string

	if c.Input.PcapFile == "" {
		errs = append(errs, "input.pcap_file must be specified")
	} else if _, err := os.Stat(c.Input.PcapFile); os.IsNotExist(err) {
		errs = append(errs, fmt.Sprintf("pcap file not found: %s", c.Input.PcapFile))
	}

	if c.Input.StartPacket < 0 {
		errs = append(errs, fmt.Sprintf("input.start_packet must be >= 0, got %d", c.Input.StartPacket))
	}
	if c.Input.NumPackets < 0 {
		errs = append(errs, fmt.Sprintf("input.num_packets must be >= 0, got %d", c.Input.NumPackets))
	}

	if c.Extract.OutputDir != "" {
		if info, err := os.Stat(c.Extract.OutputDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Sprintf("extract.output_dir is not a directory: %s", c.Extract.OutputDir))
		}
	}

	errs = append(errs, c.validateLogging()...)
	return joinErrs(errs)
}

// ValidateReplay checks the configuration used by the replay tool.
func (c *Config) ValidateReplay() error {
	var errs []string

	if c.Replay.VDIFFile == "" {
		errs = append(errs, "replay.vdif_file must be specified")
	} else if _, err := os.Stat(c.Replay.VDIFFile); os.IsNotExist(err) {
		errs = append(errs, fmt.Sprintf("vdif file not found: %s", c.Replay.VDIFFile))
	}

	if c.Replay.Host == "" {
		errs = append(errs, "replay.host must be specified")
	}
	if c.Replay.Port <= 0 || c.Replay.Port > 65535 {
		errs = append(errs, fmt.Sprintf("replay.port must be between 1 and 65535, got %d", c.Replay.Port))
	}

	errs = append(errs, c.validateLogging()...)
	return joinErrs(errs)
}

func (c *Config) validateLogging() []string {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return []string{fmt.Sprintf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level)}
	}
	return nil
}

func joinErrs(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
