package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"vdifcap/pkg/types"
)

// Config holds all configuration for the vdifcap tools.
type Config struct {
	Input   InputConfig   `yaml:"input"   mapstructure:"input"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Replay  ReplayConfig  `yaml:"replay"  mapstructure:"replay"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Stats   StatsConfig   `yaml:"stats"   mapstructure:"stats"`
}

type InputConfig struct {
	PcapFile    string `yaml:"pcap_file"    mapstructure:"pcap_file"`
	StartPacket int    `yaml:"start_packet" mapstructure:"start_packet"`
	NumPackets  int    `yaml:"num_packets"  mapstructure:"num_packets"`
}

type ExtractConfig struct {
	Reassembly bool   `yaml:"reassembly"  mapstructure:"reassembly"`
	SingleVDIF bool   `yaml:"single_vdif" mapstructure:"single_vdif"`
	OutputDir  string `yaml:"output_dir"  mapstructure:"output_dir"`
}

type ReplayConfig struct {
	Host     string `yaml:"host"      mapstructure:"host"`
	Port     int    `yaml:"port"      mapstructure:"port"`
	VDIFFile string `yaml:"vdif_file" mapstructure:"vdif_file"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"   mapstructure:"level"`
	File    string `yaml:"file"    mapstructure:"file"`
	Console bool   `yaml:"console" mapstructure:"console"`
}

type StatsConfig struct {
	Enabled    bool   `yaml:"enabled"     mapstructure:"enabled"`
	ExportFile string `yaml:"export_file" mapstructure:"export_file"`
}

// SetDefaults configures default values for the configuration.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input.start_packet", 0)
	v.SetDefault("input.num_packets", 0)
	v.SetDefault("extract.reassembly", true)
	v.SetDefault("extract.single_vdif", false)
	v.SetDefault("extract.output_dir", ".")
	v.SetDefault("replay.host", "localhost")
	v.SetDefault("replay.port", 7890)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("stats.enabled", true)
}

// LoadWithViper reads configuration using an existing viper instance (for CLI
// flag binding).
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Window returns the extraction window configured for the input.
func (c *Config) Window() types.Window {
	return types.Window{Start: c.Input.StartPacket, Count: c.Input.NumPackets}
}

// OutputPolicy returns the configured emission policy.
func (c *Config) OutputPolicy() types.OutputPolicy {
	if c.Extract.SingleVDIF {
		return types.PolicySingleFile
	}
	return types.PolicyPerRecord
}

// OutputStem returns the stem used for output file names, derived from the
// capture file name.
func (c *Config) OutputStem() string {
	base := filepath.Base(c.Input.PcapFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Summary returns a human-readable summary of the extraction configuration.
func (c *Config) Summary() string {
	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	sb.WriteString(fmt.Sprintf("  PCAP:         %s\n", c.Input.PcapFile))
	sb.WriteString(fmt.Sprintf("  Window:       start=%d count=%d\n", c.Input.StartPacket, c.Input.NumPackets))
	sb.WriteString(fmt.Sprintf("  Reassembly:   %v\n", c.Extract.Reassembly))
	sb.WriteString(fmt.Sprintf("  Output:       %s (%s)\n", c.Extract.OutputDir, c.OutputPolicy()))
	return sb.String()
}
