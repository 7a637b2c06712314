package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vdifcap/internal/config"
	"vdifcap/internal/extract"
	"vdifcap/internal/flow"
	"vdifcap/internal/stats"
)

var (
	version = "1.0.0"
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pcap2vdif [flags] <pcapfile>",
		Short: "Extract VDIF data frames from UDP payloads in a PCAP capture",
		Long: `Extracts UDP datagram payloads from a previously captured PCAP file and
writes them as .vdif files, one per captured frame or one per flow. The tool
is called pcap2vdif because it is assumed the captures contain VDIF data
frames produced by a digital back end.`,
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		RunE:    run,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Configuration file path (default: config.yaml)")
	rootCmd.Flags().BoolP("no-reassembly", "r", false, "Disable IPv4 reassembly")
	rootCmd.Flags().Int("start-packet", 0, "PCAP record number (0-based) from which to start extraction")
	rootCmd.Flags().Int("num-packets", 0, "Number of PCAP records to extract (0=all records from start)")
	rootCmd.Flags().Bool("single-vdif", false, "Write one concatenated file per flow instead of one file per record")
	rootCmd.Flags().String("output-dir", "", "Directory for output .vdif files")
	rootCmd.Flags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.Flags().String("stats-export", "", "Export run statistics to a JSON file")
	rootCmd.Flags().Bool("stats", true, "Print run statistics on completion")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("No config file found, using defaults and CLI flags")
	}

	bindViperFlags(v, cmd)
	if len(args) == 1 {
		v.Set("input.pcap_file", args[0])
	}

	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	setupLogging(cfg)

	fmt.Printf("pcap2vdif v%s\n", version)
	fmt.Print(cfg.Summary())
	fmt.Println()

	if err := cfg.ValidateExtract(); err != nil {
		return err
	}

	collector := stats.NewCollector()
	aggregator := flow.NewAggregator(cfg.OutputStem(), cfg.Extract.OutputDir, cfg.OutputPolicy())
	extractor := extract.NewExtractor(cfg.Input.PcapFile, cfg.Window(), cfg.Extract.Reassembly, aggregator, collector)

	if err := extractor.Run(); err != nil {
		return err
	}

	if cfg.Stats.Enabled {
		reporter := stats.NewReporter(collector, cfg.Stats.ExportFile)
		reporter.PrintFinalReport()
		if err := reporter.ExportJSON(); err != nil {
			log.WithError(err).Warn("Failed to export statistics")
		}
	}

	return nil
}

func bindViperFlags(v *viper.Viper, cmd *cobra.Command) {
	if cmd.Flags().Changed("no-reassembly") {
		val, _ := cmd.Flags().GetBool("no-reassembly")
		v.Set("extract.reassembly", !val)
	}
	if cmd.Flags().Changed("start-packet") {
		val, _ := cmd.Flags().GetInt("start-packet")
		v.Set("input.start_packet", val)
	}
	if cmd.Flags().Changed("num-packets") {
		val, _ := cmd.Flags().GetInt("num-packets")
		v.Set("input.num_packets", val)
	}
	if cmd.Flags().Changed("single-vdif") {
		val, _ := cmd.Flags().GetBool("single-vdif")
		v.Set("extract.single_vdif", val)
	}
	if cmd.Flags().Changed("output-dir") {
		val, _ := cmd.Flags().GetString("output-dir")
		v.Set("extract.output_dir", val)
	}
	if cmd.Flags().Changed("log-level") {
		val, _ := cmd.Flags().GetString("log-level")
		v.Set("logging.level", val)
	}
	if cmd.Flags().Changed("stats") {
		val, _ := cmd.Flags().GetBool("stats")
		v.Set("stats.enabled", val)
	}
	if cmd.Flags().Changed("stats-export") {
		val, _ := cmd.Flags().GetString("stats-export")
		v.Set("stats.export_file", val)
	}
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.WithError(err).Warn("Failed to open log file, using console only")
		} else {
			log.SetOutput(f)
		}
	}
}
