package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vdifcap/internal/config"
	"vdifcap/internal/network"
	"vdifcap/internal/replay"
	"vdifcap/internal/stats"
)

var (
	version = "1.0.0"
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mock-dbe [flags] <vdif_file>",
		Short: "Pretend to be a VLBI digital back end (DBE)",
		Long: `Pretends to be a VLBI digital back end by reading VDIF data frames from a
file and sending each frame as one UDP datagram to a host.`,
		Version: version,
		Args:    cobra.ExactArgs(1),
		RunE:    run,
	}

	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print some extra info during runtime")
	rootCmd.Flags().StringP("host", "i", "localhost", "The host or IP to which to send UDP datagrams")
	rootCmd.Flags().IntP("port", "p", 7890, "The port on which to send UDP datagrams")
	// --ip is accepted as an alias for --host.
	rootCmd.Flags().String("ip", "", "Alias for --host")
	_ = rootCmd.Flags().MarkHidden("ip")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	v := viper.New()
	config.SetDefaults(v)

	host, _ := cmd.Flags().GetString("host")
	if cmd.Flags().Changed("ip") {
		host, _ = cmd.Flags().GetString("ip")
	}
	port, _ := cmd.Flags().GetInt("port")

	v.Set("replay.host", host)
	v.Set("replay.port", port)
	v.Set("replay.vdif_file", args[0])
	if verbose {
		v.Set("logging.level", "debug")
	}

	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	setupLogging(cfg)

	if err := cfg.ValidateReplay(); err != nil {
		return err
	}

	sender, err := network.NewUDPSender(cfg.Replay.Host, cfg.Replay.Port)
	if err != nil {
		return fmt.Errorf("failed to create UDP sender: %w", err)
	}
	defer sender.Close()

	log.WithFields(log.Fields{
		"file": cfg.Replay.VDIFFile,
		"dest": sender.Dest().String(),
	}).Info("Streaming VDIF frames")

	collector := stats.NewCollector()
	replayer := replay.NewReplayer(cfg.Replay.VDIFFile, sender, collector)
	sent, err := replayer.Run()
	if err != nil {
		return err
	}

	fmt.Printf("Sent %d VDIF frames to %s\n", sent, sender.Dest())
	if verbose {
		stats.NewReporter(collector, "").PrintFinalReport()
	}
	return nil
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
}
