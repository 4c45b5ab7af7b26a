package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/blewho/internal/config"
	"github.com/srg/blewho/internal/roster"
	"github.com/srg/blewho/presence"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously scan and report device presence",
	Long: `Continuously scan for BLE advertisements and print one presence line
per sighting.

Devices whose address (or advertised name, unless --no-match-name is set)
appears in the mapping file are reported as KNOWN with their friendly
name; everything else is reported as UNKNOWN. The mapping file is
re-checked for changes on a fixed interval, so edits take effect without
restarting the monitor.`,
	RunE: runWatch,
}

var (
	watchFile         string
	watchConfigFile   string
	watchReload       time.Duration
	watchDuration     time.Duration
	watchFormat       string
	watchNoMatchName  bool
	watchNoDuplicates bool
)

func init() {
	registerWatchFlags()
}

func registerWatchFlags() {
	watchCmd.Flags().StringVarP(&watchFile, "file", "f", roster.DefaultFile, "Mapping file path")
	watchCmd.Flags().StringVar(&watchConfigFile, "config", "", "YAML config file")
	watchCmd.Flags().DurationVar(&watchReload, "reload-interval", 5*time.Second, "Mapping file re-check interval")
	watchCmd.Flags().DurationVarP(&watchDuration, "duration", "d", 0, "Stop after this long (0 for indefinite)")
	watchCmd.Flags().StringVar(&watchFormat, "format", "plain", "Output format (plain, json)")
	watchCmd.Flags().BoolVar(&watchNoMatchName, "no-match-name", false, "Resolve by address only, ignore advertised names")
	watchCmd.Flags().BoolVar(&watchNoDuplicates, "no-duplicates", false, "Filter repeated advertisements at the transport")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadWatchConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.OutputFormat != "plain" && cfg.OutputFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [plain json]", cfg.OutputFormat)
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	store, err := roster.Load(cfg.RosterPath, logger)
	if err != nil {
		// Scanner startup tolerates an unreadable mapping file; a later
		// reload picks it up once it becomes readable.
		logger.WithError(err).Warn("Failed to load mapping file, starting with empty roster")
		store = roster.NewEmpty(cfg.RosterPath, logger)
	}
	for _, e := range store.Entries() {
		logger.WithFields(logrus.Fields{
			"address": e.Address,
			"name":    e.Name,
		}).Info("Initial mapping")
	}

	opts := &presence.Options{
		ReloadInterval:  cfg.ReloadInterval,
		AllowDuplicates: !watchNoDuplicates,
		MatchByName:     cfg.MatchByName,
	}
	monitor, err := presence.NewMonitor(store, opts, logger)
	if err != nil {
		return err
	}

	baseCtx := context.Background()
	if cfg.ScanDuration > 0 {
		var cancel context.CancelFunc
		baseCtx, cancel = context.WithTimeout(baseCtx, cfg.ScanDuration)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	// Listen for Ctrl+C to cancel
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nCtrl+C pressed, stopping...")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- monitor.Run(ctx)
	}()

	printSightings(os.Stdout, monitor.Events(), cfg.OutputFormat)

	if err := <-errCh; err != nil {
		logger.WithError(err).Error("presence monitoring failed")
		return err
	}
	return nil
}

// loadWatchConfig merges defaults, the optional config file, and any
// explicitly set flags, in that order.
func loadWatchConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if watchConfigFile != "" {
		var err error
		cfg, err = config.LoadFile(watchConfigFile)
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("file") {
		cfg.RosterPath = watchFile
	}
	if cmd.Flags().Changed("reload-interval") {
		cfg.ReloadInterval = watchReload
	}
	if cmd.Flags().Changed("duration") {
		cfg.ScanDuration = watchDuration
	}
	if cmd.Flags().Changed("format") {
		cfg.OutputFormat = watchFormat
	}
	if watchNoMatchName {
		cfg.MatchByName = false
	}
	return cfg, nil
}

var (
	knownTag   = color.New(color.FgGreen).Sprint("[KNOWN]  ")
	unknownTag = color.New(color.FgYellow).Sprint("[UNKNOWN]")
)

// printSightings drains the event stream until it is closed.
func printSightings(w io.Writer, events <-chan presence.Sighting, format string) {
	encoder := json.NewEncoder(w)
	for sighting := range events {
		if format == "json" {
			_ = encoder.Encode(sighting)
			continue
		}
		fmt.Fprintln(w, formatSighting(sighting))
	}
}

// formatSighting renders one presence line.
func formatSighting(s presence.Sighting) string {
	if s.Known {
		return fmt.Sprintf("%s %-20s | RSSI %4d | %s", knownTag, s.FriendlyName, s.RSSI, s.Address)
	}
	name := s.AdvertisedName
	if name == "" {
		name = "N/A"
	}
	return fmt.Sprintf("%s Name=%-15s | RSSI %4d | %s", unknownTag, name, s.RSSI, s.Address)
}
