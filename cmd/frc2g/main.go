package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ozskywalker/frc2g/internal/config"
	"github.com/ozskywalker/frc2g/internal/document"
	"github.com/ozskywalker/frc2g/internal/evidence"
	"github.com/ozskywalker/frc2g/internal/fingerprint"
	"github.com/ozskywalker/frc2g/internal/pipeline"
	"github.com/ozskywalker/frc2g/internal/source"
	"github.com/ozskywalker/frc2g/internal/source/opnsense"
	"github.com/ozskywalker/frc2g/internal/source/pfsense"
)

var (
	configFile string
	outDir     string
	logLevel   string
	logFile    string
	force      bool
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "frc2g",
		Short: "Firewall rule set to flow graph converter",
		Long: `frc2g fetches firewall rules from pfSense and OPNSense gateways,
	detects whether the rule set changed since the last run, and renders
	per-interface traffic flow graphs into a reviewable document.`,
		RunE: run,
	}

	// Set up flags
	rootCmd.Flags().StringVar(&configFile, "config", "", "Run configuration YAML file (required)")
	rootCmd.Flags().StringVar(&outDir, "out", "", "Output directory (overrides config)")
	rootCmd.Flags().BoolVar(&force, "force", false, "Regenerate documents even when the rule set is unchanged")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")

	rootCmd.MarkFlagRequired("config")

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := setupLogger(logLevel, logFile)
	slog.SetDefault(logger)

	slog.Info("Starting firewall rule converter", "version", "1.0-go")
	startTime := time.Now()

	cfg, err := config.Load(configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configFile, "error", err)
		return err
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	slog.Info("Configuration loaded", "gateways", len(cfg.Gateways), "output_dir", cfg.Output.Dir)

	store, cleanup, err := openStore(cfg.Fingerprint)
	if err != nil {
		slog.Error("Failed to open fingerprint store", "store", cfg.Fingerprint.Store, "error", err)
		return err
	}
	defer cleanup()

	var uploader *evidence.Client
	if cfg.Evidence.BaseURL != "" {
		uploader = evidence.New(evidence.Config{
			BaseURL:    cfg.Evidence.BaseURL,
			Token:      cfg.Evidence.Token,
			EvidenceID: cfg.Evidence.EvidenceID,
			HTTP:       httpConfig(cfg.HTTP),
		}, logger)
	}

	pipe := &pipeline.Pipeline{
		Detector:  fingerprint.NewDetector(store, force, logger),
		Assembler: document.NewAssembler(document.NewDOTRenderer(cfg.Output.Dir), logger),
		Evidence:  uploader,
		Static: pipeline.StaticAliases{
			CSVPath:  cfg.Aliases.CSVPath,
			Entries:  cfg.Aliases.Static,
			AnyLabel: cfg.Aliases.AnyLabel,
		},
		Logger: logger,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	summaries := make([]*pipeline.Summary, len(cfg.Gateways))
	errs := make([]error, len(cfg.Gateways))
	var wg sync.WaitGroup
	for i, gw := range cfg.Gateways {
		src, err := newSource(gw, cfg.HTTP, logger)
		if err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			summaries[i], errs[i] = pipe.Run(ctx, src)
		}(i, src)
	}
	wg.Wait()

	failed := 0
	for i, gw := range cfg.Gateways {
		if errs[i] != nil {
			slog.Error("Gateway run failed", "gateway", gw.Name, "error", errs[i])
			failed++
			continue
		}
		sum := summaries[i]
		slog.Info("Gateway run finished",
			"gateway", sum.Gateway,
			"changed", sum.Changed,
			"pages", sum.Pages,
			"skipped_rules", sum.SkippedRules,
			"alias_fallbacks", sum.AliasFallbacks,
			"uploaded", sum.Uploaded,
			"upload_failed", sum.UploadFailed,
		)
	}

	slog.Info("Run complete", "duration", time.Since(startTime), "gateways", len(cfg.Gateways), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d gateways failed", failed, len(cfg.Gateways))
	}
	return nil
}

func newSource(gw config.Gateway, httpCfg config.HTTP, logger *slog.Logger) (source.Source, error) {
	switch gw.Kind {
	case config.KindPfSense:
		return pfsense.New(pfsense.Config{
			Gateway: gw.Name,
			BaseURL: gw.BaseURL,
			APIKey:  gw.APIKey,
			HTTP:    httpConfig(httpCfg),
		}, logger), nil
	case config.KindOPNSense:
		return opnsense.New(opnsense.Config{
			Gateway:    gw.Name,
			BaseURL:    gw.BaseURL,
			Key:        gw.Key,
			Secret:     gw.Secret,
			Interfaces: gw.Interfaces,
			HTTP:       httpConfig(httpCfg),
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown gateway kind: %s", gw.Kind)
	}
}

func openStore(cfg config.Fingerprint) (fingerprint.Store, func(), error) {
	switch cfg.Store {
	case config.StoreFile:
		return fingerprint.NewFileStore(cfg.Dir), func() {}, nil
	case config.StoreMySQL:
		store, err := fingerprint.NewSQLStore(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(context.Background()); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown fingerprint store: %s", cfg.Store)
	}
}

func httpConfig(cfg config.HTTP) source.HTTPConfig {
	return source.HTTPConfig{
		RequestTimeout:     time.Duration(cfg.RequestTimeout),
		ConnectTimeout:     time.Duration(cfg.ConnectTimeout),
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
}

func setupLogger(level, logFilePath string) *slog.Logger {
	var logWriter io.Writer = os.Stderr
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logWriter = f
		}
		// We don't log an error here because the logger isn't set up yet.
		// It will just fall back to stderr.
	}

	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "INFO":
		lvl = slog.LevelInfo
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: lvl}))
}
