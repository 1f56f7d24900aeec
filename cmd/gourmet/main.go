// Gourmet: restaurant inventory engine.
//
// Tracks raw materials, prepped intermediates and dishes, deducts stock
// through recipe trees on every sale and keeps an append-only ledger that
// always reconciles with the stock counters.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/prudhvimanvith/Gourmet/internal/config"
	"github.com/prudhvimanvith/Gourmet/internal/database"
	"github.com/prudhvimanvith/Gourmet/internal/notify"
	"github.com/prudhvimanvith/Gourmet/internal/services/inventory"
	"github.com/prudhvimanvith/Gourmet/internal/services/recipes"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		// Force exit after timeout
		time.AfterFunc(10*time.Second, func() {
			slog.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		slog.Error("application error", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "gourmet",
		Usage:   "restaurant inventory engine",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				EnvVars: []string{"GOURMET_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: commands(),
	}
}

// env is everything a command needs once the store is open.
type env struct {
	cfg       *config.Config
	db        *database.DB
	migrator  *database.Migrator
	publisher notify.Publisher
	inventory *inventory.Service
	catalog   *recipes.Service
	logger    *slog.Logger
	closers   []func() error
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			slog.Error("shutdown step failed", "error", err)
		}
	}
}

// withEnv loads configuration, sets up logging, opens and migrates the
// store and wires the services for the duration of fn.
func withEnv(c *cli.Context, fn func(ctx context.Context, e *env) error) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(c.Context, e)
}

func openEnv(c *cli.Context) (*env, error) {
	ctx := c.Context
	e := &env{}

	cfg, cfgPath, err := config.Load(c.String("config"), true)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	e.cfg = cfg

	logger, closeLog, err := setupLogging(cfg, c.Bool("debug"))
	if err != nil {
		return nil, err
	}
	e.logger = logger
	e.closers = append(e.closers, closeLog)

	logger.Debug("gourmet starting",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cfgPath,
		"driver", cfg.Database.Driver,
	)

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		e.close()
		return nil, err
	}
	e.db = db
	e.closers = append(e.closers, db.Close)

	migrator, err := database.NewMigrator(db)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	e.migrator = migrator
	if c.Command.Name != "migrate" {
		result, err := migrator.MigrateUp(ctx)
		if err != nil {
			e.close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		if len(result.Applied) > 0 {
			logger.Info("applied migrations",
				"count", len(result.Applied),
				"to_version", result.ToVersion,
			)
		}
	}

	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		e.close()
		return nil, err
	}
	e.publisher = publisher
	e.closers = append(e.closers, publisher.Close)

	opts := inventory.OptionsFromConfig(cfg.Engine)
	opts.Publisher = publisher
	opts.Logger = logger
	e.inventory = inventory.NewService(db, opts)
	e.catalog = recipes.NewService(db, recipes.Options{
		Cascade: cfg.Costing.Cascade,
		Logger:  logger,
	})

	return e, nil
}

func setupLogging(cfg *config.Config, debug bool) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case config.LogLevelDebug:
			level = slog.LevelDebug
		case config.LogLevelWarn:
			level = slog.LevelWarn
		case config.LogLevelError:
			level = slog.LevelError
		}
	}

	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	closeLog := func() error { return nil }
	var handler slog.Handler
	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		closeLog = logFile.Close
		handler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeLog, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.DB, error) {
	if cfg.Database.Driver == config.DriverPostgres {
		db, err := database.Connect(ctx, &cfg.Database, "", "")
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	}

	dbPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("ensuring data directory: %w", err)
	}

	backupDir, err := config.BackupDir(cfg)
	if err != nil {
		logger.Warn("failed to create backup directory", "error", err)
		backupDir = ""
	}

	report, err := database.Recover(ctx, dbPath, backupDir, logger)
	if err != nil {
		return nil, fmt.Errorf("database recovery failed: %w", err)
	}
	if report.Outcome == database.RecoveryRestored {
		logger.Warn("database restored from backup", "backup", report.BackupUsed)
	}

	db, err := database.Connect(ctx, &cfg.Database, dbPath, backupDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// openPublisher returns the broker publisher when enabled. Otherwise events
// are written to the log.
func openPublisher(cfg *config.Config, logger *slog.Logger) (notify.Publisher, error) {
	if !cfg.Broker.Enabled {
		return notify.NewLogPublisher(logger), nil
	}
	timeout := time.Duration(cfg.Broker.PublishTimeoutSeconds) * time.Second
	p, err := notify.DialAMQP(cfg.Broker.URL, cfg.Broker.Exchange, timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}
	logger.Info("publishing events to broker", "exchange", cfg.Broker.Exchange)
	return p, nil
}
