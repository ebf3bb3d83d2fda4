package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/logisim-sim/logisim/internal/adapters/mapgen"
	"github.com/logisim-sim/logisim/internal/adapters/metrics"
	"github.com/logisim-sim/logisim/internal/adapters/persistence"
	"github.com/logisim-sim/logisim/internal/adapters/transport"
	"github.com/logisim-sim/logisim/internal/application/common"
	"github.com/logisim-sim/logisim/internal/application/controller"
	"github.com/logisim-sim/logisim/internal/application/mediator"
	"github.com/logisim-sim/logisim/internal/domain/world"
	"github.com/logisim-sim/logisim/internal/infrastructure/config"
	"github.com/logisim-sim/logisim/internal/infrastructure/database"
	"github.com/logisim-sim/logisim/internal/infrastructure/logging"
	"github.com/logisim-sim/logisim/internal/infrastructure/pidfile"
)

// NewServeCommand creates the serve command: the long-running simulator
// daemon behind the WebSocket boundary.
func NewServeCommand() *cobra.Command {
	var mapPath string
	var statePath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoadConfig(configPath)
			applyFlagOverrides(cfg)

			logger, err := logging.Setup(cfg.Logging)
			if err != nil {
				return err
			}

			pf := pidfile.New(cfg.Daemon.PIDFile)
			if err := pf.Acquire(); err != nil {
				return fmt.Errorf("acquire pid file: %w", err)
			}
			defer func() {
				if err := pf.Release(); err != nil {
					logger.Warnf("release pid file: %v", err)
				}
			}()

			return runServer(cfg, logger, mapPath, statePath)
		},
	}
	cmd.Flags().StringVar(&mapPath, "map", "", "Map document to load at startup")
	cmd.Flags().StringVar(&statePath, "state", "", "Save file to restore at startup")
	return cmd
}

func applyFlagOverrides(cfg *config.Config) {
	if host != "" {
		cfg.Transport.Host = host
	}
	if port != 0 {
		cfg.Transport.Port = port
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

func worldConfigFrom(cfg *config.Config) world.Config {
	return world.Config{
		DtSeconds:           cfg.World.DtSeconds,
		Seed:                cfg.World.Seed,
		InitialFuelPrice:    cfg.World.InitialFuelPrice,
		FuelPriceMin:        cfg.World.FuelPriceMin,
		FuelPriceMax:        cfg.World.FuelPriceMax,
		FuelPriceVolatility: cfg.World.FuelPriceVolatility,
	}
}

// bootstrapWorld builds the initial world: a restored save file, an
// imported map, or a modest generated default.
func bootstrapWorld(cfg *config.Config, codec *persistence.Codec, generator *mapgen.Generator, mapPath, statePath string) (*world.World, error) {
	if statePath != "" {
		data, err := os.ReadFile(statePath)
		if err != nil {
			return nil, fmt.Errorf("read state file: %w", err)
		}
		return codec.DecodeWorld(data)
	}
	if mapPath != "" {
		data, err := os.ReadFile(mapPath)
		if err != nil {
			return nil, fmt.Errorf("read map file: %w", err)
		}
		return codec.RebuildWorld(data)
	}
	return generator.Generate(common.MapSpec{
		Seed:        cfg.World.Seed,
		Rows:        6,
		Cols:        6,
		SpacingM:    1000,
		SiteCount:   4,
		GasStations: 3,
		Parkings:    3,
	})
}

func runServer(cfg *config.Config, logger *logging.Logger, mapPath, statePath string) error {
	worldCfg := worldConfigFrom(cfg)
	codec := persistence.NewCodec(worldCfg)
	generator := mapgen.New(worldCfg)

	w, err := bootstrapWorld(cfg, codec, generator, mapPath, statePath)
	if err != nil {
		return err
	}
	logger.Infof("world ready: %d nodes, %d edges", w.Graph().NodeCount(), w.Graph().EdgeCount())

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	transactionRepo := persistence.NewGormTransactionRepository(db)
	flusher := persistence.NewLedgerFlusher(transactionRepo)

	actions := common.NewActionQueue(cfg.Transport.QueueCapacity)
	signals := common.NewSignalQueue(cfg.Transport.QueueCapacity)

	med := mediator.NewMediator()
	ctrl := controller.New(w, med, actions, signals, nil)
	if err := ctrl.SetTickRate(cfg.World.TickRate); err != nil {
		return err
	}
	if err := controller.RegisterDefaults(ctrl, med, controller.Dependencies{
		Generator:      generator,
		MapCodec:       codec,
		StateCodec:     codec,
		RebuildFromMap: codec.RebuildWorld,
	}); err != nil {
		return err
	}

	extra := map[string]http.Handler{}
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		recorder := metrics.NewRecorder()
		ctrl.SetTickRecorder(recorder)
		extra[cfg.Metrics.Path] = metrics.Handler()
		logger.Infof("metrics enabled at %s", cfg.Metrics.Path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ctrl.Run()

	// Ledger flush loop, off the controller thread.
	go func() {
		if cfg.Daemon.LedgerFlushInterval <= 0 {
			return
		}
		ticker := time.NewTicker(cfg.Daemon.LedgerFlushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := flusher.Flush(context.Background(), ctrl.World().Ledger()); err != nil {
					logger.Warnf("ledger flush: %v", err)
				}
			}
		}
	}()

	// Signal handling: first signal triggers graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Infof("shutdown requested")
		cancel()
	}()

	server := transport.NewServer(actions, signals,
		transport.WithActionRateLimit(cfg.Transport.ActionsPerSecond, cfg.Transport.ActionBurst))
	logger.Infof("listening on %s:%d", cfg.Transport.Host, cfg.Transport.Port)
	serveErr := server.ListenAndServe(ctx, cfg.Transport.Host, cfg.Transport.Port, extra)

	ctrl.Shutdown()
	select {
	case <-ctrl.Done():
	case <-time.After(cfg.Daemon.ShutdownTimeout):
		logger.Warnf("controller did not stop within %s", cfg.Daemon.ShutdownTimeout)
	}

	if err := flusher.Flush(context.Background(), ctrl.World().Ledger()); err != nil {
		logger.Warnf("final ledger flush: %v", err)
	}
	return serveErr
}
