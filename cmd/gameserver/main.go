package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dogpark/server/internal/app"
	"github.com/dogpark/server/internal/config"
	"github.com/dogpark/server/internal/data"
	"github.com/dogpark/server/internal/httpapi"
	"github.com/dogpark/server/internal/persist"
	"github.com/dogpark/server/internal/scripting"
	"github.com/dogpark/server/internal/snapshot"
)

// dbURLEnv names the environment variable holding the Postgres DSN.
const dbURLEnv = "GAME_DB_URL"

func main() {
	cmd := &cli.Command{
		Name:  "gameserver",
		Usage: "authoritative game server for the dog gathering game",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config-file",
				Aliases:  []string{"c"},
				Usage:    "path to the game config (maps, loot, retirement)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "www-root",
				Aliases:  []string{"w"},
				Usage:    "directory with the static front-end files",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "tick-period",
				Aliases: []string{"t"},
				Usage:   "game tick period in milliseconds; 0 switches to API-driven ticks",
			},
			&cli.StringFlag{
				Name:    "state-file",
				Aliases: []string{"s"},
				Usage:   "path to the game state file; empty disables persistence",
			},
			&cli.IntFlag{
				Name:    "save-state-period",
				Aliases: []string{"p"},
				Usage:   "autosave period in milliseconds of game time",
			},
			&cli.BoolFlag{
				Name:  "randomize-spawn-points",
				Usage: "spawn dogs at random road positions",
			},
			&cli.StringFlag{
				Name:  "server-config",
				Usage: "path to the server settings TOML",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := config.Args{
				ConfigPath:      cmd.String("config-file"),
				SettingsPath:    cmd.String("server-config"),
				WWWRoot:         cmd.String("www-root"),
				TickPeriod:      time.Duration(cmd.Int("tick-period")) * time.Millisecond,
				StateFile:       cmd.String("state-file"),
				SavePeriod:      time.Duration(cmd.Int("save-state-period")) * time.Millisecond,
				RandomizeSpawns: cmd.Bool("randomize-spawn-points"),
			}
			return run(ctx, args)
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args config.Args) error {
	cfg, err := config.Load(args.SettingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	dsn := os.Getenv(dbURLEnv)
	if dsn == "" {
		return fmt.Errorf("%s environment variable is not set", dbURLEnv)
	}

	game, extra, err := data.LoadGame(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("load game config: %w", err)
	}
	if args.RandomizeSpawns {
		game.SetRandomize()
	}
	if args.TickPeriod > 0 {
		game.SetAutoTick()
	}

	players := app.NewPlayers()
	tokens := app.NewPlayerTokens()

	if args.StateFile != "" {
		if _, err := os.Stat(args.StateFile); err == nil {
			state, err := snapshot.Load(args.StateFile)
			if err != nil {
				return fmt.Errorf("load state: %w", err)
			}
			if err := snapshot.Restore(state, game, players, tokens); err != nil {
				return fmt.Errorf("restore state: %w", err)
			}
			log.Info("state restored", zap.String("file", args.StateFile))
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat state file: %w", err)
		}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := persist.NewDB(dbCtx, dsn, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if err := persist.RunMigrations(dbCtx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	application := app.New(game, players, tokens, persist.NewRetireRepo(db), extra, log)

	if cfg.Scripting.Hooks != "" {
		engine, err := scripting.NewEngine(cfg.Scripting.Hooks, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer engine.Close()
		application.SetHooks(engine)
	}

	// The final snapshot happens whenever a state file is configured.
	// Per-tick autosave needs a save period in auto mode; manual mode
	// saves after every tick.
	var saver *snapshot.Listener
	if args.StateFile != "" {
		saver = snapshot.NewListener(game, players, tokens, args.StateFile, args.SavePeriod, log)
		if args.TickPeriod == 0 || args.SavePeriod > 0 {
			application.SetListener(saver)
		}
	}

	apiServer := httpapi.NewServer(application, args.WWWRoot, log)
	httpServer := &http.Server{
		Addr:    cfg.Server.BindAddress,
		Handler: apiServer,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	log.Info("server started",
		zap.String("address", cfg.Server.BindAddress),
		zap.Duration("tick_period", args.TickPeriod),
		zap.Bool("auto_tick", args.TickPeriod > 0))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	var tickCh <-chan time.Time
	if args.TickPeriod > 0 {
		ticker := time.NewTicker(args.TickPeriod)
		defer ticker.Stop()
		tickCh = ticker.C
	}

	lastTick := time.Now()
loop:
	for {
		select {
		case now := <-tickCh:
			// Wall-clock delta, not the nominal period: late ticks still
			// advance game time correctly.
			dt := now.Sub(lastTick)
			lastTick = now
			if err := application.Tick(dt); err != nil {
				return fmt.Errorf("tick: %w", err)
			}
		case err := <-serveErr:
			return fmt.Errorf("http server: %w", err)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			break loop
		}
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStop()
	if err := httpServer.Shutdown(stopCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if saver != nil {
		if err := saver.SaveNow(); err != nil {
			return fmt.Errorf("final state save: %w", err)
		}
		log.Info("state saved", zap.String("file", args.StateFile))
	}
	log.Info("server stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
