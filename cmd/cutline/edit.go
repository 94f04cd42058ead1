package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/cutline/cutline/internal/api"
	"github.com/cutline/cutline/internal/config"
	"github.com/cutline/cutline/internal/db"
	"github.com/cutline/cutline/internal/editor"
	"github.com/cutline/cutline/internal/export"
	"github.com/cutline/cutline/internal/history"
	"github.com/cutline/cutline/internal/logging"
	"github.com/cutline/cutline/internal/playback"
	"github.com/cutline/cutline/internal/player"
	"github.com/cutline/cutline/internal/tui"
	"github.com/cutline/cutline/internal/watcher"
)

func runEdit(ctx context.Context, cmd *cli.Command) error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The terminal belongs to the TUI, so logs go to a file.
	logger, logFile, err := logging.NewFileLogger(cfg.LogLevel(), cfg.DataDir())
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger.Info("starting cutline",
		"version", config.Version,
		"data_dir", cfg.DataDir(),
		"export_url", cfg.ExportURL(),
		"player", cfg.Player(),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()
	repo := history.NewRepository(database.Conn())

	registry := playback.NewRegistry(logging.WithComponent(logger, "registry"))
	server, err := api.NewServer(api.ServerConfig{
		Port:      cfg.MediaPort(),
		Registry:  registry,
		Logger:    logging.WithComponent(logger, "api"),
		StartTime: startTime,
		Version:   config.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to start media server: %w", err)
	}
	// Until Serve owns the listener, an early return must free the port.
	serving := false
	defer func() {
		if !serving {
			server.Close()
		}
	}()

	surface, err := openSurface(ctx, cfg, logger)
	if err != nil {
		return err
	}

	coordinator := export.NewCoordinator(export.CoordinatorConfig{
		Client:  export.NewHTTPClient(cfg.ExportURL(), cfg.ExportTimeout(), logging.WithComponent(logger, "export")),
		Saver:   export.DirSaver{Dir: cfg.DownloadDir()},
		Journal: history.NewJournal(repo),
		Logger:  logging.WithComponent(logger, "export"),
	})

	ed := editor.New(editor.Config{
		Registry:    registry,
		Surface:     surface,
		Coordinator: coordinator,
		Recents:     repo,
		Logger:      logger,
	})
	defer func() {
		if err := ed.Close(); err != nil {
			logger.Warn("failed to close surface", "error", err)
		}
	}()

	fw, err := watcher.New(logging.WithComponent(logger, "watcher"))
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	model := tui.New(tui.Config{
		Context:     gCtx,
		Editor:      ed,
		Signals:     surface.Signals(),
		Watcher:     fw,
		Recents:     repo,
		DownloadDir: cfg.DownloadDir(),
		InitialFile: cmd.Args().First(),
		Logger:      logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	serving = true
	g.Go(server.Serve)

	g.Go(func() error {
		return fw.Run(gCtx)
	})

	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrInterrupted) {
			return fmt.Errorf("terminal ui: %w", err)
		}
		return nil
	})

	// Stop everything on a signal or when any part exits.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", "signal", sig.String())
		case <-gCtx.Done():
		}
		program.Quit()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown media server", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("cutline stopped with error", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// openSurface picks the playback surface named by the config. In auto mode
// mpv is preferred and the clock is the fallback.
func openSurface(ctx context.Context, cfg config.Config, logger *slog.Logger) (playback.Surface, error) {
	mpvCfg := player.MPVConfig{Path: cfg.MPVPath(), Logger: logging.WithComponent(logger, "mpv")}

	switch cfg.Player() {
	case config.PlayerMPV:
		m, err := player.StartMPV(ctx, mpvCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to start mpv: %w", err)
		}
		return m, nil

	case config.PlayerClock:
		return newClock(cfg, logger), nil
	}

	m, err := player.StartMPV(ctx, mpvCfg)
	if err == nil {
		return m, nil
	}
	logger.Warn("mpv unavailable, using clock surface", "error", err)
	return newClock(cfg, logger), nil
}

func newClock(cfg config.Config, logger *slog.Logger) *player.Clock {
	clockLogger := logging.WithComponent(logger, "clock")
	probe, err := player.NewFFProbe(cfg.FFProbePath(), clockLogger)
	if err != nil {
		logger.Warn("ffprobe unavailable, durations will stay unknown", "error", err)
		return player.NewClock(nil, clockLogger)
	}
	return player.NewClock(probe, clockLogger)
}
