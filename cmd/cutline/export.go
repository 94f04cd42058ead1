package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/cutline/cutline/internal/config"
	"github.com/cutline/cutline/internal/db"
	"github.com/cutline/cutline/internal/editor"
	"github.com/cutline/cutline/internal/export"
	"github.com/cutline/cutline/internal/history"
	"github.com/cutline/cutline/internal/logging"
	"github.com/cutline/cutline/internal/segments"
)

func runExport(ctx context.Context, cmd *cli.Command) error {
	videoPath := cmd.Args().First()
	if videoPath == "" {
		return errors.New("a video file is required")
	}

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLogger(cfg.LogLevel(), os.Stderr)

	abs, err := filepath.Abs(videoPath)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	mimeType, err := editor.DetectMimeType(abs)
	if err != nil {
		return err
	}

	cuts, err := export.LoadCutList(cmd.String("segments"))
	if err != nil {
		return err
	}
	store := segments.NewStore()
	store.Append(cuts...)
	if store.Len() == 0 {
		return errors.New("the cut list has no segments")
	}

	outDir := cmd.String("out")
	if outDir == "" {
		outDir = cfg.DownloadDir()
	}

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	coordinator := export.NewCoordinator(export.CoordinatorConfig{
		Client:  export.NewHTTPClient(cfg.ExportURL(), cfg.ExportTimeout(), logger),
		Saver:   export.DirSaver{Dir: outDir},
		Journal: history.NewJournal(history.NewRepository(database.Conn())),
		Notifier: export.NotifierFunc(func(message string) {
			fmt.Fprintln(os.Stderr, message)
		}),
		Logger: logger,
	})

	snap := export.Snapshot{
		Source: export.Source{
			Path:     abs,
			Name:     info.Name(),
			MimeType: mimeType,
			Size:     info.Size(),
		},
		Muted:    cmd.Bool("mute"),
		Segments: store.List(),
	}

	fmt.Fprintf(os.Stderr, "Exporting %d clips from %s (%s)...\n", store.Len(), info.Name(), humanize.Bytes(uint64(info.Size())))

	res, _ := coordinator.Start(ctx, snap)
	if res.Status != export.StatusCompleted {
		return errors.New("export did not complete")
	}
	fmt.Println(res.OutputPath)
	return nil
}
