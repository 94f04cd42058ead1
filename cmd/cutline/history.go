package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/cutline/cutline/internal/config"
	"github.com/cutline/cutline/internal/db"
	"github.com/cutline/cutline/internal/history"
	"github.com/cutline/cutline/internal/logging"
)

func runHistory(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLogger(cfg.LogLevel(), os.Stderr)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	exports, err := history.NewRepository(database.Conn()).ListExports(ctx, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("list exports: %w", err)
	}
	if len(exports) == 0 {
		fmt.Println("No exports yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSOURCE\tCLIPS\tMUTED\tSTATUS\tTOOK\tRESULT")
	for _, e := range exports {
		took := "-"
		if d := e.Duration(); d > 0 {
			took = d.Round(100 * time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%s\t%s\t%s\n",
			humanize.Time(e.CreatedAt),
			e.SourceName,
			e.SegmentCount,
			e.Muted,
			e.Status,
			took,
			exportResult(e),
		)
	}
	return w.Flush()
}

// exportResult is the output file with its size, or the failure message.
func exportResult(e *history.Export) string {
	switch e.Status {
	case history.StatusCompleted:
		if info, err := os.Stat(e.OutputPath); err == nil {
			return fmt.Sprintf("%s (%s)", e.OutputPath, humanize.Bytes(uint64(info.Size())))
		}
		return e.OutputPath + " (missing)"
	case history.StatusError:
		return e.Error
	default:
		return ""
	}
}
