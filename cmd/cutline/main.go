package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/cutline/cutline/internal/config"
)

func main() {
	cmd := &cli.Command{
		Name:      "cutline",
		Usage:     "Cut a video into segments in the terminal and send them to an export service",
		Version:   config.Version,
		ArgsUsage: "[video]",
		Action:    runEdit,
		Commands: []*cli.Command{
			{
				Name:      "edit",
				Usage:     "Open the editor, optionally with a video loaded",
				ArgsUsage: "[video]",
				Action:    runEdit,
			},
			{
				Name:      "export",
				Usage:     "Export the segments of a cut list without opening the editor",
				ArgsUsage: "<video>",
				Action:    runExport,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "segments",
						Aliases:  []string{"s"},
						Usage:    "Path to a YAML or JSON cut list",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "mute",
						Usage: "Strip audio from the exported video",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Directory to save the exported video in",
						Sources: cli.EnvVars(config.EnvDownloadDir),
					},
				},
			},
			{
				Name:   "history",
				Usage:  "List recent exports",
				Action: runHistory,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of exports to show",
						Value:   20,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
