package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cutline/cutline/internal/config"
	"github.com/cutline/cutline/internal/history"
	"github.com/cutline/cutline/internal/logging"
	"github.com/cutline/cutline/internal/player"
)

func TestOpenSurfaceClockWithoutFFProbe(t *testing.T) {
	t.Setenv(config.EnvDataDir, t.TempDir())
	t.Setenv(config.EnvPlayer, config.PlayerClock)
	t.Setenv(config.EnvFFProbePath, filepath.Join(t.TempDir(), "no-ffprobe"))

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New() error = %v", err)
	}

	surface, err := openSurface(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("openSurface() error = %v", err)
	}
	defer surface.Close()

	if _, ok := surface.(*player.Clock); !ok {
		t.Errorf("surface = %T, want *player.Clock", surface)
	}
}

func TestOpenSurfaceMPVMissing(t *testing.T) {
	t.Setenv(config.EnvDataDir, t.TempDir())
	t.Setenv(config.EnvPlayer, config.PlayerMPV)
	t.Setenv(config.EnvMPVPath, filepath.Join(t.TempDir(), "no-mpv"))

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New() error = %v", err)
	}

	if _, err := openSurface(context.Background(), cfg, logging.Discard()); err == nil {
		t.Error("expected an error when mpv is required but missing")
	}
}

func TestOpenSurfaceAutoFallsBackToClock(t *testing.T) {
	t.Setenv(config.EnvDataDir, t.TempDir())
	t.Setenv(config.EnvPlayer, config.PlayerAuto)
	t.Setenv(config.EnvMPVPath, filepath.Join(t.TempDir(), "no-mpv"))
	t.Setenv(config.EnvFFProbePath, filepath.Join(t.TempDir(), "no-ffprobe"))

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New() error = %v", err)
	}

	surface, err := openSurface(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("openSurface() error = %v", err)
	}
	defer surface.Close()

	if _, ok := surface.(*player.Clock); !ok {
		t.Errorf("surface = %T, want *player.Clock", surface)
	}
}

func TestExportResult(t *testing.T) {
	out := filepath.Join(t.TempDir(), "exported_video_1.mp4")
	if err := os.WriteFile(out, make([]byte, 2048), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		e    *history.Export
		want string
	}{
		{"completed", &history.Export{Status: history.StatusCompleted, OutputPath: out}, out + " (2.0 kB)"},
		{"completed but gone", &history.Export{Status: history.StatusCompleted, OutputPath: out + ".gone"}, "(missing)"},
		{"error", &history.Export{Status: history.StatusError, Error: "Export failed: boom"}, "Export failed: boom"},
		{"processing", &history.Export{Status: history.StatusProcessing}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exportResult(tt.e)
			if tt.want == "" {
				if got != "" {
					t.Errorf("exportResult() = %q, want empty", got)
				}
				return
			}
			if !strings.HasSuffix(got, tt.want) {
				t.Errorf("exportResult() = %q, want suffix %q", got, tt.want)
			}
		})
	}
}
