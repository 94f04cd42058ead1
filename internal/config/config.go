// Package config provides configuration management for cutline.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	// Default values
	DefaultExportURL     = "http://localhost:5000"
	DefaultLogLevel      = "info"
	DefaultDataDir       = ".cutline"
	DefaultMediaPort     = 0
	DefaultPlayer        = PlayerAuto
	DefaultExportTimeout = 600 // seconds

	// Environment variable names
	EnvExportURL     = "CUTLINE_EXPORT_URL"
	EnvLogLevel      = "CUTLINE_LOG_LEVEL"
	EnvDataDir       = "CUTLINE_DATA_DIR"
	EnvDownloadDir   = "CUTLINE_DOWNLOAD_DIR"
	EnvMediaPort     = "CUTLINE_MEDIA_PORT"
	EnvPlayer        = "CUTLINE_PLAYER"
	EnvMPVPath       = "CUTLINE_MPV_PATH"
	EnvFFProbePath   = "CUTLINE_FFPROBE_PATH"
	EnvExportTimeout = "CUTLINE_EXPORT_TIMEOUT"

	// Database filename
	DBFilename = "cutline.db"

	// Player choices
	PlayerAuto  = "auto"
	PlayerMPV   = "mpv"
	PlayerClock = "clock"
)

// Config defines the application configuration interface
type Config interface {
	ExportURL() string
	LogLevel() string
	DataDir() string
	DBPath() string
	DownloadDir() string
	MediaPort() int
	Player() string
	MPVPath() string
	FFProbePath() string
	ExportTimeout() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	exportURL     string
	logLevel      string
	dataDir       string
	downloadDir   string
	mediaPort     int
	player        string
	mpvPath       string
	ffprobePath   string
	exportTimeout int
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		exportURL:     DefaultExportURL,
		logLevel:      DefaultLogLevel,
		dataDir:       defaultDataDir(),
		mediaPort:     DefaultMediaPort,
		player:        DefaultPlayer,
		exportTimeout: DefaultExportTimeout,
	}

	if u := os.Getenv(EnvExportURL); u != "" {
		cfg.exportURL = strings.TrimSuffix(u, "/")
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.downloadDir = os.Getenv(EnvDownloadDir)
	if cfg.downloadDir == "" {
		cfg.downloadDir = defaultDownloadDir(cfg.dataDir)
	}

	if p := os.Getenv(EnvMediaPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvMediaPort, err)
		}
		cfg.mediaPort = port
	}

	if pl := os.Getenv(EnvPlayer); pl != "" {
		cfg.player = strings.ToLower(pl)
	}

	cfg.mpvPath = os.Getenv(EnvMPVPath)
	cfg.ffprobePath = os.Getenv(EnvFFProbePath)

	if t := os.Getenv(EnvExportTimeout); t != "" {
		secs, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvExportTimeout, err)
		}
		cfg.exportTimeout = secs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges and formats.
func (c *EnvConfig) Validate() error {
	return validation.Errors{
		EnvExportURL:     validation.Validate(c.exportURL, validation.Required, is.URL),
		EnvDataDir:       validation.Validate(c.dataDir, validation.Required),
		EnvDownloadDir:   validation.Validate(c.downloadDir, validation.Required),
		EnvMediaPort:     validation.Validate(c.mediaPort, validation.Min(0), validation.Max(65535)),
		EnvPlayer:        validation.Validate(c.player, validation.In(PlayerAuto, PlayerMPV, PlayerClock)),
		EnvExportTimeout: validation.Validate(c.exportTimeout, validation.Min(0)),
	}.Filter()
}

// ExportURL returns the base URL of the export service
func (c *EnvConfig) ExportURL() string {
	return c.exportURL
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// DownloadDir is where exported videos are saved
func (c *EnvConfig) DownloadDir() string {
	return c.downloadDir
}

// MediaPort is the local media server port; 0 picks a free one
func (c *EnvConfig) MediaPort() int {
	return c.mediaPort
}

func (c *EnvConfig) Player() string {
	return c.player
}

func (c *EnvConfig) MPVPath() string {
	return c.mpvPath
}

func (c *EnvConfig) FFProbePath() string {
	return c.ffprobePath
}

// ExportTimeout bounds the export HTTP call; 0 disables the limit
func (c *EnvConfig) ExportTimeout() time.Duration {
	return time.Duration(c.exportTimeout) * time.Second
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// defaultDownloadDir prefers ~/Downloads and falls back to dataDir/exports.
func defaultDownloadDir(dataDir string) string {
	if home, err := os.UserHomeDir(); err == nil {
		dl := filepath.Join(home, "Downloads")
		if info, err := os.Stat(dl); err == nil && info.IsDir() {
			return dl
		}
	}
	return filepath.Join(dataDir, "exports")
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
