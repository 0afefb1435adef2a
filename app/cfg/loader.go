package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./reddmirror.sqlite" description:"Path to the SQLite database file"`

	// Media ingestion configuration
	MediaDir               string `long:"media-dir" env:"MEDIA_DIR" default:"./media" description:"Directory for downloaded media files"`
	MaxMediaSize           int64  `long:"max-media-size" env:"MAX_MEDIA_SIZE" default:"52428800" description:"Maximum media file size in bytes"`
	MaxConcurrentDownloads int    `long:"max-concurrent-downloads" env:"MAX_CONCURRENT_DOWNLOADS" default:"5" description:"Maximum number of concurrent media downloads"`

	// Sync configuration
	SourcesFile    string `long:"sources-file" env:"SOURCES_FILE" default:"./subscriptions.yml" description:"YAML file with subscriptions to register at startup"`
	MaxItemsPerRun int    `long:"max-items-per-run" env:"MAX_ITEMS_PER_RUN" default:"0" description:"Global item budget per sync run (0 = unbounded)"`
	PacingDelayMs  int    `long:"pacing-delay-ms" env:"PACING_DELAY_MS" default:"100" description:"Fixed delay between successive feed fetches in milliseconds"`
	SyncInterval   int    `long:"sync-interval" env:"SYNC_INTERVAL" default:"600" description:"Interval between sync runs in seconds"`

	// Feed source access
	FeedBaseURL     string `long:"feed-base-url" env:"FEED_BASE_URL" default:"https://www.reddit.com" description:"Base URL of the feed platform API"`
	FeedAccessToken string `long:"feed-access-token" env:"FEED_ACCESS_TOKEN" description:"Bearer token for the feed platform API (optional, acquired externally)"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"reddmirror/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:                 raw.DBPath,
		MediaDir:               raw.MediaDir,
		MaxMediaSize:           raw.MaxMediaSize,
		MaxConcurrentDownloads: raw.MaxConcurrentDownloads,
		SourcesFile:            raw.SourcesFile,
		MaxItemsPerRun:         raw.MaxItemsPerRun,
		PacingDelayMs:          raw.PacingDelayMs,
		SyncInterval:           raw.SyncInterval,
		FeedBaseURL:            raw.FeedBaseURL,
		FeedAccessToken:        raw.FeedAccessToken,
		Port:                   raw.Port,
		APIAccessKey:           raw.APIAccessKey,
		UserAgent:              raw.UserAgent,
		Debug:                  raw.Debug,
		Version:                GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
