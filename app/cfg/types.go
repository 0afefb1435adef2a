package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Media ingestion configuration
	MediaDir               string
	MaxMediaSize           int64
	MaxConcurrentDownloads int

	// Sync configuration
	SourcesFile    string
	MaxItemsPerRun int
	PacingDelayMs  int
	SyncInterval   int

	// Feed source access
	FeedBaseURL     string
	FeedAccessToken string

	// Application configuration
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
