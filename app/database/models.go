package database

import (
	"time"
)

// Subscription kinds. A subreddit subscription is polled through the feed
// platform's JSON listing; an rss subscription is polled by parsing the feed
// document at its source URL.
const (
	SubscriptionKindSubreddit = "subreddit"
	SubscriptionKindRSS       = "rss"
)

// Subscription is a configured remote feed source to poll. Immutable once
// created except deletion.
type Subscription struct {
	ID        int64
	SourceID  string // Unique, stable source identifier (subreddit name or feed URL)
	Kind      string
	Title     string
	CreatedAt time.Time
}

// ContentItem is one ingested unit from a feed source, keyed by the
// source-assigned external identifier.
type ContentItem struct {
	ID           int64
	ExternalID   string // Source-assigned identifier, primary dedup key
	SourceID     string
	Author       string
	CreatedUTC   int64
	Title        string
	Body         string
	MediaURL     string // Raw media locator as reported by the source
	MediaUID     string // Resolved media asset filename, set exactly once
	Score        int
	CommentCount int
	RawJSON      string // Origin payload, stored verbatim
	AddedAt      time.Time
}

// MediaAsset is one successfully downloaded media file. Never mutated after
// creation.
type MediaAsset struct {
	ID             int64
	UIDFilename    string
	OriginalURL    string
	ContentType    string
	SizeBytes      int64
	ItemExternalID string
	SavedAt        time.Time
}
