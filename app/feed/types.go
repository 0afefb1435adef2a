package feed

import (
	"context"
)

// Post is the closed shape of one feed source submission. The heterogeneous
// media variants (galleries, videos, previews, overridden URLs, plain links)
// are explicit fields with a fixed extraction precedence instead of ad hoc
// attribute probing.
type Post struct {
	ID                  string           `json:"id"`
	Fullname            string           `json:"name"`
	Author              string           `json:"author"`
	CreatedUTC          float64          `json:"created_utc"`
	Title               string           `json:"title"`
	SelfText            string           `json:"selftext"`
	URL                 string           `json:"url"`
	URLOverriddenByDest string           `json:"url_overridden_by_dest"`
	IsGallery           bool             `json:"is_gallery"`
	MediaMetadata       map[string]Media `json:"media_metadata"`
	IsVideo             bool             `json:"is_video"`
	SecureMedia         *SecureMedia     `json:"secure_media"`
	Preview             *Preview         `json:"preview"`
	Score               int              `json:"score"`
	NumComments         int              `json:"num_comments"`

	// Raw holds the origin payload verbatim for opaque storage
	Raw string `json:"-"`
}

// Media is one gallery entry's metadata: candidate resolutions plus a source image.
type Media struct {
	Resolutions []MediaImage `json:"p"`
	Source      *MediaImage  `json:"s"`
}

// MediaImage is a single image candidate with its declared width.
type MediaImage struct {
	URL   string `json:"u"`
	Width int    `json:"x"`
}

type SecureMedia struct {
	RedditVideo *RedditVideo `json:"reddit_video"`
}

type RedditVideo struct {
	FallbackURL string `json:"fallback_url"`
}

type Preview struct {
	Images []PreviewImage `json:"images"`
}

type PreviewImage struct {
	Source PreviewSource `json:"source"`
}

type PreviewSource struct {
	URL string `json:"url"`
}

// Client lists the most recent submissions of one source, newest first.
// after carries the opaque pagination cursor of the previous page; an empty
// returned cursor means the source is exhausted.
type Client interface {
	ListRecent(ctx context.Context, sourceID string, limit int, after string) ([]Post, string, error)
}
