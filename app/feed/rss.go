package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mmcdole/gofeed"
)

// RSSClient polls plain RSS/Atom sources. The source identifier of an rss
// subscription is the feed URL itself; items carry no popularity metrics.
type RSSClient struct {
	parser    *gofeed.Parser
	userAgent string
}

var _ Client = (*RSSClient)(nil)

func NewRSSClient(httpClient *http.Client, userAgent string) *RSSClient {
	parser := gofeed.NewParser()
	parser.Client = httpClient
	parser.UserAgent = userAgent

	return &RSSClient{
		parser:    parser,
		userAgent: userAgent,
	}
}

// ListRecent parses the feed document and shapes its entries into posts.
// Feeds have no pagination: the cursor is always empty and one call returns
// everything available, capped at limit.
func (c *RSSClient) ListRecent(ctx context.Context, sourceID string, limit int, after string) ([]Post, string, error) {
	if after != "" {
		return nil, "", nil
	}

	parsed, err := c.parser.ParseURLWithContext(sourceID, ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse feed: %w", err)
	}

	items := parsed.Items
	if len(items) > limit {
		items = items[:limit]
	}

	posts := make([]Post, 0, len(items))
	for _, item := range items {
		post := Post{
			ID:    itemGUID(item),
			Title: item.Title,

			SelfText: item.Description,
			URL:      itemMediaURL(item),
		}

		if len(item.Authors) > 0 && item.Authors[0] != nil {
			post.Author = item.Authors[0].Name
		}
		if item.PublishedParsed != nil {
			post.CreatedUTC = float64(item.PublishedParsed.Unix())
		}

		if raw, err := json.Marshal(item); err == nil {
			post.Raw = string(raw)
		}

		posts = append(posts, post)
	}

	return posts, "", nil
}

func itemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return item.Link
}

// itemMediaURL picks an enclosure first, then the item image.
func itemMediaURL(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && enclosure.URL != "" {
			return enclosure.URL
		}
	}
	if item.Image != nil {
		return item.Image.URL
	}
	return ""
}
