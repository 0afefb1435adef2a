package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/reddmirror/reddmirror/app/database"
	"github.com/reddmirror/reddmirror/app/feed"
)

const pollPageSize = 100

// Poller fetches recent submissions for one subscription and shapes them into
// content items. Sources are paginated newest first; a fixed pacing delay
// separates consecutive page fetches to stay polite toward the origin.
type Poller struct {
	clients     map[string]feed.Client
	pacingDelay time.Duration
}

// NewPoller maps subscription kinds to their feed clients.
func NewPoller(clients map[string]feed.Client, pacingDelay time.Duration) *Poller {
	return &Poller{
		clients:     clients,
		pacingDelay: pacingDelay,
	}
}

// Poll returns up to limit items for the subscription, newest first. A limit
// of zero or less returns nothing.
func (p *Poller) Poll(ctx context.Context, sub database.Subscription, limit int) ([]database.ContentItem, error) {
	client, ok := p.clients[sub.Kind]
	if !ok {
		return nil, fmt.Errorf("no client for subscription kind: %s", sub.Kind)
	}

	items := make([]database.ContentItem, 0, limit)
	after := ""

	for len(items) < limit {
		pageSize := min(limit-len(items), pollPageSize)

		posts, next, err := client.ListRecent(ctx, sub.SourceID, pageSize, after)
		if err != nil {
			return nil, fmt.Errorf("failed to list source %s: %w", sub.SourceID, err)
		}

		for _, post := range posts {
			if len(items) >= limit {
				break
			}
			items = append(items, shapeItem(sub, post))
		}

		if next == "" || len(posts) == 0 {
			break
		}
		after = next

		select {
		case <-time.After(p.pacingDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return items, nil
}

func shapeItem(sub database.Subscription, post feed.Post) database.ContentItem {
	return database.ContentItem{
		ExternalID:   post.ID,
		SourceID:     sub.SourceID,
		Author:       post.Author,
		CreatedUTC:   int64(post.CreatedUTC),
		Title:        post.Title,
		Body:         post.SelfText,
		MediaURL:     feed.ExtractMediaURL(post),
		Score:        post.Score,
		CommentCount: post.NumComments,
		RawJSON:      post.Raw,
	}
}
