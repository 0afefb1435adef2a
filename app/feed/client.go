package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

const maxListingPageSize = 100

// RedditClient reads submission listings from the feed platform's JSON API.
// Token acquisition happens externally; an empty token falls back to the
// unauthenticated public listing endpoint.
type RedditClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	userAgent   string
}

var _ Client = (*RedditClient)(nil)

func NewRedditClient(httpClient *http.Client, baseURL, accessToken, userAgent string) *RedditClient {
	return &RedditClient{
		httpClient:  httpClient,
		baseURL:     baseURL,
		accessToken: accessToken,
		userAgent:   userAgent,
	}
}

// ListRecent returns up to limit submissions from the source's "new" listing.
func (c *RedditClient) ListRecent(ctx context.Context, sourceID string, limit int, after string) ([]Post, string, error) {
	if limit > maxListingPageSize {
		limit = maxListingPageSize
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("raw_json", "1")
	if after != "" {
		query.Set("after", after)
	}

	listingURL := fmt.Sprintf("%s/r/%s/new.json?%s", c.baseURL, url.PathEscape(sourceID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("listing request failed: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope struct {
		Data struct {
			Children []struct {
				Data json.RawMessage `json:"data"`
			} `json:"children"`
			After string `json:"after"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, "", fmt.Errorf("failed to parse listing: %w", err)
	}

	posts := make([]Post, 0, len(envelope.Data.Children))
	for _, child := range envelope.Data.Children {
		var post Post
		if err := json.Unmarshal(child.Data, &post); err != nil {
			return nil, "", fmt.Errorf("failed to parse submission: %w", err)
		}
		post.Raw = string(child.Data)
		posts = append(posts, post)
	}

	return posts, envelope.Data.After, nil
}
