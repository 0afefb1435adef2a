package media

import (
	"context"
	"sync"

	"github.com/reddmirror/reddmirror/app/database"
)

// Request identifies one pending media download.
type Request struct {
	ExternalID string
	URL        string
}

// Result pairs a request with its outcome. Exactly one of Asset and Err is set.
type Result struct {
	Request Request
	Asset   *database.MediaAsset
	Err     error
}

// AssetDownloader is implemented by Downloader.
type AssetDownloader interface {
	Download(ctx context.Context, url string) (*database.MediaAsset, error)
}

// Coordinator fans a batch of pending downloads out over the downloader with
// a bounded number in flight. Each download is independent: one failure never
// cancels or blocks the others.
type Coordinator struct {
	downloader    AssetDownloader
	maxConcurrent int
}

func NewCoordinator(downloader AssetDownloader, maxConcurrent int) *Coordinator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Coordinator{
		downloader:    downloader,
		maxConcurrent: maxConcurrent,
	}
}

// Run starts all requests and returns a channel of results in completion
// order. The channel is closed once every request has produced a result.
func (c *Coordinator) Run(ctx context.Context, requests []Request) <-chan Result {
	results := make(chan Result)
	sem := make(chan struct{}, c.maxConcurrent)

	var wg sync.WaitGroup
	for _, request := range requests {
		wg.Add(1)
		go func(request Request) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results <- Result{Request: request, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			asset, err := c.downloader.Download(ctx, request.URL)
			results <- Result{Request: request, Asset: asset, Err: err}
		}(request)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
