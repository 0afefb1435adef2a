package media

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/reddmirror/reddmirror/app/database"
)

const (
	// interstitialProbeSize bounds how much of an HTML response body is read
	// when deciding whether it is a loader page.
	interstitialProbeSize = 1024

	// maxResolveDepth caps interstitial re-resolution. A loader page pointing
	// at another loader page fails instead of recursing.
	maxResolveDepth = 1

	defaultMaxAttempts   = 3
	defaultMinRetryDelay = 4 * time.Second
	defaultMaxRetryDelay = 10 * time.Second
	defaultMaxElapsed    = 2 * time.Minute
)

var urlExtensionPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|mp4|webm|webp)$`)

var contentTypeExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"video/mp4":  "mp4",
	"video/webm": "webm",
	"image/webp": "webp",
}

// Downloader fetches one canonical media URL into the media directory under a
// byte budget, retrying transient transport failures and resolving
// interstitial loader pages through their embedded metadata.
type Downloader struct {
	client        *http.Client
	mediaDir      string
	maxSize       int64
	userAgent     string
	maxAttempts   uint
	minRetryDelay time.Duration
	maxRetryDelay time.Duration
	maxElapsed    time.Duration
}

func NewDownloader(client *http.Client, mediaDir string, maxSize int64, userAgent string) *Downloader {
	return &Downloader{
		client:        client,
		mediaDir:      mediaDir,
		maxSize:       maxSize,
		userAgent:     userAgent,
		maxAttempts:   defaultMaxAttempts,
		minRetryDelay: defaultMinRetryDelay,
		maxRetryDelay: defaultMaxRetryDelay,
		maxElapsed:    defaultMaxElapsed,
	}
}

// Download fetches url into the media directory and returns the stored asset
// metadata. On success exactly one file is written; on failure none. Only
// transient transport failures are retried; the backoff envelope also bounds
// total wall-clock time per item.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*database.MediaAsset, error) {
	operation := func() (*database.MediaAsset, error) {
		asset, err := d.fetch(ctx, rawURL, 0)
		if err != nil && !IsTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return asset, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.minRetryDelay
	bo.MaxInterval = d.maxRetryDelay

	asset, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(d.maxAttempts),
		backoff.WithMaxElapsedTime(d.maxElapsed))
	if err != nil {
		return nil, err
	}

	slog.Debug("Media downloaded", "url", rawURL, "file", asset.UIDFilename, "size", asset.SizeBytes)

	return asset, nil
}

func (d *Downloader) fetch(ctx context.Context, rawURL string, depth int) (*database.MediaAsset, error) {
	resp, err := d.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if resp.ContentLength > d.maxSize {
		return nil, &SizeLimitExceededError{Size: resp.ContentLength, Limit: d.maxSize}
	}

	contentType := resp.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "text/html") {
		prefix := make([]byte, interstitialProbeSize)
		n, err := io.ReadFull(resp.Body, prefix)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("failed to read response prefix: %w", err)
		}
		prefix = prefix[:n]

		if isHTMLDocument(prefix) {
			directURL := extractMetaImageURL(prefix)
			if directURL == "" || depth >= maxResolveDepth {
				return nil, &InterstitialUnresolvedError{URL: rawURL}
			}

			slog.Debug("Resolving interstitial loader page", "url", rawURL, "direct_url", directURL)
			resp.Body.Close()
			return d.fetch(ctx, directURL, depth+1)
		}
	}

	// The header-probing response is not reused for body streaming; a fresh
	// GET keeps connection state unambiguous.
	resp.Body.Close()

	extension := fileExtension(rawURL, contentType)
	uidFilename := generateUID() + "." + extension

	size, err := d.streamToFile(ctx, rawURL, uidFilename)
	if err != nil {
		return nil, err
	}

	return &database.MediaAsset{
		UIDFilename: uidFilename,
		OriginalURL: rawURL,
		ContentType: contentType,
		SizeBytes:   size,
	}, nil
}

// streamToFile re-issues the GET and streams the body into the destination
// file. The partial file is removed on any failure, including the stream
// exceeding the byte budget mid-flight.
func (d *Downloader) streamToFile(ctx context.Context, rawURL, uidFilename string) (int64, error) {
	resp, err := d.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	path := filepath.Join(d.mediaDir, uidFilename)
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create media file: %w", err)
	}

	written, err := io.Copy(file, io.LimitReader(resp.Body, d.maxSize+1))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write media file: %w", err)
	}
	if written > d.maxSize {
		os.Remove(path)
		return 0, &SizeLimitExceededError{Size: written, Limit: d.maxSize}
	}

	return written, nil
}

func (d *Downloader) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	return d.client.Do(req)
}

func isHTMLDocument(prefix []byte) bool {
	return bytes.Contains(prefix, []byte("<!DOCTYPE html")) || bytes.Contains(prefix, []byte("<html"))
}

// extractMetaImageURL pulls the direct asset URL an interstitial loader page
// embeds in its open-graph or twitter metadata.
func extractMetaImageURL(prefix []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(prefix))
	if err != nil {
		return ""
	}

	if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && content != "" {
		return content
	}
	if content, ok := doc.Find(`meta[name="twitter:image"]`).Attr("content"); ok && content != "" {
		return content
	}

	return ""
}

// fileExtension derives the stored file's extension from the URL path first,
// then the content type table, then a generic binary fallback.
func fileExtension(rawURL, contentType string) string {
	path := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		path = parsed.Path
	}

	if match := urlExtensionPattern.FindStringSubmatch(path); match != nil {
		return strings.ToLower(match[1])
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if extension, ok := contentTypeExtensions[mediaType]; ok {
		return extension
	}

	return "bin"
}

// generateUID returns a 128-bit random identifier as 32 hex characters.
func generateUID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
