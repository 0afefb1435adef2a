package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestDownloader(t *testing.T, mediaDir string, maxSize int64) *Downloader {
	t.Helper()

	d := NewDownloader(&http.Client{Timeout: 5 * time.Second}, mediaDir, maxSize, "test-agent")
	d.minRetryDelay = time.Millisecond
	d.maxRetryDelay = 5 * time.Millisecond
	d.maxElapsed = 5 * time.Second
	return d
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read media dir: %v", err)
	}
	return len(entries)
}

func TestDownloadSuccess(t *testing.T) {
	payload := []byte("fake jpeg bytes")
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer server.Close()

	mediaDir := t.TempDir()
	d := newTestDownloader(t, mediaDir, 1024)

	asset, err := d.Download(context.Background(), server.URL+"/photo.jpg")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if asset.SizeBytes != int64(len(payload)) {
		t.Errorf("Expected size %d, got %d", len(payload), asset.SizeBytes)
	}
	if asset.ContentType != "image/jpeg" {
		t.Errorf("Expected content type 'image/jpeg', got '%s'", asset.ContentType)
	}
	if !strings.HasSuffix(asset.UIDFilename, ".jpg") {
		t.Errorf("Expected .jpg extension, got '%s'", asset.UIDFilename)
	}
	if asset.OriginalURL != server.URL+"/photo.jpg" {
		t.Errorf("Expected original URL to be recorded, got '%s'", asset.OriginalURL)
	}

	// Header probe plus body stream
	if got := requests.Load(); got != 2 {
		t.Errorf("Expected 2 requests, got %d", got)
	}

	data, err := os.ReadFile(mediaDir + "/" + asset.UIDFilename)
	if err != nil {
		t.Fatalf("Expected media file to exist: %v", err)
	}
	if string(data) != string(payload) {
		t.Error("Stored file does not match served payload")
	}
}

func TestDownloadExtensionFromContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("fake video"))
	}))
	defer server.Close()

	d := newTestDownloader(t, t.TempDir(), 1024)

	asset, err := d.Download(context.Background(), server.URL+"/clip")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.HasSuffix(asset.UIDFilename, ".mp4") {
		t.Errorf("Expected .mp4 extension from content type, got '%s'", asset.UIDFilename)
	}
}

func TestDownloadDeclaredSizeExceedsLimit(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "100000001")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	mediaDir := t.TempDir()
	d := newTestDownloader(t, mediaDir, 100_000_000)

	_, err := d.Download(context.Background(), server.URL+"/big.mp4")

	var sizeErr *SizeLimitExceededError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("Expected SizeLimitExceededError, got: %v", err)
	}
	if sizeErr.Size != 100_000_001 {
		t.Errorf("Expected reported size 100000001, got %d", sizeErr.Size)
	}

	// Deterministic failure: no retry, no partial file
	if got := requests.Load(); got != 1 {
		t.Errorf("Expected 1 request (no retries), got %d", got)
	}
	if n := countFiles(t, mediaDir); n != 0 {
		t.Errorf("Expected no files written, got %d", n)
	}
}

func TestDownloadStreamingOverflowLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		// No Content-Length: the overflow is only detectable mid-stream
		w.(http.Flusher).Flush()
		w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	mediaDir := t.TempDir()
	d := newTestDownloader(t, mediaDir, 1024)

	_, err := d.Download(context.Background(), server.URL+"/grows.png")

	var sizeErr *SizeLimitExceededError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("Expected SizeLimitExceededError, got: %v", err)
	}
	if n := countFiles(t, mediaDir); n != 0 {
		t.Errorf("Expected partial file to be removed, got %d files", n)
	}
}

func TestDownloadInterstitialResolution(t *testing.T) {
	var directRequests atomic.Int32
	payload := []byte("the real image")

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/loader", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html><html><head><meta property="og:image" content="%s/direct.jpg"></head><body>loading...</body></html>`, server.URL)
	})
	mux.HandleFunc("/direct.jpg", func(w http.ResponseWriter, r *http.Request) {
		directRequests.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	})

	mediaDir := t.TempDir()
	d := newTestDownloader(t, mediaDir, 1024)

	asset, err := d.Download(context.Background(), server.URL+"/loader")
	if err != nil {
		t.Fatalf("Expected interstitial to resolve, got: %v", err)
	}

	if asset.SizeBytes != int64(len(payload)) {
		t.Errorf("Expected size %d, got %d", len(payload), asset.SizeBytes)
	}
	if asset.OriginalURL != server.URL+"/direct.jpg" {
		t.Errorf("Expected asset to record the resolved URL, got '%s'", asset.OriginalURL)
	}
	if directRequests.Load() == 0 {
		t.Error("Expected the direct URL to be fetched")
	}
	if n := countFiles(t, mediaDir); n != 1 {
		t.Errorf("Expected exactly one media file, got %d", n)
	}
}

func TestDownloadInterstitialUnresolved(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html><html><head><title>loading</title></head><body>please wait</body></html>`))
	}))
	defer server.Close()

	mediaDir := t.TempDir()
	d := newTestDownloader(t, mediaDir, 1024)

	_, err := d.Download(context.Background(), server.URL+"/loader")

	var interstitialErr *InterstitialUnresolvedError
	if !errors.As(err, &interstitialErr) {
		t.Fatalf("Expected InterstitialUnresolvedError, got: %v", err)
	}

	// Deterministic failure: no retry
	if got := requests.Load(); got != 1 {
		t.Errorf("Expected 1 request (no retries), got %d", got)
	}
	if n := countFiles(t, mediaDir); n != 0 {
		t.Errorf("Expected no files written, got %d", n)
	}
}

func TestDownloadInterstitialDepthIsCapped(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	// A loader page pointing at another loader page must fail, not recurse
	mux.HandleFunc("/loader-a", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><head><meta property="og:image" content="%s/loader-b"></head></html>`, server.URL)
	})
	mux.HandleFunc("/loader-b", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><head><meta property="og:image" content="%s/loader-a"></head></html>`, server.URL)
	})

	d := newTestDownloader(t, t.TempDir(), 1024)

	_, err := d.Download(context.Background(), server.URL+"/loader-a")

	var interstitialErr *InterstitialUnresolvedError
	if !errors.As(err, &interstitialErr) {
		t.Fatalf("Expected InterstitialUnresolvedError, got: %v", err)
	}
}

func TestDownloadRetriesTransientFailures(t *testing.T) {
	var requests atomic.Int32
	payload := []byte("eventually fine")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/gif")
		w.Write(payload)
	}))
	defer server.Close()

	d := newTestDownloader(t, t.TempDir(), 1024)

	asset, err := d.Download(context.Background(), server.URL+"/flaky.gif")
	if err != nil {
		t.Fatalf("Expected retry to succeed, got: %v", err)
	}
	if asset.SizeBytes != int64(len(payload)) {
		t.Errorf("Expected size %d, got %d", len(payload), asset.SizeBytes)
	}
	if requests.Load() < 2 {
		t.Errorf("Expected at least 2 requests, got %d", requests.Load())
	}
}

func TestDownloadGivesUpAfterMaxAttempts(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := newTestDownloader(t, t.TempDir(), 1024)

	_, err := d.Download(context.Background(), server.URL+"/down.jpg")

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected HTTPStatusError, got: %v", err)
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		url         string
		contentType string
		expected    string
	}{
		{"https://example.com/a.JPG", "", "jpg"},
		{"https://example.com/a.jpeg?x=1", "", "jpeg"},
		{"https://example.com/clip", "video/webm", "webm"},
		{"https://example.com/clip", "image/webp; charset=binary", "webp"},
		{"https://example.com/blob", "application/octet-stream", "bin"},
		{"https://example.com/blob", "", "bin"},
	}

	for _, tt := range tests {
		if got := fileExtension(tt.url, tt.contentType); got != tt.expected {
			t.Errorf("fileExtension(%q, %q) = %q, expected %q", tt.url, tt.contentType, got, tt.expected)
		}
	}
}

func TestGenerateUIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		uid := generateUID()
		if len(uid) != 32 {
			t.Fatalf("Expected 32 hex characters, got %d (%s)", len(uid), uid)
		}
		if seen[uid] {
			t.Fatalf("Duplicate uid generated: %s", uid)
		}
		seen[uid] = true
	}
}
