package media

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// SizeLimitExceededError reports a media resource larger than the configured
// maximum. Deterministic: retrying the same resource cannot succeed.
type SizeLimitExceededError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitExceededError) Error() string {
	return fmt.Sprintf("media too large: %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

// InterstitialUnresolvedError reports an HTML loader page that did not embed a
// usable direct media URL. Deterministic: the same page yields the same result.
type InterstitialUnresolvedError struct {
	URL string
}

func (e *InterstitialUnresolvedError) Error() string {
	return fmt.Sprintf("received HTML loader page without resolvable media URL: %s", e.URL)
}

// HTTPStatusError reports a non-success HTTP response. 5xx responses are
// transient; 4xx responses are not.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error: %s", e.Status)
}

// IsTransient reports whether an error is worth retrying: connection
// failures, timeouts, and 5xx responses. Deterministic per-item outcomes
// (size limit, unresolved interstitial, 4xx) are excluded so the retry
// envelope never re-examines a resource that cannot change.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}

	var sizeErr *SizeLimitExceededError
	if errors.As(err, &sizeErr) {
		return false
	}

	var interstitialErr *InterstitialUnresolvedError
	if errors.As(err, &interstitialErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// client.Do failures surface as *url.Error (connection refused, DNS, EOF)
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
