package media

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Hosts of the feed platform's media CDNs.
const (
	rawImageHost = "i.redd.it"
	rawVideoHost = "v.redd.it"
	previewHost  = "preview.redd.it"
)

var (
	directImageSuffixes = []string{".jpg", ".png", ".gif"}
	mediaFileSuffixes   = []string{".jpg", ".png", ".gif", ".mp4", ".webm", ".webp"}
	queryPattern        = regexp.MustCompile(`\?.*$`)
)

// Normalize converts a raw media locator into its canonical, directly
// fetchable form. Pure and idempotent; an empty input yields an empty output,
// which callers treat as "skip ingestion". Rules are evaluated in order and
// the first match wins.
func Normalize(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	// Convert image-gallery host links to direct image URLs
	if strings.Contains(parsed.Host, "imgur.com") && !hasAnySuffix(rawURL, directImageSuffixes) {
		if strings.Contains(parsed.Path, "/a/") || strings.Contains(parsed.Path, "/gallery/") {
			galleryID := lastPathSegment(parsed.Path)
			return fmt.Sprintf("https://i.imgur.com/%s.jpg", galleryID)
		}
		imageID := lastPathSegment(parsed.Path)
		return fmt.Sprintf("https://i.imgur.com/%s.jpg", imageID)
	}

	if strings.Contains(parsed.Host, "reddit.com") || strings.Contains(parsed.Host, "redd.it") {
		// Raw video CDN: resolved later by content sniffing in the downloader
		if strings.Contains(parsed.Host, rawVideoHost) {
			return rawURL
		}

		// Raw image CDN: drop all query parameters
		if strings.Contains(parsed.Host, rawImageHost) {
			return fmt.Sprintf("https://%s%s", rawImageHost, parsed.Path)
		}

		// Preview CDN: decode entity-escaped ampersands, drop sizing
		// parameters, rewrite to the raw image host
		if strings.Contains(parsed.Host, previewHost) {
			decoded := strings.ReplaceAll(rawURL, "&amp;", "&")
			if strings.Contains(decoded, "width=") {
				return strings.Replace(queryPattern.ReplaceAllString(decoded, ""), previewHost, rawImageHost, 1)
			}
			return strings.Replace(decoded, previewHost, rawImageHost, 1)
		}

		// Permalink media pages map onto the raw image CDN
		if strings.Contains(parsed.Path, "/media/") {
			mediaID := lastPathSegment(parsed.Path)
			return fmt.Sprintf("https://%s/%s", rawImageHost, mediaID)
		}
	}

	// Direct media file elsewhere: strip tracking/query parameters
	if hasAnySuffix(parsed.Path, mediaFileSuffixes) {
		return fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, parsed.Path)
	}

	return rawURL
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func lastPathSegment(path string) string {
	segments := strings.Split(path, "/")
	return segments[len(segments)-1]
}
