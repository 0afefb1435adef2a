package feed

import (
	"sort"
	"strings"
)

// ExtractMediaURL picks the raw media locator of a submission. Candidates are
// tried in a fixed priority order, first non-empty wins: gallery metadata
// (largest declared width), platform video fallback URL, preview image
// source, direct override URL, plain URL.
func ExtractMediaURL(post Post) string {
	if post.IsGallery && len(post.MediaMetadata) > 0 {
		if u := galleryImageURL(post.MediaMetadata); u != "" {
			return u
		}
	}

	if post.IsVideo && post.SecureMedia != nil && post.SecureMedia.RedditVideo != nil {
		if u := post.SecureMedia.RedditVideo.FallbackURL; u != "" {
			return u
		}
	}

	if post.Preview != nil && len(post.Preview.Images) > 0 {
		if u := post.Preview.Images[0].Source.URL; u != "" {
			return previewToRaw(u)
		}
	}

	if post.URLOverriddenByDest != "" {
		return post.URLOverriddenByDest
	}

	return post.URL
}

// galleryImageURL returns the first gallery entry's image, preferring the
// candidate resolution with the largest declared width over the source image.
func galleryImageURL(metadata map[string]Media) string {
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry := metadata[key]

		if len(entry.Resolutions) > 0 {
			largest := entry.Resolutions[0]
			for _, candidate := range entry.Resolutions[1:] {
				if candidate.Width > largest.Width {
					largest = candidate
				}
			}
			if largest.URL != "" {
				return previewToRaw(largest.URL)
			}
		}

		if entry.Source != nil && entry.Source.URL != "" {
			return previewToRaw(entry.Source.URL)
		}
	}

	return ""
}

func previewToRaw(u string) string {
	return strings.Replace(u, "preview.redd.it", "i.redd.it", 1)
}
