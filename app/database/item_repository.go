package database

import (
	"fmt"
)

// ItemRepo handles database operations for content items
type ItemRepo struct {
	db *DB
}

var _ ItemRepository = (*ItemRepo)(nil)

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// ItemExists reports whether an item with the given external identifier is stored
func (r *ItemRepo) ItemExists(externalID string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM content_items WHERE external_id = ?", externalID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check item existence: %w", err)
	}
	return count > 0, nil
}

// InsertItem stores a new content item. A duplicate external identifier is a
// no-op, not an error: a concurrent run may have inserted the same item.
func (r *ItemRepo) InsertItem(item ContentItem) error {
	_, err := r.db.Exec(`
		INSERT INTO content_items (
			external_id, source_id, author, created_utc, title, body,
			media_url, score, comment_count, raw_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO NOTHING
	`, item.ExternalID, item.SourceID, item.Author, item.CreatedUTC,
		item.Title, item.Body, nullable(item.MediaURL), item.Score,
		item.CommentCount, item.RawJSON)

	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// UpdateItemMetrics updates only the mutable popularity metrics of an item.
// Media fields are never touched on update.
func (r *ItemRepo) UpdateItemMetrics(externalID string, score, commentCount int) error {
	_, err := r.db.Exec(`
		UPDATE content_items
		SET score = ?, comment_count = ?
		WHERE external_id = ?
	`, score, commentCount, externalID)

	if err != nil {
		return fmt.Errorf("failed to update item metrics: %w", err)
	}

	return nil
}

// SetItemMediaRef sets the resolved media reference of an item. The guard on
// media_uid keeps the transition one-way: a reference set by a concurrent
// writer is never overwritten.
func (r *ItemRepo) SetItemMediaRef(externalID, uidFilename string) error {
	_, err := r.db.Exec(`
		UPDATE content_items
		SET media_uid = ?
		WHERE external_id = ? AND media_uid IS NULL
	`, uidFilename, externalID)

	if err != nil {
		return fmt.Errorf("failed to set item media reference: %w", err)
	}

	return nil
}

// GetPendingMedia returns items with a media locator but no resolved asset
func (r *ItemRepo) GetPendingMedia() ([]PendingMediaItem, error) {
	rows, err := r.db.Query(`
		SELECT external_id, media_url
		FROM content_items
		WHERE media_url IS NOT NULL AND media_url != '' AND media_uid IS NULL
		ORDER BY added_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending media: %w", err)
	}
	defer rows.Close()

	var pending []PendingMediaItem
	for rows.Next() {
		var item PendingMediaItem
		if err := rows.Scan(&item.ExternalID, &item.MediaURL); err != nil {
			return nil, fmt.Errorf("failed to scan pending media row: %w", err)
		}
		pending = append(pending, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending media rows: %w", err)
	}

	return pending, nil
}

// GetRecentItems returns the most recently ingested items, optionally scoped
// to one source
func (r *ItemRepo) GetRecentItems(sourceID string, limit int) ([]ContentItem, error) {
	query := `
		SELECT id, external_id, COALESCE(source_id, ''), COALESCE(author, ''),
		       COALESCE(created_utc, 0), COALESCE(title, ''), COALESCE(body, ''),
		       COALESCE(media_url, ''), COALESCE(media_uid, ''),
		       score, comment_count, COALESCE(raw_json, ''), added_at
		FROM content_items
	`
	var args []interface{}
	if sourceID != "" {
		query += " WHERE source_id = ?"
		args = append(args, sourceID)
	}
	query += " ORDER BY created_utc DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent items: %w", err)
	}
	defer rows.Close()

	var items []ContentItem
	for rows.Next() {
		var item ContentItem
		err := rows.Scan(
			&item.ID, &item.ExternalID, &item.SourceID, &item.Author,
			&item.CreatedUTC, &item.Title, &item.Body,
			&item.MediaURL, &item.MediaUID,
			&item.Score, &item.CommentCount, &item.RawJSON, &item.AddedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

// GetItemStats returns counts of all items, items awaiting a media download,
// and items with a resolved media asset
func (r *ItemRepo) GetItemStats() (total, pendingMedia, withMedia int, err error) {
	err = r.db.QueryRow(`
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN media_url IS NOT NULL AND media_url != '' AND media_uid IS NULL THEN 1 ELSE 0 END), 0) as pending,
			COALESCE(SUM(CASE WHEN media_uid IS NOT NULL THEN 1 ELSE 0 END), 0) as with_media
		FROM content_items
	`).Scan(&total, &pendingMedia, &withMedia)

	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get item stats: %w", err)
	}

	return total, pendingMedia, withMedia, nil
}

// nullable maps an empty string to NULL so the pending-media predicate and
// partial index see absent locators as NULL
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
