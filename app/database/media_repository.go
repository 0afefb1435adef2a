package database

import (
	"database/sql"
	"fmt"
)

// MediaRepo handles database operations for downloaded media assets
type MediaRepo struct {
	db *DB
}

var _ MediaRepository = (*MediaRepo)(nil)

// NewMediaRepository creates a new media repository
func NewMediaRepository(db *DB) *MediaRepo {
	return &MediaRepo{db: db}
}

// InsertMediaAsset stores a downloaded asset record. A duplicate filename is a
// no-op: the prior writer's record wins.
func (r *MediaRepo) InsertMediaAsset(asset MediaAsset) error {
	_, err := r.db.Exec(`
		INSERT INTO media_assets (uid_filename, original_url, content_type, size_bytes, item_external_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (uid_filename) DO NOTHING
	`, asset.UIDFilename, asset.OriginalURL, asset.ContentType, asset.SizeBytes, asset.ItemExternalID)

	if err != nil {
		return fmt.Errorf("failed to insert media asset: %w", err)
	}

	return nil
}

// GetMediaAsset returns an asset by unique filename, or nil if absent
func (r *MediaRepo) GetMediaAsset(uidFilename string) (*MediaAsset, error) {
	var asset MediaAsset
	err := r.db.QueryRow(`
		SELECT id, uid_filename, COALESCE(original_url, ''), COALESCE(content_type, ''),
		       COALESCE(size_bytes, 0), COALESCE(item_external_id, ''), saved_at
		FROM media_assets
		WHERE uid_filename = ?
	`, uidFilename).Scan(&asset.ID, &asset.UIDFilename, &asset.OriginalURL,
		&asset.ContentType, &asset.SizeBytes, &asset.ItemExternalID, &asset.SavedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media asset: %w", err)
	}

	return &asset, nil
}

// GetMediaAssetCount returns the total number of stored media assets
func (r *MediaRepo) GetMediaAssetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM media_assets").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get media asset count: %w", err)
	}
	return count, nil
}
