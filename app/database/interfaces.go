package database

// PendingMediaItem identifies a content item whose media locator has not been
// resolved into a stored asset yet.
type PendingMediaItem struct {
	ExternalID string
	MediaURL   string
}

type SubscriptionRepository interface {
	GetSubscriptions() ([]Subscription, error)
	GetSubscription(sourceID string) (*Subscription, error)
	GetSubscriptionCount() (int, error)

	CreateSubscription(sourceID, kind, title string) (bool, error)
	DeleteSubscription(sourceID string) (bool, error)
}

type ItemRepository interface {
	ItemExists(externalID string) (bool, error)
	InsertItem(item ContentItem) error
	UpdateItemMetrics(externalID string, score, commentCount int) error
	SetItemMediaRef(externalID, uidFilename string) error

	GetPendingMedia() ([]PendingMediaItem, error)
	GetRecentItems(sourceID string, limit int) ([]ContentItem, error)
	GetItemStats() (total, pendingMedia, withMedia int, err error)
}

type MediaRepository interface {
	InsertMediaAsset(asset MediaAsset) error
	GetMediaAsset(uidFilename string) (*MediaAsset, error)
	GetMediaAssetCount() (int, error)
}
