package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reddmirror/reddmirror/app/database"
	"github.com/reddmirror/reddmirror/app/media"
)

const defaultPollLimit = 100

// Report summarizes one sync run. The run always completes and reports
// counts even when individual sources or downloads failed.
type Report struct {
	SubscriptionsTotal  int
	SubscriptionsFailed int
	ItemsSeen           int
	ItemsNew            int
	MetricsUpdated      int
	MediaDownloaded     int
	MediaFailed         int
}

// MediaCoordinator is implemented by media.Coordinator.
type MediaCoordinator interface {
	Run(ctx context.Context, requests []media.Request) <-chan media.Result
}

// Service orchestrates one full sync run: sequential source polling into the
// store followed by a bounded-concurrency pending-media phase.
type Service struct {
	subscriptionRepo database.SubscriptionRepository
	itemRepo         database.ItemRepository
	mediaRepo        database.MediaRepository
	poller           *Poller
	coordinator      MediaCoordinator
}

func NewService(subscriptionRepo database.SubscriptionRepository, itemRepo database.ItemRepository,
	mediaRepo database.MediaRepository, poller *Poller, coordinator MediaCoordinator) *Service {
	return &Service{
		subscriptionRepo: subscriptionRepo,
		itemRepo:         itemRepo,
		mediaRepo:        mediaRepo,
		poller:           poller,
		coordinator:      coordinator,
	}
}

// SyncAll polls every subscription sequentially, then downloads pending media.
// maxItems caps the number of items processed across all subscriptions; zero
// means unbounded. A failing subscription is logged and skipped, never
// aborting the run.
func (s *Service) SyncAll(ctx context.Context, maxItems int) (*Report, error) {
	subscriptions, err := s.subscriptionRepo.GetSubscriptions()
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	report := &Report{SubscriptionsTotal: len(subscriptions)}

	for _, sub := range subscriptions {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		limit := defaultPollLimit
		if maxItems > 0 {
			limit = maxItems - report.ItemsSeen
			if limit <= 0 {
				slog.Info("Item budget exhausted, stopping polling phase", "seen", report.ItemsSeen)
				break
			}
		}

		if err := s.syncSubscription(ctx, sub, limit, report); err != nil {
			report.SubscriptionsFailed++
			slog.Error("Failed to sync subscription, skipping", "source_id", sub.SourceID, "error", err)
		}
	}

	if err := s.downloadPendingMedia(ctx, report); err != nil {
		return report, err
	}

	slog.Info("Sync run finished",
		"subscriptions", report.SubscriptionsTotal,
		"subscriptions_failed", report.SubscriptionsFailed,
		"items_seen", report.ItemsSeen,
		"items_new", report.ItemsNew,
		"metrics_updated", report.MetricsUpdated,
		"media_downloaded", report.MediaDownloaded,
		"media_failed", report.MediaFailed)

	return report, nil
}

func (s *Service) syncSubscription(ctx context.Context, sub database.Subscription, limit int, report *Report) error {
	slog.Debug("Polling subscription", "source_id", sub.SourceID, "kind", sub.Kind, "limit", limit)

	items, err := s.poller.Poll(ctx, sub, limit)
	if err != nil {
		return err
	}

	for _, item := range items {
		report.ItemsSeen++

		exists, err := s.itemRepo.ItemExists(item.ExternalID)
		if err != nil {
			return fmt.Errorf("failed to check item %s: %w", item.ExternalID, err)
		}

		if exists {
			if err := s.itemRepo.UpdateItemMetrics(item.ExternalID, item.Score, item.CommentCount); err != nil {
				return fmt.Errorf("failed to update item %s: %w", item.ExternalID, err)
			}
			report.MetricsUpdated++
			continue
		}

		if err := s.itemRepo.InsertItem(item); err != nil {
			return fmt.Errorf("failed to insert item %s: %w", item.ExternalID, err)
		}
		report.ItemsNew++
	}

	return nil
}

// downloadPendingMedia resolves every stored item whose media locator has no
// asset yet. Each result is persisted as it completes; a failed download is
// counted and left pending for the next run.
func (s *Service) downloadPendingMedia(ctx context.Context, report *Report) error {
	pending, err := s.itemRepo.GetPendingMedia()
	if err != nil {
		return fmt.Errorf("failed to list pending media: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.Info("Starting pending media phase", "count", len(pending))

	requests := make([]media.Request, 0, len(pending))
	for _, item := range pending {
		requests = append(requests, media.Request{
			ExternalID: item.ExternalID,
			URL:        media.Normalize(item.MediaURL),
		})
	}

	for result := range s.coordinator.Run(ctx, requests) {
		if result.Err != nil {
			report.MediaFailed++
			slog.Error("Media download failed", "url", result.Request.URL,
				"external_id", result.Request.ExternalID, "error", result.Err)
			continue
		}

		asset := *result.Asset
		asset.ItemExternalID = result.Request.ExternalID

		if err := s.mediaRepo.InsertMediaAsset(asset); err != nil {
			report.MediaFailed++
			slog.Error("Failed to store media asset", "uid", asset.UIDFilename, "error", err)
			continue
		}
		if err := s.itemRepo.SetItemMediaRef(result.Request.ExternalID, asset.UIDFilename); err != nil {
			report.MediaFailed++
			slog.Error("Failed to link media asset", "uid", asset.UIDFilename, "error", err)
			continue
		}

		report.MediaDownloaded++
	}

	return nil
}
