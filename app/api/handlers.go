package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reddmirror/reddmirror/app/database"
	"github.com/reddmirror/reddmirror/app/tasks"
)

func NewHandler(subscriptionRepo database.SubscriptionRepository, itemRepo database.ItemRepository,
	mediaRepo database.MediaRepository, syncService tasks.SyncRunner,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		subscriptionRepo: subscriptionRepo,
		itemRepo:         itemRepo,
		mediaRepo:        mediaRepo,
		syncService:      syncService,
		scheduler:        scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if subscriptionCount, err := h.subscriptionRepo.GetSubscriptionCount(); err == nil {
		health["subscriptions"] = subscriptionCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if subscriptionCount, err := h.subscriptionRepo.GetSubscriptionCount(); err == nil {
		stats["subscriptions"] = subscriptionCount
	}

	if total, pendingMedia, withMedia, err := h.itemRepo.GetItemStats(); err == nil {
		stats["items"] = map[string]interface{}{
			"total":         total,
			"pending_media": pendingMedia,
			"with_media":    withMedia,
		}
	}

	if assetCount, err := h.mediaRepo.GetMediaAssetCount(); err == nil {
		stats["media_assets"] = assetCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSubscriptions(c *gin.Context) {
	subscriptions, err := h.subscriptionRepo.GetSubscriptions()
	if err != nil {
		slog.Error("Database error", "operation", "list_subscriptions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(subscriptions))
	for _, sub := range subscriptions {
		list = append(list, map[string]interface{}{
			"source_id":  sub.SourceID,
			"kind":       sub.Kind,
			"title":      sub.Title,
			"created_at": sub.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"subscriptions": list,
		"total":         len(list),
	})
}

func (h *Handler) APICreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.Kind == "" {
		req.Kind = database.SubscriptionKindSubreddit
	}
	if req.Kind != database.SubscriptionKindSubreddit && req.Kind != database.SubscriptionKindRSS {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown subscription kind", "kind": req.Kind})
		return
	}
	if req.Title == "" {
		req.Title = req.SourceID
	}

	created, err := h.subscriptionRepo.CreateSubscription(req.SourceID, req.Kind, req.Title)
	if err != nil {
		slog.Error("Database error", "operation", "create_subscription", "source_id", req.SourceID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"created": false, "source_id": req.SourceID})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"created": true, "source_id": req.SourceID})
}

func (h *Handler) APIDeleteSubscription(c *gin.Context) {
	sourceID := c.Param("id")
	if sourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing subscription id parameter"})
		return
	}

	deleted, err := h.subscriptionRepo.DeleteSubscription(sourceID)
	if err != nil {
		slog.Error("Database error", "operation", "delete_subscription", "source_id", sourceID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "source_id": sourceID})
}

func (h *Handler) APIGetRecentItems(c *gin.Context) {
	sourceID := c.Param("id")
	if sourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing subscription id parameter"})
		return
	}

	sub, err := h.subscriptionRepo.GetSubscription(sourceID)
	if err != nil {
		slog.Error("Database error", "operation", "get_subscription", "source_id", sourceID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}

	limit := 25
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	items, err := h.itemRepo.GetRecentItems(sourceID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_items", "source_id", sourceID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		list = append(list, map[string]interface{}{
			"external_id":   item.ExternalID,
			"author":        item.Author,
			"created_utc":   item.CreatedUTC,
			"title":         item.Title,
			"media_url":     item.MediaURL,
			"media_uid":     item.MediaUID,
			"score":         item.Score,
			"comment_count": item.CommentCount,
			"added_at":      item.AddedAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"source_id": sourceID,
		"items":     list,
		"total":     len(list),
	})
}

func (h *Handler) APITriggerSync(c *gin.Context) {
	maxItems := 0
	if raw := c.Query("max_items"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_items parameter"})
			return
		}
		maxItems = parsed
	}

	task := tasks.NewSyncRunTask(h.syncService, maxItems)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing sync task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}
