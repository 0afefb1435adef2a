package api

import (
	"github.com/reddmirror/reddmirror/app/database"
	"github.com/reddmirror/reddmirror/app/tasks"
)

type Handler struct {
	subscriptionRepo database.SubscriptionRepository
	itemRepo         database.ItemRepository
	mediaRepo        database.MediaRepository
	syncService      tasks.SyncRunner
	scheduler        tasks.TaskSchedulerInterface
}

type createSubscriptionRequest struct {
	SourceID string `json:"source_id" binding:"required"`
	Kind     string `json:"kind"`
	Title    string `json:"title"`
}
