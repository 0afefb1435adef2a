package tasks

import (
	"context"

	"github.com/reddmirror/reddmirror/app/sync"
)

// TaskSchedulerInterface defines the interface for background task scheduling.
// Used by the main application and the API to manage periodic sync runs.
// Example usage:
//
//	scheduler := NewScheduler(syncService)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewSyncRunTask(syncService, 0))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// SyncRunner is implemented by sync.Service.
type SyncRunner interface {
	SyncAll(ctx context.Context, maxItems int) (*sync.Report, error)
}
