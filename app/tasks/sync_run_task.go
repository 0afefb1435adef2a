package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type SyncRunTask struct {
	Task
	service  SyncRunner
	maxItems int
}

func NewSyncRunTask(service SyncRunner, maxItems int) *SyncRunTask {
	return &SyncRunTask{
		Task:     NewTask(TaskTypeSyncRun),
		service:  service,
		maxItems: maxItems,
	}
}

func (t *SyncRunTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	report, err := t.service.SyncAll(ctx, t.maxItems)
	if err != nil {
		slog.Error("Task failed", "type", "SyncRun", "error", err)
		return fmt.Errorf("failed to run sync: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncRun",
		"items_new", report.ItemsNew,
		"media_downloaded", report.MediaDownloaded,
		"duration", t.GetDuration())

	return nil
}
