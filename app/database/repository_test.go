package database

import (
	"testing"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestCreateSubscriptionDuplicateIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db)

	created, err := repo.CreateSubscription("golang", "", "Go news")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !created {
		t.Error("Expected first insert to create a row")
	}

	created, err = repo.CreateSubscription("golang", "", "Go news again")
	if err != nil {
		t.Fatalf("Duplicate insert should not error, got: %v", err)
	}
	if created {
		t.Error("Expected duplicate insert to be a no-op")
	}

	count, err := repo.GetSubscriptionCount()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 subscription, got %d", count)
	}

	sub, err := repo.GetSubscription("golang")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if sub == nil {
		t.Fatal("Expected subscription to exist")
	}
	if sub.Kind != SubscriptionKindSubreddit {
		t.Errorf("Expected default kind '%s', got '%s'", SubscriptionKindSubreddit, sub.Kind)
	}
	if sub.Title != "Go news" {
		t.Errorf("Expected original title to survive the duplicate insert, got '%s'", sub.Title)
	}
}

func TestDeleteSubscription(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db)

	if _, err := repo.CreateSubscription("golang", "", ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	deleted, err := repo.DeleteSubscription("golang")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !deleted {
		t.Error("Expected delete to remove a row")
	}

	deleted, err = repo.DeleteSubscription("golang")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if deleted {
		t.Error("Expected second delete to be a no-op")
	}
}

func TestInsertItemDuplicateIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	item := ContentItem{
		ExternalID: "p1",
		SourceID:   "golang",
		Author:     "gopher",
		Title:      "First post",
		MediaURL:   "https://i.redd.it/abc.jpg",
		Score:      10,
	}

	if err := repo.InsertItem(item); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// A second insert with the same external id must not error or overwrite
	item.Title = "Changed title"
	if err := repo.InsertItem(item); err != nil {
		t.Fatalf("Duplicate insert should not error, got: %v", err)
	}

	exists, err := repo.ItemExists("p1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !exists {
		t.Error("Expected item to exist")
	}

	items, err := repo.GetRecentItems("golang", 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].Title != "First post" {
		t.Errorf("Expected original title 'First post', got '%s'", items[0].Title)
	}
}

func TestUpdateItemMetricsLeavesMediaUntouched(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	item := ContentItem{
		ExternalID: "p1",
		SourceID:   "golang",
		MediaURL:   "https://i.redd.it/abc.jpg",
		Score:      1,
	}
	if err := repo.InsertItem(item); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := repo.UpdateItemMetrics("p1", 42, 7); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items, err := repo.GetRecentItems("", 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].Score != 42 || items[0].CommentCount != 7 {
		t.Errorf("Expected metrics (42, 7), got (%d, %d)", items[0].Score, items[0].CommentCount)
	}
	if items[0].MediaURL != "https://i.redd.it/abc.jpg" {
		t.Errorf("Expected media URL to be untouched, got '%s'", items[0].MediaURL)
	}
	if items[0].MediaUID != "" {
		t.Errorf("Expected media reference to stay unset, got '%s'", items[0].MediaUID)
	}
}

func TestSetItemMediaRefIsOneWay(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	item := ContentItem{ExternalID: "p1", SourceID: "golang", MediaURL: "https://i.redd.it/abc.jpg"}
	if err := repo.InsertItem(item); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := repo.SetItemMediaRef("p1", "first.jpg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// A concurrent run that lost the race must not reassign the reference
	if err := repo.SetItemMediaRef("p1", "second.jpg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items, err := repo.GetRecentItems("", 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if items[0].MediaUID != "first.jpg" {
		t.Errorf("Expected media reference 'first.jpg', got '%s'", items[0].MediaUID)
	}
}

func TestGetPendingMedia(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	withMedia := ContentItem{ExternalID: "p1", SourceID: "golang", MediaURL: "https://i.redd.it/abc.jpg"}
	noMedia := ContentItem{ExternalID: "p2", SourceID: "golang"}
	resolved := ContentItem{ExternalID: "p3", SourceID: "golang", MediaURL: "https://i.redd.it/def.jpg"}

	for _, item := range []ContentItem{withMedia, noMedia, resolved} {
		if err := repo.InsertItem(item); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}
	if err := repo.SetItemMediaRef("p3", "done.jpg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	pending, err := repo.GetPendingMedia()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending item, got %d", len(pending))
	}
	if pending[0].ExternalID != "p1" {
		t.Errorf("Expected pending item 'p1', got '%s'", pending[0].ExternalID)
	}

	total, pendingCount, withMediaCount, err := repo.GetItemStats()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if total != 3 || pendingCount != 1 || withMediaCount != 1 {
		t.Errorf("Expected stats (3, 1, 1), got (%d, %d, %d)", total, pendingCount, withMediaCount)
	}
}

func TestGetItemStatsEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	total, pending, withMedia, err := repo.GetItemStats()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if total != 0 || pending != 0 || withMedia != 0 {
		t.Errorf("Expected zero stats, got (%d, %d, %d)", total, pending, withMedia)
	}
}

func TestInsertMediaAssetDuplicateIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMediaRepository(db)

	asset := MediaAsset{
		UIDFilename:    "abc123.jpg",
		OriginalURL:    "https://i.redd.it/abc.jpg",
		ContentType:    "image/jpeg",
		SizeBytes:      1024,
		ItemExternalID: "p1",
	}

	if err := repo.InsertMediaAsset(asset); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	asset.SizeBytes = 9999
	if err := repo.InsertMediaAsset(asset); err != nil {
		t.Fatalf("Duplicate insert should not error, got: %v", err)
	}

	stored, err := repo.GetMediaAsset("abc123.jpg")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stored == nil {
		t.Fatal("Expected asset to exist")
	}
	if stored.SizeBytes != 1024 {
		t.Errorf("Expected prior writer's size 1024 to win, got %d", stored.SizeBytes)
	}

	count, err := repo.GetMediaAssetCount()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 asset, got %d", count)
	}
}
