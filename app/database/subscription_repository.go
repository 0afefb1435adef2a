package database

import (
	"database/sql"
	"fmt"
)

// SubscriptionRepo handles database operations for subscriptions
type SubscriptionRepo struct {
	db *DB
}

var _ SubscriptionRepository = (*SubscriptionRepo)(nil)

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// GetSubscriptions returns all subscriptions in listing order
func (r *SubscriptionRepo) GetSubscriptions() ([]Subscription, error) {
	rows, err := r.db.Query(`
		SELECT id, source_id, kind, COALESCE(title, ''), created_at
		FROM subscriptions
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var sub Subscription
		err := rows.Scan(&sub.ID, &sub.SourceID, &sub.Kind, &sub.Title, &sub.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}

	return subs, nil
}

// GetSubscription returns a subscription by source identifier, or nil if absent
func (r *SubscriptionRepo) GetSubscription(sourceID string) (*Subscription, error) {
	var sub Subscription
	err := r.db.QueryRow(`
		SELECT id, source_id, kind, COALESCE(title, ''), created_at
		FROM subscriptions
		WHERE source_id = ?
	`, sourceID).Scan(&sub.ID, &sub.SourceID, &sub.Kind, &sub.Title, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// GetSubscriptionCount returns the total number of subscriptions
func (r *SubscriptionRepo) GetSubscriptionCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM subscriptions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get subscription count: %w", err)
	}
	return count, nil
}

// CreateSubscription inserts a subscription. A duplicate source identifier is
// a no-op; the bool reports whether a row was actually created.
func (r *SubscriptionRepo) CreateSubscription(sourceID, kind, title string) (bool, error) {
	if kind == "" {
		kind = SubscriptionKindSubreddit
	}

	result, err := r.db.Exec(`
		INSERT INTO subscriptions (source_id, kind, title)
		VALUES (?, ?, ?)
		ON CONFLICT (source_id) DO NOTHING
	`, sourceID, kind, title)
	if err != nil {
		return false, fmt.Errorf("failed to create subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// DeleteSubscription removes a subscription by source identifier
func (r *SubscriptionRepo) DeleteSubscription(sourceID string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM subscriptions WHERE source_id = ?", sourceID)
	if err != nil {
		return false, fmt.Errorf("failed to delete subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}
