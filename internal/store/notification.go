package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lokalmart/courierd/internal/model"
)

// NotificationStore is the log of displayed notifications.
type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Record logs a displayed notification. Tags are unique per event, so a
// duplicate tag means a double dispatch and is ignored.
func (s *NotificationStore) Record(rec model.NotificationRecord) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal notification data: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO notifications (tag, type, title, body, data) VALUES (?, ?, ?, ?, ?)`,
		rec.Tag, rec.Type, rec.Title, rec.Body, string(data),
	)
	if err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}

// ListRecent returns the most recently shown notifications, newest first.
func (s *NotificationStore) ListRecent(limit int) ([]model.NotificationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, tag, type, title, body, data, shown_at
		 FROM notifications ORDER BY shown_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var recs []model.NotificationRecord
	for rows.Next() {
		var rec model.NotificationRecord
		var data string
		if err := rows.Scan(&rec.ID, &rec.Tag, &rec.Type, &rec.Title, &rec.Body, &data, &rec.ShownAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
			return nil, fmt.Errorf("unmarshal notification data: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Cleanup removes log entries shown before the cutoff and returns how many
// were deleted.
func (s *NotificationStore) Cleanup(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM notifications WHERE shown_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", err)
	}
	return n, nil
}
