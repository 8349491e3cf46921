package store

import (
	"database/sql"
	"fmt"

	"github.com/lokalmart/courierd/internal/model"
)

// LocationStore is the queue of delivery-location updates awaiting upload.
// Records are created while the device is offline and deleted only after
// the backend acknowledges them.
type LocationStore struct {
	db *sql.DB
}

func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

// Enqueue stores a pending location update and returns it with its
// assigned id.
func (s *LocationStore) Enqueue(u model.LocationUpdate) (*model.LocationUpdate, error) {
	result, err := s.db.Exec(
		`INSERT INTO location_updates (delivery_id, latitude, longitude, accuracy, heading, speed, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.DeliveryID, u.Latitude, u.Longitude, u.Accuracy, u.Heading, u.Speed, u.RecordedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue location update: %w", err)
	}
	id, _ := result.LastInsertId()
	return s.GetByID(id)
}

// GetByID returns one pending update, or (nil, nil) when it does not exist.
func (s *LocationStore) GetByID(id int64) (*model.LocationUpdate, error) {
	var u model.LocationUpdate
	err := s.db.QueryRow(
		`SELECT id, delivery_id, latitude, longitude, accuracy, heading, speed, recorded_at, created_at
		 FROM location_updates WHERE id = ?`, id,
	).Scan(&u.ID, &u.DeliveryID, &u.Latitude, &u.Longitude, &u.Accuracy, &u.Heading, &u.Speed, &u.RecordedAt, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location update: %w", err)
	}
	return &u, nil
}

// ListPending returns all queued updates in insertion order.
func (s *LocationStore) ListPending() ([]model.LocationUpdate, error) {
	rows, err := s.db.Query(
		`SELECT id, delivery_id, latitude, longitude, accuracy, heading, speed, recorded_at, created_at
		 FROM location_updates ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending location updates: %w", err)
	}
	defer rows.Close()

	var updates []model.LocationUpdate
	for rows.Next() {
		var u model.LocationUpdate
		if err := rows.Scan(&u.ID, &u.DeliveryID, &u.Latitude, &u.Longitude, &u.Accuracy, &u.Heading, &u.Speed, &u.RecordedAt, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location update: %w", err)
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// Delete removes an update after a confirmed successful send.
func (s *LocationStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM location_updates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete location update: %w", err)
	}
	return nil
}

// Count returns the number of queued updates.
func (s *LocationStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM location_updates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count location updates: %w", err)
	}
	return n, nil
}
