package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/shared"
)

// FillEventRepository stores auto-fill diagnostics.
type FillEventRepository struct {
	db *sql.DB
}

// NewFillEventRepository creates a new [FillEventRepository] with the given database connection
func NewFillEventRepository(db *sql.DB) *FillEventRepository {
	return &FillEventRepository{db: db}
}

// Record inserts e, assigning an ID when missing.
func (r *FillEventRepository) Record(e *models.FillEvent) error {
	if e.ID == "" {
		e.ID = shared.GenerateID()
	}

	query := `
		INSERT INTO fill_events (id, reason, page, item_count, query, recorded_at) VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, e.ID, e.Reason, e.Page, e.Count, e.Query, e.Timestamp); err != nil {
		return fmt.Errorf("failed to insert fill event: %w", err)
	}
	return nil
}

// List returns the most recent events first, up to limit (all when limit <= 0).
func (r *FillEventRepository) List(limit int) ([]models.FillEvent, error) {
	query := "SELECT id, reason, page, item_count, query, recorded_at FROM fill_events ORDER BY recorded_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fill events: %w", err)
	}
	defer rows.Close()

	var events []models.FillEvent
	for rows.Next() {
		var e models.FillEvent
		if err := rows.Scan(&e.ID, &e.Reason, &e.Page, &e.Count, &e.Query, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan fill event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
