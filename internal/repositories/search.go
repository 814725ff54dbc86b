package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/shutter/internal/models"
)

// MaxRecentSearches bounds the stored search history.
const MaxRecentSearches = 10

// RecentSearchRepository persists submitted search queries, most recent first.
type RecentSearchRepository struct {
	db *sql.DB
}

// NewRecentSearchRepository creates a new [RecentSearchRepository] with the given database connection
func NewRecentSearchRepository(db *sql.DB) *RecentSearchRepository {
	return &RecentSearchRepository{db: db}
}

// Add pushes query to the front of the history.
//
// A query already present moves to the front without growing the list, and
// the oldest entries beyond [MaxRecentSearches] are dropped.
func (r *RecentSearchRepository) Add(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	sequence, err := NextSequence(r.db, "recent_searches")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO recent_searches (query, sequence, searched_at) VALUES (?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET sequence = excluded.sequence, searched_at = excluded.searched_at
	`
	if _, err := tx.Exec(upsert, query, sequence, time.Now()); err != nil {
		return fmt.Errorf("failed to store search: %w", err)
	}

	trim := `
		DELETE FROM recent_searches
		WHERE query NOT IN (SELECT query FROM recent_searches ORDER BY sequence DESC LIMIT ?)
	`
	if _, err := tx.Exec(trim, MaxRecentSearches); err != nil {
		return fmt.Errorf("failed to trim search history: %w", err)
	}

	return tx.Commit()
}

// Recent returns up to limit entries, most recent first. A non-positive limit returns all.
func (r *RecentSearchRepository) Recent(limit int) ([]models.RecentSearch, error) {
	if limit <= 0 || limit > MaxRecentSearches {
		limit = MaxRecentSearches
	}

	rows, err := r.db.Query("SELECT query, sequence, searched_at FROM recent_searches ORDER BY sequence DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	var searches []models.RecentSearch
	for rows.Next() {
		var s models.RecentSearch
		if err := rows.Scan(&s.Query, &s.Sequence, &s.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		searches = append(searches, s)
	}
	return searches, rows.Err()
}

// Clear removes the whole history.
func (r *RecentSearchRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM recent_searches"); err != nil {
		return fmt.Errorf("failed to clear search history: %w", err)
	}
	return nil
}
