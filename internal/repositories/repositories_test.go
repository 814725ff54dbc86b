package repositories

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestSettingRepository(t *testing.T) {
	t.Run("Get Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingRepository(db)
		value, err := repo.Get(SettingToken)
		if err != nil {
			t.Fatalf("failed to get setting: %v", err)
		}
		if value != "" {
			t.Errorf("expected empty value, got %q", value)
		}
	})

	t.Run("Set & Overwrite", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingRepository(db)
		if err := repo.Set(SettingToken, "a"); err != nil {
			t.Fatalf("failed to set setting: %v", err)
		}
		if err := repo.Set(SettingToken, "b"); err != nil {
			t.Fatalf("failed to overwrite setting: %v", err)
		}

		value, _ := repo.Get(SettingToken)
		if value != "b" {
			t.Errorf("expected b, got %q", value)
		}
	})

	t.Run("Empty Value Deletes", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingRepository(db)
		repo.Set(SettingCSRF, "x")
		if err := repo.Set(SettingCSRF, ""); err != nil {
			t.Fatalf("failed to clear setting: %v", err)
		}

		value, _ := repo.Get(SettingCSRF)
		if value != "" {
			t.Errorf("expected cleared value, got %q", value)
		}
	})
}

func TestRecentSearchRepository(t *testing.T) {
	t.Run("Most Recent First", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecentSearchRepository(db)
		for _, q := range []string{"a", "b", "c"} {
			if err := repo.Add(q); err != nil {
				t.Fatalf("failed to add search: %v", err)
			}
		}

		searches, err := repo.Recent(0)
		if err != nil {
			t.Fatalf("failed to list searches: %v", err)
		}
		got := queries(searches)
		if fmt.Sprint(got) != "[c b a]" {
			t.Errorf("expected [c b a], got %v", got)
		}
	})

	t.Run("Duplicate Moves To Front", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecentSearchRepository(db)
		for _, q := range []string{"a", "b", "c", " a "} {
			repo.Add(q)
		}

		searches, _ := repo.Recent(0)
		got := queries(searches)
		if fmt.Sprint(got) != "[a c b]" {
			t.Errorf("expected [a c b], got %v", got)
		}
	})

	t.Run("Capped At Ten", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecentSearchRepository(db)
		for i := range 15 {
			if err := repo.Add(fmt.Sprintf("q%d", i)); err != nil {
				t.Fatalf("failed to add search: %v", err)
			}
		}

		searches, _ := repo.Recent(0)
		if len(searches) != MaxRecentSearches {
			t.Fatalf("expected %d searches, got %d", MaxRecentSearches, len(searches))
		}
		if searches[0].Query != "q14" || searches[9].Query != "q5" {
			t.Errorf("expected q14..q5, got %v", queries(searches))
		}
	})

	t.Run("Limit And Blank", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecentSearchRepository(db)
		for _, q := range []string{"a", "   ", "b", "c"} {
			repo.Add(q)
		}

		searches, _ := repo.Recent(2)
		if fmt.Sprint(queries(searches)) != "[c b]" {
			t.Errorf("expected [c b], got %v", queries(searches))
		}

		if err := repo.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		searches, _ = repo.Recent(0)
		if len(searches) != 0 {
			t.Errorf("expected empty history, got %v", queries(searches))
		}
	})
}

func TestFillEventRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewFillEventRepository(db)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		e := &models.FillEvent{Timestamp: base.Add(time.Duration(i) * time.Minute), Reason: "blank_persist", Page: i + 2, Count: 30}
		if err := repo.Record(e); err != nil {
			t.Fatalf("failed to record event: %v", err)
		}
		if e.ID == "" {
			t.Error("expected ID to be assigned")
		}
	}

	events, err := repo.List(2)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Page != 4 || events[0].Reason != "blank_persist" {
		t.Errorf("expected newest event first, got %+v", events[0])
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	seq1, err := NextSequence(db, "recent_searches")
	if err != nil {
		t.Fatalf("failed to get first sequence: %v", err)
	}
	if seq1 != 1 {
		t.Errorf("expected first sequence to be 1, got %d", seq1)
	}

	seq2, err := NextSequence(db, "recent_searches")
	if err != nil {
		t.Fatalf("failed to get second sequence: %v", err)
	}
	if seq2 != 2 {
		t.Errorf("expected second sequence to be 2, got %d", seq2)
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func queries(searches []models.RecentSearch) []string {
	out := make([]string, len(searches))
	for i, s := range searches {
		out[i] = s.Query
	}
	return out
}
