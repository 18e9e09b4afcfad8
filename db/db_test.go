package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/copylens/analyzer/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	database, err := New(Config{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

func newTestAnalysis(url, slug string) *models.Analysis {
	now := time.Now().UTC()
	return &models.Analysis{
		ID:        uuid.New().String(),
		URL:       url,
		Slug:      slug,
		Status:    models.StatusAnalyzing,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSaveAndGetByID(t *testing.T) {
	database := setupTestDB(t)

	a := newTestAnalysis("https://example.com", "example-com")
	if err := database.Save(a); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := database.GetByID(a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected analysis, got nil")
	}
	if got.URL != a.URL {
		t.Errorf("expected URL %q, got %q", a.URL, got.URL)
	}
	if got.Status != models.StatusAnalyzing {
		t.Errorf("expected status analyzing, got %s", got.Status)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	database := setupTestDB(t)

	got, err := database.GetByID("nonexistent")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing id, got %+v", got)
	}
}

func TestUpdateTerminalWrite(t *testing.T) {
	database := setupTestDB(t)

	a := newTestAnalysis("https://example.com", "example-com")
	if err := database.Save(a); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	a.Status = models.StatusCompleted
	a.Content = &models.ExtractedContent{Headline: "Get 3x More Leads Today"}
	a.Slug = "get-3x-more-leads-today"
	if err := database.Update(a); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := database.GetByID(a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("expected status completed, got %s", got.Status)
	}
	if got.Content == nil || got.Content.Headline != "Get 3x More Leads Today" {
		t.Errorf("expected stored content, got %+v", got.Content)
	}
	if got.Slug != "get-3x-more-leads-today" {
		t.Errorf("expected refined slug, got %q", got.Slug)
	}
}

func TestUpdateStatusFailed(t *testing.T) {
	database := setupTestDB(t)

	a := newTestAnalysis("https://example.com", "example-com")
	if err := database.Save(a); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := database.UpdateStatus(a.ID, models.StatusFailed, "fetch failed: status 404"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, _ := database.GetByID(a.ID)
	if got.Status != models.StatusFailed {
		t.Errorf("expected status failed, got %s", got.Status)
	}
	if got.Error != "fetch failed: status 404" {
		t.Errorf("expected error message, got %q", got.Error)
	}
}

func TestGetBySlug(t *testing.T) {
	database := setupTestDB(t)

	a := newTestAnalysis("https://example.com/pricing", "example-pricing")
	if err := database.Save(a); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := database.GetBySlug("example-pricing")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Errorf("expected analysis %s by slug, got %+v", a.ID, got)
	}

	missing, err := database.GetBySlug("no-such-slug")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing slug, got %+v", missing)
	}
}

func TestGetByURLReturnsLatestCompleted(t *testing.T) {
	database := setupTestDB(t)

	url := "https://example.com"

	older := newTestAnalysis(url, "example-old")
	older.Status = models.StatusCompleted
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	if err := database.Save(older); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	newer := newTestAnalysis(url, "example-new")
	newer.Status = models.StatusCompleted
	if err := database.Save(newer); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	pending := newTestAnalysis(url, "example-pending")
	if err := database.Save(pending); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := database.GetByURL(url)
	if err != nil {
		t.Fatalf("GetByURL failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected completed analysis, got nil")
	}
	if got.ID != newer.ID {
		t.Errorf("expected latest completed analysis %s, got %s", newer.ID, got.ID)
	}
}

func TestDeleteByID(t *testing.T) {
	database := setupTestDB(t)

	a := newTestAnalysis("https://example.com", "example-com")
	if err := database.Save(a); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := database.DeleteByID(a.ID); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}

	got, _ := database.GetByID(a.ID)
	if got != nil {
		t.Errorf("expected analysis deleted, got %+v", got)
	}

	if err := database.DeleteByID(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting missing analysis, got %v", err)
	}
}

func TestListAndCount(t *testing.T) {
	database := setupTestDB(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		a := newTestAnalysis("https://example.com/"+uuid.New().String(), uuid.New().String())
		a.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := database.Save(a); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	count, err := database.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("expected count 5, got %d", count)
	}

	page, err := database.List(2, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 results, got %d", len(page))
	}
	if page[0].CreatedAt.Before(page[1].CreatedAt) {
		t.Error("expected newest-first ordering")
	}

	rest, err := database.List(10, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rest) != 3 {
		t.Errorf("expected 3 remaining results, got %d", len(rest))
	}
}

func TestSlugExists(t *testing.T) {
	database := setupTestDB(t)

	a := newTestAnalysis("https://example.com", "taken-slug")
	if err := database.Save(a); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	exists, err := database.SlugExists("taken-slug")
	if err != nil {
		t.Fatalf("SlugExists failed: %v", err)
	}
	if !exists {
		t.Error("expected slug to exist")
	}

	exists, err = database.SlugExists("free-slug")
	if err != nil {
		t.Fatalf("SlugExists failed: %v", err)
	}
	if exists {
		t.Error("expected slug to be free")
	}
}
