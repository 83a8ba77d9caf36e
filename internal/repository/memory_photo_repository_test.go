package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Jce-C/megregalo/internal/models"
)

func TestMemoryPhotoRepositoryCreateListDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPhotoRepository()

	base := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := repo.Create(ctx, models.NewPhoto{Filename: "a.jpg", URL: "data:image/jpeg;base64,AA=="})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := repo.Create(ctx, models.NewPhoto{Filename: "b.jpg", URL: "https://cdn.example/b.jpg"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(first.ID, "photo-") {
		t.Fatalf("expected photo- id, got %q", first.ID)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %q twice", first.ID)
	}

	photos, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(photos))
	}
	if photos[0].ID != second.ID {
		t.Fatalf("expected newest first, got %q", photos[0].ID)
	}

	deleted, err := repo.Delete(ctx, first.ID)
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got %v %v", deleted, err)
	}
	deleted, err = repo.Delete(ctx, first.ID)
	if err != nil || deleted {
		t.Fatalf("expected second delete to report false, got %v %v", deleted, err)
	}

	photos, _ = repo.List(ctx)
	if len(photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(photos))
	}
}

func TestMemoryPhotoRepositoryListEmptyIsNotNil(t *testing.T) {
	photos, err := NewMemoryPhotoRepository().List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if photos == nil {
		t.Fatal("expected empty slice, got nil")
	}
}
