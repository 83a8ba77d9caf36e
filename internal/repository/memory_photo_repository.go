package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Jce-C/megregalo/internal/ids"
	"github.com/Jce-C/megregalo/internal/models"
)

// MemoryPhotoRepository keeps photos for the lifetime of the process only.
type MemoryPhotoRepository struct {
	mu     sync.RWMutex
	photos map[string]models.Photo
	now    func() time.Time
}

func NewMemoryPhotoRepository() *MemoryPhotoRepository {
	return &MemoryPhotoRepository{
		photos: make(map[string]models.Photo),
		now:    time.Now,
	}
}

func (r *MemoryPhotoRepository) Create(ctx context.Context, photo models.NewPhoto) (models.Photo, error) {
	created := models.Photo{
		ID:         ids.WithPrefix("photo"),
		Filename:   photo.Filename,
		URL:        photo.URL,
		UploadedAt: r.now().UTC(),
	}

	r.mu.Lock()
	r.photos[created.ID] = created
	r.mu.Unlock()

	return created, nil
}

func (r *MemoryPhotoRepository) List(ctx context.Context) ([]models.Photo, error) {
	r.mu.RLock()
	photos := make([]models.Photo, 0, len(r.photos))
	for _, p := range r.photos {
		photos = append(photos, p)
	}
	r.mu.RUnlock()

	sort.SliceStable(photos, func(i, j int) bool {
		if photos[i].UploadedAt.Equal(photos[j].UploadedAt) {
			return photos[i].ID > photos[j].ID
		}
		return photos[i].UploadedAt.After(photos[j].UploadedAt)
	})
	return photos, nil
}

func (r *MemoryPhotoRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.photos[id]; !ok {
		return false, nil
	}
	delete(r.photos, id)
	return true, nil
}
