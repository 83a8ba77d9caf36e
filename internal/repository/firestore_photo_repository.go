package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Jce-C/megregalo/internal/models"
)

type firestorePhoto struct {
	Filename   string    `firestore:"filename"`
	URL        string    `firestore:"url"`
	UploadedAt time.Time `firestore:"uploadedAt"`
}

type FirestorePhotoRepository struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

func NewFirestorePhotoRepository(client *firestore.Client, collection string) *FirestorePhotoRepository {
	return &FirestorePhotoRepository{
		client:     client,
		collection: collection,
		now:        time.Now,
	}
}

func (r *FirestorePhotoRepository) Create(ctx context.Context, photo models.NewPhoto) (models.Photo, error) {
	record := firestorePhoto{
		Filename:   photo.Filename,
		URL:        photo.URL,
		UploadedAt: r.now().UTC(),
	}

	ref, _, err := r.client.Collection(r.collection).Add(ctx, record)
	if err != nil {
		return models.Photo{}, err
	}

	return models.Photo{
		ID:         ref.ID,
		Filename:   record.Filename,
		URL:        record.URL,
		UploadedAt: record.UploadedAt,
	}, nil
}

func (r *FirestorePhotoRepository) List(ctx context.Context) ([]models.Photo, error) {
	docs, err := r.client.Collection(r.collection).
		OrderBy("uploadedAt", firestore.Desc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, err
	}

	photos := make([]models.Photo, 0, len(docs))
	for _, doc := range docs {
		var record firestorePhoto
		if err := doc.DataTo(&record); err != nil {
			return nil, err
		}
		photos = append(photos, models.Photo{
			ID:         doc.Ref.ID,
			Filename:   record.Filename,
			URL:        record.URL,
			UploadedAt: record.UploadedAt.UTC(),
		})
	}
	return photos, nil
}

// Delete checks for the document first; Firestore deletes of missing
// documents succeed silently.
func (r *FirestorePhotoRepository) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	ref := r.client.Collection(r.collection).Doc(id)
	if ref == nil {
		return false, nil
	}

	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}

	if _, err := ref.Delete(ctx); err != nil {
		return false, err
	}
	return true, nil
}
