package repository

import (
	"context"
	"errors"

	"github.com/Jce-C/megregalo/internal/models"
)

var ErrPhotoNotFound = errors.New("photo not found")

// PhotoRepository is the contract every storage backend satisfies. List
// returns the newest photos first. Delete reports false, not an error, when
// the id is unknown.
type PhotoRepository interface {
	Create(ctx context.Context, photo models.NewPhoto) (models.Photo, error)
	List(ctx context.Context) ([]models.Photo, error)
	Delete(ctx context.Context, id string) (bool, error)
}
