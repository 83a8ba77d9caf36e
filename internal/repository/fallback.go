package repository

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/models"
)

// degrade runs the durable operation and, when it fails, answers the call
// from the fallback instead. Only the failing call degrades; the next call
// tries the durable store again.
func degrade[T any](ctx context.Context, log zerolog.Logger, op string, durable, fallback func(context.Context) (T, error)) (T, error) {
	value, err := durable(ctx)
	if err == nil {
		return value, nil
	}

	log.Error().Err(err).Str("op", op).Msg("durable photo store failed, using in-memory store")
	return fallback(ctx)
}

// FallbackPhotoRepository pairs a durable repository with an in-memory one.
type FallbackPhotoRepository struct {
	durable PhotoRepository
	memory  *MemoryPhotoRepository
	log     zerolog.Logger
}

func NewFallbackPhotoRepository(durable PhotoRepository, memory *MemoryPhotoRepository, log zerolog.Logger) *FallbackPhotoRepository {
	return &FallbackPhotoRepository{
		durable: durable,
		memory:  memory,
		log:     log,
	}
}

func (r *FallbackPhotoRepository) Create(ctx context.Context, photo models.NewPhoto) (models.Photo, error) {
	return degrade(ctx, r.log, "create",
		func(ctx context.Context) (models.Photo, error) { return r.durable.Create(ctx, photo) },
		func(ctx context.Context) (models.Photo, error) { return r.memory.Create(ctx, photo) },
	)
}

func (r *FallbackPhotoRepository) List(ctx context.Context) ([]models.Photo, error) {
	return degrade(ctx, r.log, "list", r.durable.List, r.memory.List)
}

// Delete also consults memory when the durable store does not know the id:
// photos created while the durable store was failing live there.
func (r *FallbackPhotoRepository) Delete(ctx context.Context, id string) (bool, error) {
	return degrade(ctx, r.log, "delete",
		func(ctx context.Context) (bool, error) {
			deleted, err := r.durable.Delete(ctx, id)
			if err != nil || deleted {
				return deleted, err
			}
			return r.memory.Delete(ctx, id)
		},
		func(ctx context.Context) (bool, error) { return r.memory.Delete(ctx, id) },
	)
}
