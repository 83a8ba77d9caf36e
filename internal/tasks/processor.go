package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/config"
	"github.com/Jce-C/megregalo/internal/queue"
)

const thumbPrefix = "thumbs"

// ObjectStore is what thumbnailing needs from the bucket layer.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Keys(ctx context.Context, bucket string) ([]string, error)
	OriginalsBucket() string
	VariantsBucket() string
}

type Processor struct {
	store  ObjectStore
	cfg    config.ThumbnailConfig
	logger zerolog.Logger
}

func NewProcessor(store ObjectStore, cfg config.ThumbnailConfig, logger zerolog.Logger) *Processor {
	if cfg.Size == 0 {
		cfg.Size = 300
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = 85
	}
	return &Processor{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

func (p *Processor) Handle(ctx context.Context, task queue.Task) error {
	switch task.Type {
	case queue.TaskIngest:
		return p.handleIngest(ctx, task)
	case queue.TaskBackfill:
		return p.handleBackfill(ctx)
	default:
		p.logger.Warn().Str("type", string(task.Type)).Msg("unknown task type")
		return nil
	}
}

// ThumbnailKey is where the variant of an original object lives.
func ThumbnailKey(object string) string {
	return path.Join(thumbPrefix, object)
}

func (p *Processor) handleIngest(ctx context.Context, task queue.Task) error {
	if task.Object == "" {
		p.logger.Warn().Str("photo_id", task.PhotoID).Msg("ingest task without object")
		return nil
	}
	bucket := task.Bucket
	if bucket == "" {
		bucket = p.store.OriginalsBucket()
	}

	err := p.render(ctx, bucket, task.Object)
	if errors.Is(err, image.ErrFormat) {
		// svg, webp and avif originals are served as-is
		p.logger.Info().Str("photo_id", task.PhotoID).Str("object", task.Object).Msg("skipping thumbnail for undecodable format")
		return nil
	}
	if err != nil {
		return err
	}

	p.logger.Info().Str("photo_id", task.PhotoID).Str("object", task.Object).Msg("thumbnail written")
	return nil
}

func (p *Processor) handleBackfill(ctx context.Context) error {
	bucket := p.store.OriginalsBucket()
	keys, err := p.store.Keys(ctx, bucket)
	if err != nil {
		return fmt.Errorf("list originals: %w", err)
	}

	var rendered, skipped int
	for _, key := range keys {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		exists, err := p.store.Exists(ctx, p.store.VariantsBucket(), ThumbnailKey(key))
		if err != nil {
			return fmt.Errorf("stat thumbnail %s: %w", key, err)
		}
		if exists {
			continue
		}
		if err := p.render(ctx, bucket, key); err != nil {
			if errors.Is(err, image.ErrFormat) {
				skipped++
				continue
			}
			p.logger.Error().Err(err).Str("object", key).Msg("backfill thumbnail failed")
			continue
		}
		rendered++
	}

	p.logger.Info().
		Int("originals", len(keys)).
		Int("rendered", rendered).
		Int("skipped", skipped).
		Msg("backfill complete")
	return nil
}

func (p *Processor) render(ctx context.Context, bucket, object string) error {
	raw, err := p.store.Get(ctx, bucket, object)
	if err != nil {
		return err
	}

	thumb, err := Thumbnail(raw, p.cfg)
	if err != nil {
		return err
	}

	return p.store.Put(ctx, p.store.VariantsBucket(), ThumbnailKey(object), thumb, "image/jpeg")
}

// Thumbnail scales raw down to fit a Size x Size box, keeping the aspect
// ratio, and encodes the result as JPEG.
func Thumbnail(raw []byte, cfg config.ThumbnailConfig) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode original: %w", err)
	}

	scaled := resize.Thumbnail(cfg.Size, cfg.Size, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: cfg.Quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
