package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/config"
	"github.com/Jce-C/megregalo/internal/ids"
	"github.com/Jce-C/megregalo/internal/media/dataurl"
	"github.com/Jce-C/megregalo/internal/media/sniffer"
	"github.com/Jce-C/megregalo/internal/media/svg"
	"github.com/Jce-C/megregalo/internal/models"
	"github.com/Jce-C/megregalo/internal/queue"
	"github.com/Jce-C/megregalo/internal/repository"
)

var (
	ErrMissingFields    = errors.New("filename and dataUrl are required")
	ErrInvalidDataURL   = errors.New("dataUrl must be a base64 encoded image")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrTooLarge         = errors.New("image exceeds upload limit")
)

// ObjectStore is the subset of the object store uploads need.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	PublicURL(bucket, key string) string
	OriginalsBucket() string
}

type Enqueuer interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

type UploadInput struct {
	Filename string
	DataURL  string
}

type PhotoService struct {
	photos repository.PhotoRepository
	store  ObjectStore
	queue  Enqueuer
	cfg    config.PhotosConfig
	log    zerolog.Logger
	now    func() time.Time
}

// NewPhotoService wires the service. store and queue may be nil, in which
// case photos keep their data URL and no thumbnail work is scheduled.
func NewPhotoService(photos repository.PhotoRepository, store ObjectStore, queue Enqueuer, cfg config.PhotosConfig, log zerolog.Logger) *PhotoService {
	return &PhotoService{
		photos: photos,
		store:  store,
		queue:  queue,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

func (s *PhotoService) List(ctx context.Context) ([]models.Photo, error) {
	photos, err := s.photos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}

func (s *PhotoService) Upload(ctx context.Context, input UploadInput) (models.Photo, error) {
	filename := path.Base(strings.TrimSpace(strings.ReplaceAll(input.Filename, `\`, "/")))
	if filename == "" || filename == "." || filename == "/" || strings.TrimSpace(input.DataURL) == "" {
		return models.Photo{}, ErrMissingFields
	}

	parsed, err := dataurl.Parse(input.DataURL)
	if err != nil {
		return models.Photo{}, ErrInvalidDataURL
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(parsed.Data)) > s.cfg.MaxUploadBytes {
		return models.Photo{}, ErrTooLarge
	}

	kind, err := sniffer.Detect(parsed.Data)
	if err != nil {
		return models.Photo{}, ErrUnsupportedImage
	}
	if !sniffer.Consistent(parsed.MIME, kind) {
		return models.Photo{}, fmt.Errorf("%w: declared %s, actual %s", ErrUnsupportedImage, parsed.MIME, kind.MIME)
	}

	data := parsed.Data
	url := input.DataURL
	if kind.Type == sniffer.TypeSVG {
		data, err = svg.Sanitize(data)
		if err != nil {
			return models.Photo{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
		}
		url = dataurl.Encode(kind.MIME, data)
	}

	var objectKey string
	if s.store != nil {
		key := s.buildObjectKey(kind.Ext())
		if err := s.store.Put(ctx, s.store.OriginalsBucket(), key, data, kind.MIME); err != nil {
			s.log.Warn().Err(err).Str("filename", filename).Msg("object store put failed, keeping embedded image")
		} else {
			objectKey = key
			url = s.store.PublicURL(s.store.OriginalsBucket(), key)
		}
	}

	photo, err := s.photos.Create(ctx, models.NewPhoto{Filename: filename, URL: url})
	if err != nil {
		return models.Photo{}, fmt.Errorf("save photo: %w", err)
	}

	if objectKey != "" && s.queue != nil {
		task := queue.Task{
			Type:    queue.TaskIngest,
			PhotoID: photo.ID,
			Bucket:  s.store.OriginalsBucket(),
			Object:  objectKey,
		}
		if err := s.queue.Enqueue(ctx, task); err != nil {
			s.log.Warn().Err(err).Str("photo_id", photo.ID).Msg("enqueue ingest failed")
		}
	}

	s.log.Info().
		Str("photo_id", photo.ID).
		Str("format", string(kind.Type)).
		Int("size_bytes", len(data)).
		Bool("object_store", objectKey != "").
		Msg("photo uploaded")

	return photo, nil
}

func (s *PhotoService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return repository.ErrPhotoNotFound
	}
	deleted, err := s.photos.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if !deleted {
		return repository.ErrPhotoNotFound
	}
	return nil
}

func (s *PhotoService) buildObjectKey(ext string) string {
	datePrefix := s.now().UTC().Format("2006/01/02")
	return path.Join(datePrefix, fmt.Sprintf("%s.%s", ids.New(), ext))
}
