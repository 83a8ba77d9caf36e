package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/config"
	"github.com/Jce-C/megregalo/internal/media/dataurl"
	"github.com/Jce-C/megregalo/internal/queue"
	"github.com/Jce-C/megregalo/internal/repository"
)

var jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

type fakeObjectStore struct {
	puts map[string][]byte
	err  error
}

func (f *fakeObjectStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	f.puts[bucket+"/"+key] = data
	return nil
}

func (f *fakeObjectStore) PublicURL(bucket, key string) string {
	return "https://cdn.example/" + bucket + "/" + key
}

func (f *fakeObjectStore) OriginalsBucket() string { return "originals" }

type fakeEnqueuer struct {
	tasks []queue.Task
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, task queue.Task) error {
	f.tasks = append(f.tasks, task)
	return nil
}

func newService(store ObjectStore, q Enqueuer) *PhotoService {
	svc := NewPhotoService(repository.NewMemoryPhotoRepository(), store, q, config.PhotosConfig{MaxUploadBytes: 1024}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestUploadKeepsDataURLWithoutObjectStore(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil, nil)
	input := UploadInput{Filename: "us.jpg", DataURL: dataurl.Encode("image/jpeg", jpegBytes)}

	photo, err := svc.Upload(ctx, input)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if photo.URL != input.DataURL {
		t.Fatalf("expected data url to be stored verbatim, got %q", photo.URL)
	}
	if photo.Filename != "us.jpg" || photo.ID == "" || photo.UploadedAt.IsZero() {
		t.Fatalf("unexpected photo %+v", photo)
	}

	photos, err := svc.List(ctx)
	if err != nil || len(photos) != 1 {
		t.Fatalf("expected one listed photo, got %d (%v)", len(photos), err)
	}
}

func TestUploadToObjectStoreEnqueuesIngest(t *testing.T) {
	store := &fakeObjectStore{}
	q := &fakeEnqueuer{}
	svc := newService(store, q)

	photo, err := svc.Upload(context.Background(), UploadInput{Filename: "us.jpg", DataURL: dataurl.Encode("image/jpeg", jpegBytes)})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(photo.URL, "https://cdn.example/originals/2026/02/14/") || !strings.HasSuffix(photo.URL, ".jpg") {
		t.Fatalf("expected object url, got %q", photo.URL)
	}
	if len(store.puts) != 1 {
		t.Fatalf("expected one object, got %d", len(store.puts))
	}
	if len(q.tasks) != 1 || q.tasks[0].Type != queue.TaskIngest || q.tasks[0].PhotoID != photo.ID {
		t.Fatalf("expected ingest task for %s, got %+v", photo.ID, q.tasks)
	}
}

func TestUploadObjectStoreFailureDegradesToDataURL(t *testing.T) {
	store := &fakeObjectStore{err: errors.New("connection reset")}
	q := &fakeEnqueuer{}
	svc := newService(store, q)
	input := UploadInput{Filename: "us.jpg", DataURL: dataurl.Encode("image/jpeg", jpegBytes)}

	photo, err := svc.Upload(context.Background(), input)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if photo.URL != input.DataURL {
		t.Fatalf("expected data url fallback, got %q", photo.URL)
	}
	if len(q.tasks) != 0 {
		t.Fatalf("expected no ingest task, got %+v", q.tasks)
	}
}

func TestUploadSanitizesSVG(t *testing.T) {
	svc := newService(nil, nil)
	doc := []byte(`<svg xmlns="http://www.w3.org/2000/svg" onload="steal()"><circle r="4"/></svg>`)

	photo, err := svc.Upload(context.Background(), UploadInput{Filename: "heart.svg", DataURL: dataurl.Encode("image/svg+xml", doc)})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	parsed, err := dataurl.Parse(photo.URL)
	if err != nil {
		t.Fatalf("parse stored url: %v", err)
	}
	if strings.Contains(string(parsed.Data), "onload") {
		t.Fatalf("expected sanitized svg, got %s", parsed.Data)
	}
}

func TestUploadValidation(t *testing.T) {
	svc := newService(nil, nil)
	cases := []struct {
		name  string
		input UploadInput
		want  error
	}{
		{"missing filename", UploadInput{DataURL: dataurl.Encode("image/jpeg", jpegBytes)}, ErrMissingFields},
		{"missing data", UploadInput{Filename: "a.jpg"}, ErrMissingFields},
		{"not a data url", UploadInput{Filename: "a.jpg", DataURL: "https://example.com/a.jpg"}, ErrInvalidDataURL},
		{"not an image", UploadInput{Filename: "a.txt", DataURL: dataurl.Encode("text/plain", []byte("hello"))}, ErrUnsupportedImage},
		{"mime mismatch", UploadInput{Filename: "a.png", DataURL: dataurl.Encode("image/png", jpegBytes)}, ErrUnsupportedImage},
		{"too large", UploadInput{Filename: "a.jpg", DataURL: dataurl.Encode("image/jpeg", append(jpegBytes, make([]byte, 2048)...))}, ErrTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUploadStripsDirectories(t *testing.T) {
	svc := newService(nil, nil)
	photo, err := svc.Upload(context.Background(), UploadInput{Filename: `C:\Users\me\us.jpg`, DataURL: dataurl.Encode("image/jpeg", jpegBytes)})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if photo.Filename != "us.jpg" {
		t.Fatalf("expected us.jpg, got %q", photo.Filename)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil, nil)
	photo, err := svc.Upload(ctx, UploadInput{Filename: "us.jpg", DataURL: dataurl.Encode("image/jpeg", jpegBytes)})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.Delete(ctx, photo.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, photo.ID); !errors.Is(err, repository.ErrPhotoNotFound) {
		t.Fatalf("expected ErrPhotoNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "  "); !errors.Is(err, repository.ErrPhotoNotFound) {
		t.Fatalf("expected ErrPhotoNotFound for blank id, got %v", err)
	}
}
