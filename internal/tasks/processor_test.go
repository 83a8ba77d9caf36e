package tasks

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/config"
	"github.com/Jce-C/megregalo/internal/queue"
)

type memoryStore struct {
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (m *memoryStore) Put(_ context.Context, bucket, key string, data []byte, _ string) error {
	m.objects[bucket+"/"+key] = data
	return nil
}

func (m *memoryStore) Exists(_ context.Context, bucket, key string) (bool, error) {
	_, ok := m.objects[bucket+"/"+key]
	return ok, nil
}

func (m *memoryStore) Keys(_ context.Context, bucket string) ([]string, error) {
	var keys []string
	prefix := bucket + "/"
	for k := range m.objects {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k[len(prefix):])
		}
	}
	return keys, nil
}

func (m *memoryStore) OriginalsBucket() string { return "originals" }
func (m *memoryStore) VariantsBucket() string  { return "variants" }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 255, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestThumbnailFitsBox(t *testing.T) {
	out, err := Thumbnail(pngBytes(t, 600, 300), config.ThumbnailConfig{Size: 100, Quality: 80})
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg, got %s", format)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestHandleIngestWritesVariant(t *testing.T) {
	store := newMemoryStore()
	store.objects["originals/2024/01/01/a.png"] = pngBytes(t, 40, 40)
	p := NewProcessor(store, config.ThumbnailConfig{Size: 16}, zerolog.Nop())

	err := p.Handle(context.Background(), queue.Task{Type: queue.TaskIngest, PhotoID: "p1", Bucket: "originals", Object: "2024/01/01/a.png"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, ok := store.objects["variants/thumbs/2024/01/01/a.png"]; !ok {
		t.Fatalf("expected thumbnail, got keys %v", store.objects)
	}
}

func TestHandleIngestSkipsUndecodable(t *testing.T) {
	store := newMemoryStore()
	store.objects["originals/a.svg"] = []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	p := NewProcessor(store, config.ThumbnailConfig{}, zerolog.Nop())

	if err := p.Handle(context.Background(), queue.Task{Type: queue.TaskIngest, Object: "a.svg"}); err != nil {
		t.Fatalf("expected skip, got %v", err)
	}
	if len(store.objects) != 1 {
		t.Fatalf("expected no variant, got %v", store.objects)
	}
}

func TestHandleIngestMissingObjectIsRetried(t *testing.T) {
	p := NewProcessor(newMemoryStore(), config.ThumbnailConfig{}, zerolog.Nop())
	if err := p.Handle(context.Background(), queue.Task{Type: queue.TaskIngest, Object: "gone.png"}); err == nil {
		t.Fatal("expected error for missing original")
	}
}

func TestHandleBackfillOnlyMissing(t *testing.T) {
	store := newMemoryStore()
	store.objects["originals/a.png"] = pngBytes(t, 20, 20)
	store.objects["originals/b.png"] = pngBytes(t, 20, 20)
	store.objects["variants/thumbs/b.png"] = []byte("existing")
	p := NewProcessor(store, config.ThumbnailConfig{Size: 10}, zerolog.Nop())

	if err := p.Handle(context.Background(), queue.Task{Type: queue.TaskBackfill}); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if _, ok := store.objects["variants/thumbs/a.png"]; !ok {
		t.Fatal("expected a.png thumbnail")
	}
	if string(store.objects["variants/thumbs/b.png"]) != "existing" {
		t.Fatal("expected b.png thumbnail untouched")
	}
}

func TestUnknownTaskIsAcked(t *testing.T) {
	p := NewProcessor(newMemoryStore(), config.ThumbnailConfig{}, zerolog.Nop())
	if err := p.Handle(context.Background(), queue.Task{Type: "cleanup"}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
