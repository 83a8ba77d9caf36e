package photoclient_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/config"
	"github.com/Jce-C/megregalo/internal/handlers"
	"github.com/Jce-C/megregalo/internal/models"
	"github.com/Jce-C/megregalo/internal/photoclient"
	"github.com/Jce-C/megregalo/internal/photoclient/localstore"
	"github.com/Jce-C/megregalo/internal/repository"
	"github.com/Jce-C/megregalo/internal/server"
	"github.com/Jce-C/megregalo/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.AppConfig{Photos: config.PhotosConfig{MaxUploadBytes: 10 << 20}}
	svc := service.NewPhotoService(repository.NewMemoryPhotoRepository(), nil, nil, cfg.Photos, zerolog.Nop())
	set := handlers.NewHandlerSet(zerolog.Nop(), cfg, svc, "memory")
	srv := httptest.NewServer(server.NewEngine(cfg, zerolog.Nop(), set))
	t.Cleanup(srv.Close)
	return srv
}

func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func newLocal(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.Open(filepath.Join(t.TempDir(), "cascade.db"))
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func photoBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 20, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestListPhotosEmptyServer(t *testing.T) {
	api := newAPI(t)
	client := photoclient.New(photoclient.Config{BaseURL: api.URL}, newLocal(t), zerolog.Nop())

	listing := client.ListPhotos(context.Background())
	if listing.Fallback != nil {
		t.Fatalf("expected no fallback, got %v", listing.Fallback)
	}
	if len(listing.Photos) != 0 {
		t.Fatalf("expected empty list, got %+v", listing.Photos)
	}
}

func TestUploadThenListThroughAPI(t *testing.T) {
	api := newAPI(t)
	client := photoclient.New(photoclient.Config{BaseURL: api.URL}, newLocal(t), zerolog.Nop())

	photo, err := client.UploadPhoto(context.Background(), "us.png", photoBytes(t, 1600, 900))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if photoclient.IsLocal(photo) {
		t.Fatalf("expected server photo, got %s", photo.ID)
	}
	if !strings.HasPrefix(photo.URL, "data:image/jpeg;base64,") {
		t.Fatalf("expected compressed jpeg data URL, got %.40s", photo.URL)
	}

	listing := client.ListPhotos(context.Background())
	if listing.Fallback != nil || len(listing.Photos) != 1 || listing.Photos[0].ID != photo.ID {
		t.Fatalf("unexpected listing %+v", listing)
	}
}

func TestUploadFallsBackToLocal(t *testing.T) {
	local := newLocal(t)
	client := photoclient.New(photoclient.Config{BaseURL: deadURL(t), Timeout: time.Second}, local, zerolog.Nop())

	before := time.Now().UnixMilli()
	photo, err := client.UploadPhoto(context.Background(), "us.png", photoBytes(t, 20, 20))
	if err != nil {
		t.Fatalf("expected local fallback, got %v", err)
	}
	if !photoclient.IsLocal(photo) || photo.Filename != "us.png" {
		t.Fatalf("unexpected photo %+v", photo)
	}
	if photo.UploadedAt.UnixMilli() < before {
		t.Fatalf("expected fresh timestamp, got %v", photo.UploadedAt)
	}

	listing := client.ListPhotos(context.Background())
	if listing.Fallback == nil {
		t.Fatal("expected fallback cause")
	}
	if len(listing.Photos) != 1 || listing.Photos[0].ID != photo.ID || listing.Photos[0].URL != photo.URL {
		t.Fatalf("expected local photo in listing, got %+v", listing.Photos)
	}
}

func TestListPhotosFallbackCases(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
		}},
		{"object body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"photos":[]}`))
		}},
		{"null body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`null`))
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			local := newLocal(t)
			stored := seedLocal(t, local, "local-a", "local-b")
			client := photoclient.New(photoclient.Config{BaseURL: srv.URL}, local, zerolog.Nop())

			for i := 0; i < 2; i++ {
				listing := client.ListPhotos(context.Background())
				if listing.Fallback == nil {
					t.Fatal("expected fallback")
				}
				if !sameIDs(listing.Photos, stored) {
					t.Fatalf("call %d: expected local photos %v, got %+v", i, stored, listing.Photos)
				}
			}
		})
	}
}

func TestListPhotosFallbackEmptyLocal(t *testing.T) {
	client := photoclient.New(photoclient.Config{BaseURL: deadURL(t), Timeout: time.Second}, newLocal(t), zerolog.Nop())

	listing := client.ListPhotos(context.Background())
	if listing.Fallback == nil || listing.Photos == nil || len(listing.Photos) != 0 {
		t.Fatalf("expected empty non-nil fallback list, got %+v", listing)
	}
}

func seedLocal(t *testing.T, local *localstore.Store, ids ...string) []models.Photo {
	t.Helper()
	var out []models.Photo
	for _, id := range ids {
		photo := models.Photo{ID: id, Filename: id + ".jpg", URL: "data:image/jpeg;base64,AA==", UploadedAt: time.Now().UTC()}
		if err := local.Append(context.Background(), photo); err != nil {
			t.Fatalf("seed: %v", err)
		}
		out = append(out, photo)
	}
	return out
}

func sameIDs(got, want []models.Photo) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i].ID != want[i].ID || got[i].URL != want[i].URL {
			return false
		}
	}
	return true
}

func TestOfflineUploadsGetDistinctIDs(t *testing.T) {
	local := newLocal(t)
	client := photoclient.New(photoclient.Config{BaseURL: deadURL(t), Timeout: time.Second}, local, zerolog.Nop())
	raw := photoBytes(t, 4, 4)

	first, err := client.UploadPhoto(context.Background(), "a.png", raw)
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	second, err := client.UploadPhoto(context.Background(), "b.png", raw)
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %s twice", first.ID)
	}
	if !photoclient.IsLocal(first) || !photoclient.IsLocal(second) {
		t.Fatalf("expected local ids, got %s and %s", first.ID, second.ID)
	}
}

func TestOfflineUploadAppendsToBackup(t *testing.T) {
	local := newLocal(t)
	existing := seedLocal(t, local, "local-old")
	client := photoclient.New(photoclient.Config{BaseURL: deadURL(t), Timeout: time.Second}, local, zerolog.Nop())

	photo, err := client.UploadPhoto(context.Background(), "new.png", photoBytes(t, 8, 8))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	stored, err := local.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !sameIDs(stored, append(existing, photo)) {
		t.Fatalf("expected old photo then new one, got %+v", stored)
	}
}

func TestListPhotosStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"maintenance"}`))
	}))
	defer srv.Close()
	client := photoclient.New(photoclient.Config{BaseURL: srv.URL}, nil, zerolog.Nop())

	listing := client.ListPhotos(context.Background())
	var status *photoclient.StatusError
	if !errors.As(listing.Fallback, &status) || status.Status != http.StatusServiceUnavailable || status.Message != "maintenance" {
		t.Fatalf("expected status error, got %v", listing.Fallback)
	}
}

func TestUploadUndecodableImage(t *testing.T) {
	api := newAPI(t)
	client := photoclient.New(photoclient.Config{BaseURL: api.URL}, newLocal(t), zerolog.Nop())

	_, err := client.UploadPhoto(context.Background(), "notes.txt", []byte("hello"))
	if !errors.Is(err, photoclient.ErrProcessing) {
		t.Fatalf("expected ErrProcessing, got %v", err)
	}
}

func TestUploadBothPathsFail(t *testing.T) {
	client := photoclient.New(photoclient.Config{BaseURL: deadURL(t), Timeout: time.Second}, nil, zerolog.Nop())

	_, err := client.UploadPhoto(context.Background(), "us.png", photoBytes(t, 10, 10))
	if !errors.Is(err, photoclient.ErrProcessing) {
		t.Fatalf("expected ErrProcessing, got %v", err)
	}
}

func TestDeletePhoto(t *testing.T) {
	api := newAPI(t)
	client := photoclient.New(photoclient.Config{BaseURL: api.URL}, newLocal(t), zerolog.Nop())
	photo, err := client.UploadPhoto(context.Background(), "us.png", photoBytes(t, 10, 10))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if !client.DeletePhoto(context.Background(), photo.ID) {
		t.Fatal("expected delete to succeed")
	}
	if client.DeletePhoto(context.Background(), photo.ID) {
		t.Fatal("expected second delete to fail")
	}

	offline := photoclient.New(photoclient.Config{BaseURL: deadURL(t), Timeout: time.Second}, newLocal(t), zerolog.Nop())
	if offline.DeletePhoto(context.Background(), "local-1") {
		t.Fatal("expected delete without server to fail")
	}
}

func TestDeleteSendsAdminToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		if r.Method != http.MethodDelete || r.URL.Path != "/api/photos/abc" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := photoclient.New(photoclient.Config{BaseURL: srv.URL + "/", AdminToken: "tok"}, nil, zerolog.Nop())
	if !client.DeletePhoto(context.Background(), "abc") {
		t.Fatal("expected delete to succeed")
	}
	if got != "Bearer tok" {
		t.Fatalf("expected bearer token, got %q", got)
	}
}
