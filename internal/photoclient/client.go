// Package photoclient talks to the photo API and falls back to the local
// device store whenever the API is unreachable.
package photoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/ids"
	"github.com/Jce-C/megregalo/internal/media/compress"
	"github.com/Jce-C/megregalo/internal/media/dataurl"
	"github.com/Jce-C/megregalo/internal/models"
)

const localKind = "local"

var (
	ErrProcessing = errors.New("error processing image")

	errNotArray = errors.New("response is not a photo array")
)

type LocalStore interface {
	Load(ctx context.Context) ([]models.Photo, error)
	Append(ctx context.Context, photo models.Photo) error
}

// Listing is the result of ListPhotos. Fallback holds the reason the API
// result was replaced by the local backup, nil when the API answered.
type Listing struct {
	Photos   []models.Photo
	Fallback error
}

// StatusError is returned for non-2xx API answers.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api responded %d", e.Status)
	}
	return fmt.Sprintf("api responded %d: %s", e.Status, e.Message)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	AdminToken string
	Compress   compress.Options
}

type Client struct {
	baseURL string
	http    *http.Client
	local   LocalStore
	token   string
	opts    compress.Options
	log     zerolog.Logger
	now     func() time.Time
}

// New builds a client. local may be nil, which disables the offline backup.
func New(cfg Config, local LocalStore, log zerolog.Logger) *Client {
	opts := cfg.Compress
	if opts.MaxWidth <= 0 || opts.MaxHeight <= 0 {
		opts = compress.DefaultOptions()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		local:   local,
		token:   cfg.AdminToken,
		opts:    opts,
		log:     log,
		now:     time.Now,
	}
}

// IsLocal reports whether photo only exists in the device backup.
func IsLocal(photo models.Photo) bool {
	return strings.HasPrefix(photo.ID, localKind+"-")
}

// ListPhotos never fails: any API problem yields the local backup.
func (c *Client) ListPhotos(ctx context.Context) Listing {
	photos, err := c.fetchPhotos(ctx)
	if err == nil {
		return Listing{Photos: photos}
	}

	c.log.Warn().Err(err).Msg("fetch photos failed, using local backup")
	return Listing{Photos: c.loadLocal(ctx), Fallback: err}
}

func (c *Client) fetchPhotos(ctx context.Context) ([]models.Photo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/getPhotos", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var probe any
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode photos: %w", err)
	}
	if _, ok := probe.([]any); !ok {
		return nil, errNotArray
	}

	var photos []models.Photo
	if err := json.Unmarshal(body, &photos); err != nil {
		return nil, fmt.Errorf("decode photos: %w", err)
	}
	return photos, nil
}

func (c *Client) loadLocal(ctx context.Context) []models.Photo {
	if c.local == nil {
		return []models.Photo{}
	}
	photos, err := c.local.Load(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("load local photos failed")
		return []models.Photo{}
	}
	return photos
}

type uploadRequest struct {
	Filename string `json:"filename"`
	DataURL  string `json:"dataUrl"`
}

// UploadPhoto compresses raw and sends it to the API. When the API path
// fails the compressed photo is kept in the local backup under a local- id.
// ErrProcessing is returned only when neither path worked.
func (c *Client) UploadPhoto(ctx context.Context, filename string, raw []byte) (models.Photo, error) {
	compressed, err := compress.JPEG(raw, c.opts)
	if err != nil {
		c.log.Error().Err(err).Str("filename", filename).Msg("compress photo failed")
		return models.Photo{}, fmt.Errorf("%w: %v", ErrProcessing, err)
	}
	encoded := dataurl.Encode(compressed.MIME, compressed.Data)

	photo, err := c.postPhoto(ctx, uploadRequest{Filename: filename, DataURL: encoded})
	if err == nil {
		return photo, nil
	}
	c.log.Warn().Err(err).Str("filename", filename).Msg("upload failed, saving to local backup")

	if c.local == nil {
		return models.Photo{}, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	now := c.now().UTC()
	photo = models.Photo{
		ID:         ids.WithPrefix(localKind),
		Filename:   filename,
		URL:        encoded,
		UploadedAt: now,
	}
	if err := c.local.Append(ctx, photo); err != nil {
		c.log.Error().Err(err).Str("filename", filename).Msg("save local photo failed")
		return models.Photo{}, fmt.Errorf("%w: %v", ErrProcessing, err)
	}
	return photo, nil
}

func (c *Client) postPhoto(ctx context.Context, payload uploadRequest) (models.Photo, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return models.Photo{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/uploadPhoto", bytes.NewReader(raw))
	if err != nil {
		return models.Photo{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return models.Photo{}, err
	}

	var photo models.Photo
	if err := json.Unmarshal(body, &photo); err != nil {
		return models.Photo{}, fmt.Errorf("decode photo: %w", err)
	}
	return photo, nil
}

// DeletePhoto reports whether the API removed the photo. There is no local
// fallback.
func (c *Client) DeletePhoto(ctx context.Context, id string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/photos/"+url.PathEscape(id), nil)
	if err != nil {
		c.log.Error().Err(err).Str("photo_id", id).Msg("build delete request failed")
		return false
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if _, err := c.do(req); err != nil {
		c.log.Error().Err(err).Str("photo_id", id).Msg("delete photo failed")
		return false
	}
	return true
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &msg)
		return nil, &StatusError{Status: resp.StatusCode, Message: msg.Message}
	}
	return body, nil
}
