// Package localstore keeps the device-local photo backup used when the API
// cannot be reached.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Jce-C/megregalo/internal/models"
)

const (
	bucketName = "cascade"
	photosKey  = "cascade-photos"
)

type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("local store path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s bucket: %w", bucketName, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the stored photos. Missing or unreadable content is an
// empty list, not an error.
func (s *Store) Load(ctx context.Context) ([]models.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	photos := []models.Photo{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		payload := tx.Bucket([]byte(bucketName)).Get([]byte(photosKey))
		if payload == nil {
			return nil
		}
		var stored []models.Photo
		if err := json.Unmarshal(payload, &stored); err != nil {
			return nil
		}
		photos = append(photos, stored...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read local photos: %w", err)
	}
	return photos, nil
}

// Append adds photo after the existing entries in one transaction.
func (s *Store) Append(ctx context.Context, photo models.Photo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))

		var photos []models.Photo
		if payload := bucket.Get([]byte(photosKey)); payload != nil {
			if err := json.Unmarshal(payload, &photos); err != nil {
				photos = nil
			}
		}
		photos = append(photos, photo)

		payload, err := json.Marshal(photos)
		if err != nil {
			return fmt.Errorf("marshal local photos: %w", err)
		}
		return bucket.Put([]byte(photosKey), payload)
	})
}
