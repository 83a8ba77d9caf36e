package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/config"
	"github.com/Jce-C/megregalo/internal/database"
)

type Backend string

const (
	BackendAuto      Backend = "auto"
	BackendFirestore Backend = "firestore"
	BackendPostgres  Backend = "postgres"
	BackendMemory    Backend = "memory"
)

func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendFirestore, BackendPostgres, BackendMemory:
		return b, nil
	default:
		return "", fmt.Errorf("unknown photo backend %q", s)
	}
}

// Store is the photo storage selected for the life of the process.
type Store struct {
	Photos  PhotoRepository
	Backend Backend
	closers []func()
}

func (s *Store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

type opener func(ctx context.Context, cfg *config.AppConfig) (PhotoRepository, func(), error)

// Open selects the storage backend once. In auto mode the chain is
// Firestore (when credentials exist), then Postgres (when a DSN exists),
// then memory. A pinned backend that cannot be reached also ends in memory.
// There is no later retry or promotion back to a durable backend.
func Open(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*Store, error) {
	return open(ctx, cfg, log, map[Backend]opener{
		BackendFirestore: openFirestore,
		BackendPostgres:  openPostgres,
	})
}

func open(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger, openers map[Backend]opener) (*Store, error) {
	pinned, err := ParseBackend(cfg.Photos.Backend)
	if err != nil {
		return nil, err
	}

	var chain []Backend
	switch pinned {
	case BackendAuto:
		if cfg.Firestore.HasCredentials() {
			chain = append(chain, BackendFirestore)
		}
		if cfg.Postgres.DSN != "" {
			chain = append(chain, BackendPostgres)
		}
	case BackendMemory:
	default:
		chain = append(chain, pinned)
	}

	memory := NewMemoryPhotoRepository()
	for _, backend := range chain {
		durable, closeFn, err := openers[backend](ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Str("backend", string(backend)).Msg("photo backend unavailable")
			continue
		}
		log.Info().Str("backend", string(backend)).Msg("photo backend selected")
		return &Store{
			Photos:  NewFallbackPhotoRepository(durable, memory, log.With().Str("backend", string(backend)).Logger()),
			Backend: backend,
			closers: []func(){closeFn},
		}, nil
	}

	log.Warn().Msg("no durable photo backend, photos are kept in memory for this process")
	return &Store{Photos: memory, Backend: BackendMemory}, nil
}

func openFirestore(ctx context.Context, cfg *config.AppConfig) (PhotoRepository, func(), error) {
	client, err := database.NewFirestoreClient(ctx, cfg.Firestore)
	if err != nil {
		return nil, nil, err
	}
	repo := NewFirestorePhotoRepository(client, cfg.Firestore.Collection)
	return repo, func() { _ = client.Close() }, nil
}

func openPostgres(ctx context.Context, cfg *config.AppConfig) (PhotoRepository, func(), error) {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	repo := NewPostgresPhotoRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, pool.Close, nil
}
