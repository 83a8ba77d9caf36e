package database

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/Jce-C/megregalo/internal/config"
)

var ErrNoFirestoreCredentials = errors.New("firestore credentials not configured")

const googleTokenURI = "https://oauth2.googleapis.com/token"

type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// FirestoreCredentials resolves the configured credential form into a
// service-account JSON document and the project it belongs to. Precedence:
// raw JSON, then the base64 bundle, then the discrete fields.
func FirestoreCredentials(cfg config.FirestoreConfig) (string, []byte, error) {
	var raw []byte
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		raw = []byte(cfg.ServiceAccountJSON)
	case strings.TrimSpace(cfg.ServiceAccountBase64) != "":
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(cfg.ServiceAccountBase64))
		if err != nil {
			return "", nil, fmt.Errorf("decode service account bundle: %w", err)
		}
		raw = decoded
	case cfg.ProjectID != "":
		if cfg.ClientEmail == "" || cfg.PrivateKey == "" {
			// emulator or ambient credentials
			return cfg.ProjectID, nil, nil
		}
		doc, err := json.Marshal(serviceAccount{
			Type:        "service_account",
			ProjectID:   cfg.ProjectID,
			ClientEmail: cfg.ClientEmail,
			PrivateKey:  strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n"),
			TokenURI:    googleTokenURI,
		})
		if err != nil {
			return "", nil, fmt.Errorf("encode service account: %w", err)
		}
		return cfg.ProjectID, doc, nil
	default:
		return "", nil, ErrNoFirestoreCredentials
	}

	var sa serviceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return "", nil, fmt.Errorf("parse service account: %w", err)
	}
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = sa.ProjectID
	}
	if projectID == "" {
		return "", nil, errors.New("service account has no project_id")
	}
	return projectID, raw, nil
}

// NewFirestoreClient opens a client and runs a one-document probe query so
// that unreachable projects and rejected credentials surface at startup.
func NewFirestoreClient(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	projectID, creds, err := FirestoreCredentials(cfg)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if creds != nil {
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	iter := client.Collection(cfg.Collection).Limit(1).Documents(probeCtx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		_ = client.Close()
		return nil, fmt.Errorf("firestore probe: %w", err)
	}

	return client, nil
}
