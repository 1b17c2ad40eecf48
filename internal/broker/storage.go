package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Storage signs object URLs and writes objects.
type Storage interface {
	// SignedPutURL returns a URL that accepts a single PUT of contentType until expires.
	SignedPutURL(key, contentType string, expires time.Time) (string, error)
	// SignedGetURL returns a URL that reads key until expires.
	SignedGetURL(key string, expires time.Time) (string, error)
	// Write stores r under key and returns the number of bytes written.
	Write(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	// ObjectURL is the permanent, unsigned address of key.
	ObjectURL(key string) string
}

// GCSStorage implements Storage on a Google Cloud Storage bucket. URLs are
// signed locally with the service account key, so signing makes no network call.
type GCSStorage struct {
	client *storage.Client
	creds  Credentials
}

// NewGCSStorage creates a storage client authenticated as the service account in creds.
func NewGCSStorage(ctx context.Context, creds Credentials) (*GCSStorage, error) {
	keyJSON, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": creds.ClientEmail,
		"private_key":  creds.PrivateKey,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorage: encode service account: %w", err)
	}
	client, err := storage.NewClient(ctx, option.WithCredentialsJSON(keyJSON))
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorage: create storage client: %w", err)
	}
	return NewGCSStorageWithClient(client, creds), nil
}

// NewGCSStorageWithClient wraps an existing client.
func NewGCSStorageWithClient(client *storage.Client, creds Credentials) *GCSStorage {
	return &GCSStorage{client: client, creds: creds}
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) signingOptions(method string, expires time.Time) *storage.SignedURLOptions {
	return &storage.SignedURLOptions{
		GoogleAccessID: s.creds.ClientEmail,
		PrivateKey:     []byte(s.creds.PrivateKey),
		Method:         method,
		Expires:        expires,
		Scheme:         storage.SigningSchemeV4,
	}
}

// SignedPutURL implements Storage.
func (s *GCSStorage) SignedPutURL(key, contentType string, expires time.Time) (string, error) {
	opts := s.signingOptions(http.MethodPut, expires)
	opts.ContentType = contentType
	u, err := s.client.Bucket(s.creds.Bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("SignedPutURL: %w", err)
	}
	return u, nil
}

// SignedGetURL implements Storage.
func (s *GCSStorage) SignedGetURL(key string, expires time.Time) (string, error) {
	u, err := s.client.Bucket(s.creds.Bucket).SignedURL(key, s.signingOptions(http.MethodGet, expires))
	if err != nil {
		return "", fmt.Errorf("SignedGetURL: %w", err)
	}
	return u, nil
}

// Write implements Storage.
func (s *GCSStorage) Write(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.creds.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	written, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return written, fmt.Errorf("Write: copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return written, fmt.Errorf("Write: close GCS writer: %w", err)
	}
	return written, nil
}

// ObjectURL implements Storage.
func (s *GCSStorage) ObjectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.creds.Bucket, strings.Join(segments, "/"))
}
