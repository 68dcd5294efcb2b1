package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStore keeps uploaded images. Keys are slash separated, e.g.
// "users/user-5-1700000000000.jpeg".
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// DiskStore writes objects below Root. It backs local development when no
// bucket is configured; Root is served as static files.
type DiskStore struct {
	Root string
}

func (d DiskStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	path := filepath.Join(d.Root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return key, nil
}
