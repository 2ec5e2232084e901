package media

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements Store on a local filesystem tree with one
// subdirectory per tier under a fixed base directory. URLs are derived
// directly from the relative file path under a configured public prefix.
type LocalStore struct {
	basePath     string // absolute root of the derivative tree
	publicPrefix string // e.g. "/media"
}

// NewLocalStore creates a filesystem-backed store rooted at basePath.
// Tier directories are created lazily on first write; only the root is
// ensured up front.
func NewLocalStore(basePath, publicPrefix string) (*LocalStore, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory '%s': %w", absBasePath, err)
	}

	log.Printf("media.store: Initialized LocalStore at %s", absBasePath)
	return &LocalStore{
		basePath:     absBasePath,
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
	}, nil
}

// fullPath resolves the absolute path for a tier-relative path and rejects
// anything that escapes the base directory.
func (ls *LocalStore) fullPath(relativePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relativePath))
	full := filepath.Join(ls.basePath, cleaned)

	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", relativePath, err)
	}
	if !strings.HasPrefix(absFull, ls.basePath) {
		return "", fmt.Errorf("invalid path: access denied for '%s'", relativePath)
	}
	return absFull, nil
}

func (ls *LocalStore) Put(ctx context.Context, relativePath string, data []byte, contentType string, upsert bool) (string, error) {
	fullSavePath, err := ls.fullPath(relativePath)
	if err != nil {
		return "", err
	}

	if !upsert {
		if _, err := os.Stat(fullSavePath); err == nil {
			return "", fmt.Errorf("object already exists at '%s'", relativePath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullSavePath), 0755); err != nil {
		return "", fmt.Errorf("failed to ensure directory for '%s': %w", relativePath, err)
	}

	if err := os.WriteFile(fullSavePath, data, 0644); err != nil {
		os.Remove(fullSavePath)
		return "", fmt.Errorf("failed to write data to '%s': %w", fullSavePath, err)
	}

	log.Printf("media.store: Saved asset to %s", fullSavePath)
	return ls.URL(relativePath), nil
}

func (ls *LocalStore) Get(ctx context.Context, relativePath string) ([]byte, error) {
	fullPath, err := ls.fullPath(relativePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("asset not found at '%s': %w", relativePath, err)
		}
		return nil, fmt.Errorf("failed to read asset '%s': %w", relativePath, err)
	}
	return data, nil
}

func (ls *LocalStore) Delete(ctx context.Context, relativePath string) error {
	fullPath, err := ls.fullPath(relativePath)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete asset '%s': %w", relativePath, err)
	}
	if err == nil {
		log.Printf("media.store: Deleted asset %s", fullPath)
	}
	return nil
}

func (ls *LocalStore) Exists(ctx context.Context, relativePath string) (bool, error) {
	fullPath, err := ls.fullPath(relativePath)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat asset '%s': %w", relativePath, err)
	}
	return true, nil
}

// URL maps a tier-relative path to its public URL under the configured
// prefix. The mapping is purely lexical, so it holds for objects that do
// not exist yet.
func (ls *LocalStore) URL(relativePath string) string {
	return ls.publicPrefix + "/" + strings.TrimLeft(filepath.ToSlash(relativePath), "/")
}

// BasePath exposes the storage root for the asset server and the admin
// storage browser.
func (ls *LocalStore) BasePath() string {
	return ls.basePath
}
