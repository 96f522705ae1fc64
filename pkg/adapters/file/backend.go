package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/todosoa/pkg/domain"
)

// Backend implements ports.Backend using the local filesystem.
// It stores each collection as a JSON file in a configured directory.
type Backend struct {
	BasePath string
}

// New creates a new Backend with the given base path.
// If basePath is empty, it defaults to ".todosoa/collections".
func New(basePath string) *Backend {
	if basePath == "" {
		basePath = filepath.Join(".todosoa", "collections")
	}
	return &Backend{BasePath: basePath}
}

func (b *Backend) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("collection name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid collection name %q", name)
	}
	return filepath.Join(b.BasePath, name+".json"), nil
}

// Save persists the document atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (b *Backend) Save(ctx context.Context, name string, data []byte) error {
	destPath, err := b.path(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(b.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure collection directory: %w", err)
	}

	// Same directory as the destination: rename is only atomic within one filesystem.
	tmpFile, err := os.CreateTemp(b.BasePath, "tmp-"+name+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing collection file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to collection: %w", err)
	}

	return nil
}

// Load reads the collection file.
func (b *Backend) Load(ctx context.Context, name string) ([]byte, error) {
	filePath, err := b.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to read collection file: %w", err)
	}
	return data, nil
}

// Delete removes the collection file.
func (b *Backend) Delete(ctx context.Context, name string) error {
	filePath, err := b.path(name)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete collection file: %w", err)
	}
	return nil
}

// List returns all stored collection names.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	return names, nil
}
