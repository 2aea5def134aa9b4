package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirStore archives snapshots on the local filesystem. Folder ids are paths
// relative to Root.
type DirStore struct {
	Root string
}

// NewDirStore creates root if needed.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive dir: %w", err)
	}
	return &DirStore{Root: root}, nil
}

// CreateFolder creates name below parentID and returns its relative path.
func (s *DirStore) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	id := filepath.Join(parentID, name)
	if err := os.MkdirAll(filepath.Join(s.Root, id), 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", name, err)
	}
	return id, nil
}

// UploadFile writes data to name below parentID.
func (s *DirStore) UploadFile(ctx context.Context, data []byte, name, mimeType, parentID string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	id := filepath.Join(parentID, name)
	path := filepath.Join(s.Root, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder for %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return id, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid archive name %q", name)
	}
	return name, nil
}

var _ Store = (*DirStore)(nil)
