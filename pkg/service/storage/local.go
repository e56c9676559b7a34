package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
)

var _ interfaces.ArtefactStore = (*Local)(nil)

// Local stores artefacts under a directory on the local filesystem
type Local struct {
	root string
}

// NewLocal creates a store rooted at dir, creating it if needed
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, goerr.New("directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create artefact directory", goerr.V("dir", dir))
	}
	return &Local{root: dir}, nil
}

// resolve maps a slash separated object path to a file path inside root
func (l *Local) resolve(path string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(path))
	if cleaned == "." || filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", goerr.New("invalid object path", goerr.V("path", path))
	}
	return filepath.Join(l.root, cleaned), nil
}

// Put writes data to path
func (l *Local) Put(ctx context.Context, path string, data []byte, contentType string) error {
	file, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return goerr.Wrap(err, "failed to create directory", goerr.V("path", path))
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write artefact", goerr.V("path", path))
	}
	return nil
}

// Get reads the file at path
func (l *Local) Get(ctx context.Context, path string) ([]byte, error) {
	file, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "artefact not found", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read artefact", goerr.V("path", path))
	}
	return data, nil
}

// List walks root and returns files whose slash path starts with prefix
func (l *Local) List(ctx context.Context, prefix string) ([]*interfaces.ObjectInfo, error) {
	var objects []*interfaces.ObjectInfo

	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, &interfaces.ObjectInfo{
			Path:      rel,
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list artefacts", goerr.V("prefix", prefix))
	}
	return objects, nil
}
