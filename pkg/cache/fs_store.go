package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/genaker/imagecache/pkg/cachekey"
)

type fsStore struct {
	root string
}

var _ Store = (*fsStore)(nil)

// NewFsStore keeps artifacts on the local filesystem underneath the
// cache root, laid out along the key's mirrored source path.
func NewFsStore(root string) Store {
	return &fsStore{filepath.Clean(root)}
}

func (s *fsStore) Lookup(ctx context.Context, key cachekey.Key) (Entry, error) {
	fullPath := s.fullPath(key)

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}

	return Entry{
		Key:       key.Value,
		FilePath:  fullPath,
		MimeType:  mimeTypeForPath(key.RelPath),
		SizeBytes: info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

func (s *fsStore) Read(ctx context.Context, key cachekey.Key) ([]byte, error) {
	data, err := os.ReadFile(s.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	return data, nil
}

// Write publishes atomically: the artifact is written to a temporary
// file in the destination directory and renamed under the final name,
// so a reader racing the writer never observes a partial artifact.
func (s *fsStore) Write(ctx context.Context, key cachekey.Key, data []byte, mimeType string) (Entry, error) {
	fullPath := s.fullPath(key)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return Entry{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".partial-*")
	if err != nil {
		return Entry{}, err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Entry{}, err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Entry{}, err
	}

	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return Entry{}, err
	}

	return s.Lookup(ctx, key)
}

func (s *fsStore) Delete(ctx context.Context, key cachekey.Key) error {
	err := os.Remove(s.fullPath(key))
	if os.IsNotExist(err) {
		return ErrEntryNotFound
	}

	return err
}

func (s *fsStore) fullPath(key cachekey.Key) string {
	return filepath.Join(s.root, filepath.FromSlash(key.RelPath))
}

func mimeTypeForPath(relPath string) string {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(relPath)), ".") {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
