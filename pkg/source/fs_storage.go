package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

type fsStorage struct {
	root string
}

var _ Storage = (*fsStorage)(nil)

func NewFsStorage(root string) Storage {
	return &fsStorage{filepath.Clean(root)}
}

// Load re-checks containment at this layer even though the parser
// already rejected traversal sequences. A path that resolves outside
// the storage root reports ErrSourceNotFound, indistinguishable from
// an absent file.
func (s *fsStorage) Load(ctx context.Context, imagePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := filepath.Join(s.root, filepath.FromSlash(imagePath))
	if !strings.HasPrefix(fullPath, s.root+string(filepath.Separator)) {
		return nil, ErrSourceNotFound
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}

	return data, nil
}
