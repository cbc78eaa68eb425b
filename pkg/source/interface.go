package source

import (
	"context"
	"errors"
)

// Storage loads original images from the configured storage root.
type Storage interface {
	Load(ctx context.Context, imagePath string) ([]byte, error)
}

var ErrSourceNotFound = errors.New("source image not found")
