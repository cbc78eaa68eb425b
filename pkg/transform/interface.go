package transform

import (
	"context"
	"image"

	"github.com/genaker/imagecache/pkg/params"
)

// Transformer resizes, crops and re-encodes a source image within the
// configured bounds.
type Transformer interface {
	Transform(ctx context.Context, source []byte, p params.ResizeParams) (data []byte, mimeType string, err error)
}

type SourceInfo struct {
	Width  int
	Height int
	Format string
}

// Codec is the pixel decode/encode capability. The service treats it
// as an external collaborator: deployments that need formats beyond
// the default pure-Go set plug in their own implementation.
type Codec interface {
	DecodeConfig(data []byte) (SourceInfo, error)
	Decode(data []byte) (image.Image, error)
	Encode(img image.Image, format string, quality int) (data []byte, mimeType string, err error)
}
