package transform

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/webp"
)

// stdCodec composes the stdlib jpeg/png/gif codecs with the x/image
// webp decoder. WebP output is decode-only in the pure-Go stack: the
// encoder reports ErrEncodeUnsupported and deployments that serve
// webp derivatives plug in a cgo-backed Codec instead.
type stdCodec struct{}

var _ Codec = (*stdCodec)(nil)

func NewStdCodec() Codec {
	return &stdCodec{}
}

func (c *stdCodec) DecodeConfig(data []byte) (SourceInfo, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return SourceInfo{}, ErrSourceCorrupt
	}

	return SourceInfo{Width: config.Width, Height: config.Height, Format: format}, nil
}

func (c *stdCodec) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrSourceCorrupt
	}

	return img, nil
}

func (c *stdCodec) Encode(img image.Image, format string, quality int) ([]byte, string, error) {
	var buffer bytes.Buffer

	switch format {
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buffer, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", err
		}
		return buffer.Bytes(), "image/jpeg", nil

	case "png":
		// Quality is ignored for lossless output, not an error.
		if err := png.Encode(&buffer, img); err != nil {
			return nil, "", err
		}
		return buffer.Bytes(), "image/png", nil

	case "gif":
		if err := gif.Encode(&buffer, img, &gif.Options{NumColors: 256}); err != nil {
			return nil, "", err
		}
		return buffer.Bytes(), "image/gif", nil

	default:
		return nil, "", ErrEncodeUnsupported
	}
}

var (
	ErrSourceCorrupt     = errors.New("source image corrupt or unsupported")
	ErrEncodeUnsupported = errors.New("output format not supported by codec")
)
