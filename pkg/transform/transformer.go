package transform

import (
	"context"
	"errors"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/genaker/imagecache/pkg/params"
)

type Config struct {
	MaxSourceBytes  int64
	MaxSourcePixels int
}

func (c Config) withDefaults() Config {
	if c.MaxSourceBytes == 0 {
		c.MaxSourceBytes = 32 << 20
	}
	if c.MaxSourcePixels == 0 {
		c.MaxSourcePixels = 40_000_000
	}
	return c
}

type imageTransformer struct {
	config Config
	codec  Codec
}

var _ Transformer = (*imageTransformer)(nil)

func NewTransformer(config Config, codec Codec) Transformer {
	return &imageTransformer{config.withDefaults(), codec}
}

// Transform validates source dimensions and byte size before any
// transform buffer is allocated, so hostile or corrupt inputs cannot
// drive memory use.
func (t *imageTransformer) Transform(ctx context.Context, source []byte, p params.ResizeParams) ([]byte, string, error) {
	if len(source) == 0 {
		return nil, "", ErrSourceCorrupt
	}
	if int64(len(source)) > t.config.MaxSourceBytes {
		return nil, "", ErrSourceTooLarge
	}

	info, err := t.codec.DecodeConfig(source)
	if err != nil {
		return nil, "", err
	}

	if info.Width <= 0 || info.Height <= 0 {
		return nil, "", ErrSourceCorrupt
	}
	if info.Width*info.Height > t.config.MaxSourcePixels {
		return nil, "", ErrSourceTooLarge
	}

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	src, err := t.codec.Decode(source)
	if err != nil {
		return nil, "", err
	}

	geometry := computeGeometry(info.Width, info.Height, p)

	scaled := image.NewRGBA(image.Rect(0, 0, geometry.dstWidth, geometry.dstHeight))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, geometry.srcRegion, draw.Src, nil)

	return t.codec.Encode(scaled, p.Format, p.Quality)
}

type geometry struct {
	dstWidth  int
	dstHeight int
	srcRegion image.Rectangle
}

// computeGeometry resolves the target box. Inset scales to fit
// entirely within the requested box preserving aspect ratio, so one
// axis may undershoot. Outbound scales to cover the box and
// center-crops the overflow, so the output matches the box exactly.
// A zero axis is derived from the source aspect ratio.
func computeGeometry(srcWidth, srcHeight int, p params.ResizeParams) geometry {
	full := image.Rect(0, 0, srcWidth, srcHeight)

	reqWidth, reqHeight := p.Width, p.Height
	if reqWidth == 0 && reqHeight == 0 {
		return geometry{srcWidth, srcHeight, full}
	}
	if reqWidth == 0 {
		reqWidth = scaleRound(srcWidth, float64(reqHeight)/float64(srcHeight))
	}
	if reqHeight == 0 {
		reqHeight = scaleRound(srcHeight, float64(reqWidth)/float64(srcWidth))
	}

	if p.AspectMode == params.AspectModeOutbound {
		return geometry{reqWidth, reqHeight, coverRegion(srcWidth, srcHeight, reqWidth, reqHeight)}
	}

	scale := math.Min(
		float64(reqWidth)/float64(srcWidth),
		float64(reqHeight)/float64(srcHeight),
	)

	return geometry{
		dstWidth:  scaleRound(srcWidth, scale),
		dstHeight: scaleRound(srcHeight, scale),
		srcRegion: full,
	}
}

// coverRegion is the centered source region with the target aspect
// ratio, cropped from whichever source axis overflows the box.
func coverRegion(srcWidth, srcHeight, reqWidth, reqHeight int) image.Rectangle {
	targetAspect := float64(reqWidth) / float64(reqHeight)
	sourceAspect := float64(srcWidth) / float64(srcHeight)

	cropWidth, cropHeight := srcWidth, srcHeight
	if sourceAspect > targetAspect {
		cropWidth = scaleRound(srcHeight, targetAspect)
	} else if sourceAspect < targetAspect {
		cropHeight = scaleRound(srcWidth, 1/targetAspect)
	}

	x := (srcWidth - cropWidth) / 2
	y := (srcHeight - cropHeight) / 2
	return image.Rect(x, y, x+cropWidth, y+cropHeight)
}

func scaleRound(value int, scale float64) int {
	scaled := int(math.Round(float64(value) * scale))
	if scaled < 1 {
		return 1
	}
	return scaled
}

var ErrSourceTooLarge = errors.New("source image exceeds configured bounds")
