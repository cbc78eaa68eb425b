package cachekey

import (
	"fmt"
	"path"
	"strings"

	"github.com/genaker/imagecache/pkg/params"
)

// Key addresses one cached derivative. Value is the stable identity
// used for lookups and per-key locking; RelPath is where the artifact
// lives underneath the cache root.
type Key struct {
	Value   string
	RelPath string
}

type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build derives the deterministic key for (imagePath, params). The
// parameter part comes from the sorted canonical encoding, so the
// submission order of query parameters never changes the key.
func (b *Builder) Build(imagePath string, p params.ResizeParams) Key {
	normalized := normalizePath(imagePath)

	return Key{
		Value:   "|" + normalized + "|" + p.Canonical() + "|",
		RelPath: buildRelPath(normalized, p),
	}
}

// buildRelPath mirrors the source directory structure under the cache
// root so operators can reason about and selectively purge
// derivatives: <dir>/<variant>/<stem>_<srcext>.<format>. The source
// extension is folded into the artifact name, so same-stem sources
// like photo.jpg and photo.png never share an artifact path, and
// identical basenames in different source directories land in
// different subtrees.
func buildRelPath(normalized string, p params.ResizeParams) string {
	dir, file := path.Split(strings.TrimPrefix(normalized, "/"))

	stem := file
	if ext := path.Ext(file); ext != "" {
		stem = strings.TrimSuffix(file, ext) + "_" + strings.TrimPrefix(ext, ".")
	}

	variant := fmt.Sprintf("%dx%d_%s_q%d", p.Width, p.Height, p.AspectMode, p.Quality)
	return path.Join(dir, variant, stem+"."+p.Format)
}

// normalizePath forces a single leading separator and lower-cases the
// file extension, so "Image.JPG" and "image.jpg" queries differing
// only in extension casing share derivatives of the same source file
// on case-insensitive storage.
func normalizePath(imagePath string) string {
	normalized := "/" + strings.TrimLeft(imagePath, "/")

	ext := path.Ext(normalized)
	if ext != "" {
		normalized = strings.TrimSuffix(normalized, ext) + strings.ToLower(ext)
	}

	return normalized
}
