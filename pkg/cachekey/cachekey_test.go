package cachekey_test

import (
	"strings"
	"testing"

	"github.com/franela/goblin"
	"github.com/genaker/imagecache/pkg/cachekey"
	"github.com/genaker/imagecache/pkg/params"
)

func TestBuilder(t *testing.T) {
	g := goblin.Goblin(t)

	g.Describe("Builder", func() {
		resize := params.ResizeParams{
			Width:      300,
			Height:     200,
			Quality:    85,
			Format:     "webp",
			AspectMode: params.AspectModeInset,
		}

		g.It("Should produce identical keys regardless of parameter submission order", func() {
			parser := params.NewParser(params.Config{AllowPlainQuery: true})
			builder := cachekey.NewBuilder()

			first, err := parser.Parse("/catalog/image.jpg?w=100&h=50&f=jpg")
			g.Assert(err).IsNil()
			second, err := parser.Parse("/catalog/image.jpg?h=50&f=jpg&w=100")
			g.Assert(err).IsNil()

			g.Assert(builder.Build(first.ImagePath, first.Params)).
				Equal(builder.Build(second.ImagePath, second.Params))
		})

		g.It("Should change the key when any parameter changes", func() {
			builder := cachekey.NewBuilder()

			other := resize
			other.Width = 301

			g.Assert(builder.Build("image.jpg", resize).Value == builder.Build("image.jpg", other).Value).IsFalse()
		})

		g.It("Should never collide for identical basenames in different directories", func() {
			builder := cachekey.NewBuilder()

			first := builder.Build("catalog/a/image.jpg", resize)
			second := builder.Build("catalog/b/image.jpg", resize)

			g.Assert(first.Value == second.Value).IsFalse()
			g.Assert(first.RelPath == second.RelPath).IsFalse()
		})

		g.It("Should mirror the source directory structure in the artifact path", func() {
			builder := cachekey.NewBuilder()

			key := builder.Build("catalog/product/image.jpg", resize)
			g.Assert(key.RelPath).Equal("catalog/product/300x200_inset_q85/image_jpg.webp")
		})

		g.It("Should never share artifact paths between same-stem sources with different extensions", func() {
			builder := cachekey.NewBuilder()

			first := builder.Build("catalog/photo.jpg", resize)
			second := builder.Build("catalog/photo.png", resize)

			g.Assert(first.Value == second.Value).IsFalse()
			g.Assert(first.RelPath == second.RelPath).IsFalse()
		})

		g.It("Should lower-case the source extension during normalization", func() {
			builder := cachekey.NewBuilder()

			g.Assert(builder.Build("catalog/Image.JPG", resize).Value).
				Equal(builder.Build("catalog/Image.jpg", resize).Value)
		})

		g.It("Should keep the artifact path free of traversal segments", func() {
			builder := cachekey.NewBuilder()

			key := builder.Build("catalog/image.jpg", resize)
			if strings.Contains(key.RelPath, "..") {
				t.Errorf("unexpected traversal segment in %q", key.RelPath)
			}
		})
	})
}
