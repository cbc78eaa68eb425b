package params

import (
	"net/url"
	"testing"

	"github.com/franela/goblin"
)

func TestParser(t *testing.T) {
	g := goblin.Goblin(t)

	g.Describe("Parser", func() {
		g.Describe("plain query encoding", func() {
			g.It("Should parse a full parameter set", func() {
				parser := NewParser(Config{AllowPlainQuery: true})
				request, err := parser.Parse("/catalog/product/image.jpg?w=300&h=200&q=85&f=webp&a=outbound&sig=abc")

				g.Assert(err).IsNil()
				g.Assert(request.ImagePath).Equal("catalog/product/image.jpg")
				g.Assert(request.Signature).Equal("abc")
				g.Assert(request.Params).Equal(ResizeParams{
					Width:      300,
					Height:     200,
					Quality:    85,
					Format:     "webp",
					AspectMode: "outbound",
				})
			})

			g.It("Should apply defaults for quality and aspect mode", func() {
				parser := NewParser(Config{AllowPlainQuery: true})
				request, err := parser.Parse("/image.jpg?w=300&f=png")

				g.Assert(err).IsNil()
				g.Assert(request.Params.Quality).Equal(82)
				g.Assert(request.Params.AspectMode).Equal(AspectModeInset)
				g.Assert(request.Params.Height).Equal(0)
			})

			g.It("Should reject requests without format", func() {
				parser := NewParser(Config{AllowPlainQuery: true})
				_, err := parser.Parse("/image.jpg?w=300&h=200")

				g.Assert(err).Equal(ErrFormatMissing)
			})

			g.It("Should reject formats outside the allow-list", func() {
				parser := NewParser(Config{AllowPlainQuery: true, AllowedFormats: []string{"jpg"}})
				_, err := parser.Parse("/image.jpg?w=300&f=tiff")

				g.Assert(err).Equal(ErrFormatNotAllowed)
			})

			g.It("Should clamp out-of-range dimensions into the configured bounds", func() {
				parser := NewParser(Config{AllowPlainQuery: true})

				request, err := parser.Parse("/image.jpg?w=5&h=9000&f=jpg")
				g.Assert(err).IsNil()
				g.Assert(request.Params.Width).Equal(20)
				g.Assert(request.Params.Height).Equal(5000)
			})

			g.It("Should clamp out-of-range quality", func() {
				parser := NewParser(Config{AllowPlainQuery: true})

				request, err := parser.Parse("/image.jpg?w=300&q=140&f=jpg")
				g.Assert(err).IsNil()
				g.Assert(request.Params.Quality).Equal(100)
			})

			g.It("Should reject non-numeric dimensions", func() {
				parser := NewParser(Config{AllowPlainQuery: true})
				_, err := parser.Parse("/image.jpg?w=abc&f=jpg")

				g.Assert(err).Equal(ErrInvalidDimension)
			})

			g.It("Should reject unknown aspect modes", func() {
				parser := NewParser(Config{AllowPlainQuery: true})
				_, err := parser.Parse("/image.jpg?w=300&f=jpg&a=stretch")

				g.Assert(err).Equal(ErrInvalidAspectMode)
			})

			g.It("Should reject parent directory segments before any filesystem access", func() {
				parser := NewParser(Config{AllowPlainQuery: true})
				_, err := parser.Parse("/../etc/passwd?w=300&f=jpg")

				g.Assert(err).Equal(ErrPathTraversal)
			})

			g.It("Should reject paths with redundant segments", func() {
				parser := NewParser(Config{AllowPlainQuery: true})
				_, err := parser.Parse("/catalog//product/./image.jpg?w=300&f=jpg")

				g.Assert(err).Equal(ErrPathTraversal)
			})

			g.It("Should reject plain queries when the encoding is disabled", func() {
				parser := NewParser(Config{AllowPlainQuery: false})
				_, err := parser.Parse("/image.jpg?w=300&f=jpg")

				g.Assert(err).Equal(ErrPlainQueryDisabled)
			})
		})

		g.Describe("base64 blob encoding", func() {
			g.It("Should decode a blob segment to the same request as the plain encoding", func() {
				parser := NewParser(Config{AllowPlainQuery: true})

				query := url.Values{}
				query.Set("w", "300")
				query.Set("h", "200")
				query.Set("f", "webp")
				blob := EncodeBlobSegment("catalog/product/image.jpg", query, "webp")

				fromBlob, err := parser.Parse("/" + blob)
				g.Assert(err).IsNil()

				fromPlain, err := parser.Parse("/catalog/product/image.jpg?w=300&h=200&f=webp")
				g.Assert(err).IsNil()

				g.Assert(fromBlob).Equal(fromPlain)
			})

			g.It("Should accept blob segments even when plain queries are disabled", func() {
				parser := NewParser(Config{AllowPlainQuery: false})

				query := url.Values{}
				query.Set("w", "300")
				query.Set("f", "jpg")
				blob := EncodeBlobSegment("image.jpg", query, "jpg")

				request, err := parser.Parse("/" + blob)
				g.Assert(err).IsNil()
				g.Assert(request.Params.Width).Equal(300)
			})

			g.It("Should still validate the decoded image path", func() {
				parser := NewParser(Config{AllowPlainQuery: true})

				query := url.Values{}
				query.Set("w", "300")
				query.Set("f", "jpg")
				blob := EncodeBlobSegment("../secret.jpg", query, "jpg")

				_, err := parser.Parse("/" + blob)
				g.Assert(err).Equal(ErrPathTraversal)
			})
		})
	})
}

func TestResizeParamsCanonicalIsOrderIndependent(t *testing.T) {
	parser := NewParser(Config{AllowPlainQuery: true})

	first, err := parser.Parse("/image.jpg?w=100&h=50&f=jpg")
	if err != nil {
		t.Fatal(err)
	}

	second, err := parser.Parse("/image.jpg?h=50&f=jpg&w=100")
	if err != nil {
		t.Fatal(err)
	}

	if first.Params.Canonical() != second.Params.Canonical() {
		t.Errorf("expected identical canonical strings, got %q and %q", first.Params.Canonical(), second.Params.Canonical())
	}
}
