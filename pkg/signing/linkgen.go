package signing

import (
	"github.com/genaker/imagecache/pkg/params"
)

// LinkGenerator produces the two signed URL encodings served by the
// read side. It shares the Signer's canonicalization, so links it
// emits always validate against the same salt.
type LinkGenerator struct {
	signer *Signer
}

func NewLinkGenerator(signer *Signer) *LinkGenerator {
	return &LinkGenerator{signer}
}

// PlainLink returns "/imagePath?params&sig=...".
func (g *LinkGenerator) PlainLink(imagePath string, p params.ResizeParams) (string, error) {
	signature, err := g.signer.Sign(imagePath, p)
	if err != nil {
		return "", err
	}

	query := p.Values()
	query.Set("sig", signature)
	return "/" + imagePath + "?" + query.Encode(), nil
}

// BlobLink returns the single base64url segment encoding of the same
// signed request.
func (g *LinkGenerator) BlobLink(imagePath string, p params.ResizeParams) (string, error) {
	signature, err := g.signer.Sign(imagePath, p)
	if err != nil {
		return "", err
	}

	query := p.Values()
	query.Set("sig", signature)
	return "/" + params.EncodeBlobSegment(imagePath, query, p.Format), nil
}
