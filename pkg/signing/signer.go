package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/genaker/imagecache/pkg/params"
)

// Signer computes and verifies request signatures. The signature is a
// pure function of (image path, parameters, salt): both the link
// generator and the validator go through canonicalString, so the two
// can never diverge.
type Signer struct {
	secrets SecretProvider
}

func NewSigner(secrets SecretProvider) *Signer {
	return &Signer{secrets}
}

// Sign returns the hex HMAC-SHA256 of the canonical request string,
// keyed with the salt. The salt doubles as the MAC key instead of
// being concatenated into the digest input, which keeps the scheme a
// proper keyed MAC.
func (s *Signer) Sign(imagePath string, p params.ResizeParams) (string, error) {
	salt, err := s.secrets.SignatureSalt()
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(canonicalString(imagePath, p)))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Validate fails on a missing signature, a wrong salt, or any
// parameter mutated after signing.
func (s *Signer) Validate(imagePath string, p params.ResizeParams, signature string) error {
	if signature == "" {
		return ErrSignatureMismatch
	}

	expected, err := s.Sign(imagePath, p)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrSignatureMismatch
	}

	return nil
}

// canonicalString is "imagePath|sorted-url-encoded-params". The sig
// parameter never enters the canonical form and unset dimensions are
// omitted by params.Canonical.
func canonicalString(imagePath string, p params.ResizeParams) string {
	return imagePath + "|" + p.Canonical()
}

var ErrSignatureMismatch = errors.New("signature mismatch")
