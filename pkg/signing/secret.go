package signing

import (
	"errors"
	"os"
)

// SecretProvider hands out the signature salt. It is resolved once per
// process lifetime; the salt must never end up in logs or errors.
type SecretProvider interface {
	SignatureSalt() (string, error)
}

type envSecretProvider struct {
	variableName string
}

var _ SecretProvider = (*envSecretProvider)(nil)

func NewEnvSecretProvider(variableName string) SecretProvider {
	return &envSecretProvider{variableName}
}

func (p *envSecretProvider) SignatureSalt() (string, error) {
	salt := os.Getenv(p.variableName)
	if salt == "" {
		return "", ErrSaltNotConfigured
	}

	return salt, nil
}

type staticSecretProvider struct {
	salt string
}

var _ SecretProvider = (*staticSecretProvider)(nil)

// NewStaticSecretProvider is meant for tests and local development.
func NewStaticSecretProvider(salt string) SecretProvider {
	return &staticSecretProvider{salt}
}

func (p *staticSecretProvider) SignatureSalt() (string, error) {
	if p.salt == "" {
		return "", ErrSaltNotConfigured
	}

	return p.salt, nil
}

var ErrSaltNotConfigured = errors.New("signature salt not configured")
