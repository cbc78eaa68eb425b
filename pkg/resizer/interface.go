package resizer

import (
	"context"
	"errors"
)

// Result is what a completed resize hands back. It carries no
// ownership of the underlying storage; FromCache is always truthful.
type Result struct {
	FilePath  string
	MimeType  string
	Data      []byte
	FromCache bool
}

type Service interface {
	Resize(ctx context.Context, rawRequest string) (Result, error)
}

var (
	ErrInvalidParameter  = errors.New("invalid request parameter")
	ErrSignatureMismatch = errors.New("request signature mismatch")
	ErrSourceNotFound    = errors.New("source image not found")
	ErrLockTimeout       = errors.New("regeneration lock timed out")
	ErrBusy              = errors.New("transform capacity exhausted")
	ErrTransformFailed   = errors.New("image transform failed")
)
