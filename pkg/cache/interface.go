package cache

import (
	"context"
	"errors"
	"time"

	"github.com/genaker/imagecache/pkg/cachekey"
)

// Entry describes one cached artifact. Entries are created exactly
// once per key on the first successful transform and are immutable
// until purged out-of-band.
type Entry struct {
	Key       string
	FilePath  string
	MimeType  string
	SizeBytes int64
	CreatedAt time.Time
}

// Store holds the cached artifacts themselves. Lookup is a pure
// existence and metadata read, safe to call without synchronization.
// Write publishes atomically: a concurrent reader sees either nothing
// or the complete artifact, never a partial one.
type Store interface {
	Lookup(ctx context.Context, key cachekey.Key) (Entry, error)
	Read(ctx context.Context, key cachekey.Key) ([]byte, error)
	Write(ctx context.Context, key cachekey.Key, data []byte, mimeType string) (Entry, error)
	Delete(ctx context.Context, key cachekey.Key) error
}

// EntryModel is the registry record kept alongside the artifact so
// the purge service can find every derivative of a source image.
type EntryModel struct {
	Key        string            `json:"key" bson:"key"`
	SourcePath string            `json:"sourcePath" bson:"sourcePath"`
	RelPath    string            `json:"relPath" bson:"relPath"`
	MimeType   string            `json:"mimeType" bson:"mimeType"`
	SizeBytes  int64             `json:"sizeBytes" bson:"sizeBytes"`
	Params     map[string]string `json:"params" bson:"params"`
	CreatedAt  time.Time         `json:"createdAt" bson:"createdAt"`
}

type EntryRegistry interface {
	CreateEntryInfo(ctx context.Context, info EntryModel) error
	DeleteEntryInfo(ctx context.Context, key string) error
	GetEntryInfo(ctx context.Context, key string) (EntryModel, error)
	GetEntryInfosOfSource(ctx context.Context, sourcePath string) ([]EntryModel, error)
	GetAllEntryInfos(ctx context.Context) ([]EntryModel, error)
}

// PurgeService is the out-of-band removal path; the serving core
// never deletes entries on its own.
type PurgeService interface {
	PurgeSource(ctx context.Context, sourcePath string) ([]EntryModel, error)
	PurgeMatching(ctx context.Context, pattern string) ([]EntryModel, error)
}

var (
	ErrEntryNotFound      = errors.New("cache entry not found")
	ErrEntryAlreadyExists = errors.New("cache entry already exists")
	ErrEntryInfoNotFound  = errors.New("cache entry info not found")
)
