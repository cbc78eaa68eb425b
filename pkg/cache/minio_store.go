package cache

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/genaker/imagecache/pkg/cachekey"
	dbconnections "github.com/genaker/imagecache/pkg/cache/connections"
)

// minioStore is the remote object-store implementation, for
// deployments where multiple serving nodes share one cache. Object
// puts are atomic on the MinIO side, so the same
// nothing-or-complete guarantee holds as for the filesystem store.
type minioStore struct {
	conn dbconnections.BlockStorageConnection
}

var _ Store = (*minioStore)(nil)

func NewMinioStore(conn dbconnections.BlockStorageConnection) Store {
	return &minioStore{conn}
}

func (s *minioStore) Lookup(ctx context.Context, key cachekey.Key) (Entry, error) {
	info, err := s.conn.StatObject(ctx, key.RelPath)
	if err != nil {
		return Entry{}, s.convertToKnownError(err)
	}

	return Entry{
		Key:       key.Value,
		FilePath:  key.RelPath,
		MimeType:  info.ContentType,
		SizeBytes: info.Size,
		CreatedAt: info.LastModified,
	}, nil
}

func (s *minioStore) Read(ctx context.Context, key cachekey.Key) ([]byte, error) {
	object, err := s.conn.GetObject(ctx, key.RelPath)
	if err != nil {
		return nil, s.convertToKnownError(err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, s.convertToKnownError(err)
	}

	return data, nil
}

func (s *minioStore) Write(ctx context.Context, key cachekey.Key, data []byte, mimeType string) (Entry, error) {
	if err := s.conn.PutObject(ctx, key.RelPath, int64(len(data)), mimeType, bytes.NewReader(data)); err != nil {
		return Entry{}, err
	}

	return s.Lookup(ctx, key)
}

func (s *minioStore) Delete(ctx context.Context, key cachekey.Key) error {
	exists, err := s.conn.ObjectExists(ctx, key.RelPath)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEntryNotFound
	}

	return s.conn.DeleteObject(ctx, key.RelPath)
}

func (s *minioStore) convertToKnownError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrEntryNotFound
	}

	return err
}
