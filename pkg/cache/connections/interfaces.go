package dbconnections

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"go.mongodb.org/mongo-driver/mongo"
)

type RegistryDBConnection interface {
	Collection(collectionName string) *mongo.Collection
}

type BlockStorageConnection interface {
	GetObject(ctx context.Context, objectName string) (*minio.Object, error)
	PutObject(ctx context.Context, objectName string, objectSize int64, mimeType string, reader io.Reader) error
	DeleteObject(ctx context.Context, objectName string) error
	StatObject(ctx context.Context, objectName string) (minio.ObjectInfo, error)
	ObjectExists(ctx context.Context, objectName string) (exists bool, err error)
}
