package cache

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	dbconnections "github.com/genaker/imagecache/pkg/cache/connections"
)

const entriesCollection = "cacheEntries"

type entryRegistry struct {
	conn dbconnections.RegistryDBConnection
}

var _ EntryRegistry = (*entryRegistry)(nil)

func NewEntryRegistry(conn dbconnections.RegistryDBConnection) EntryRegistry {
	return &entryRegistry{conn}
}

func (r *entryRegistry) CreateEntryInfo(ctx context.Context, info EntryModel) error {
	collection := r.conn.Collection(entriesCollection)

	result := collection.FindOne(ctx, bson.M{"key": info.Key})
	if err := result.Err(); err == nil {
		return ErrEntryAlreadyExists
	} else if err != mongo.ErrNoDocuments {
		// A failed duplicate lookup is not a duplicate; claiming so
		// would publish artifacts the registry never heard about.
		return err
	}

	_, err := collection.InsertOne(ctx, info)
	return err
}

func (r *entryRegistry) DeleteEntryInfo(ctx context.Context, key string) error {
	collection := r.conn.Collection(entriesCollection)

	result, err := collection.DeleteOne(ctx, bson.M{"key": key})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrEntryInfoNotFound
	}

	return nil
}

func (r *entryRegistry) GetEntryInfo(ctx context.Context, key string) (EntryModel, error) {
	collection := r.conn.Collection(entriesCollection)

	var info EntryModel
	if err := collection.FindOne(ctx, bson.M{"key": key}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return info, ErrEntryInfoNotFound
		}

		return EntryModel{}, err
	}

	return info, nil
}

func (r *entryRegistry) GetEntryInfosOfSource(ctx context.Context, sourcePath string) ([]EntryModel, error) {
	return r.find(ctx, bson.M{"sourcePath": sourcePath})
}

func (r *entryRegistry) GetAllEntryInfos(ctx context.Context) ([]EntryModel, error) {
	return r.find(ctx, bson.M{})
}

func (r *entryRegistry) find(ctx context.Context, filter bson.M) ([]EntryModel, error) {
	collection := r.conn.Collection(entriesCollection)

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var infos []EntryModel
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, err
	}

	return infos, nil
}
