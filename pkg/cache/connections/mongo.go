package dbconnections

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RegistryDBConfig struct {
	ConnectionString string
}

type RegistryDBProductionConnection struct {
	config RegistryDBConfig
	client *mongo.Client
}

var _ RegistryDBConnection = (*RegistryDBProductionConnection)(nil)

func NewRegistryDBProductionConnection(ctx context.Context, config RegistryDBConfig) (RegistryDBConnection, error) {
	client, err := mongo.NewClient(options.Client().ApplyURI(config.ConnectionString))
	if err != nil {
		return nil, err
	}

	err = client.Connect(ctx)
	if err != nil {
		return nil, err
	}

	return &RegistryDBProductionConnection{
		config: config,
		client: client,
	}, nil
}

func (c *RegistryDBProductionConnection) Collection(collectionName string) *mongo.Collection {
	return c.client.Database("imagecache").Collection(collectionName)
}
