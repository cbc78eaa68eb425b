//go:build wireinject
// +build wireinject

package main

import (
	"context"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/genaker/imagecache/pkg/cache"
	dbconnections "github.com/genaker/imagecache/pkg/cache/connections"
	"github.com/genaker/imagecache/pkg/cachekey"
	"github.com/genaker/imagecache/pkg/config"
	"github.com/genaker/imagecache/pkg/lock"
	"github.com/genaker/imagecache/pkg/params"
	"github.com/genaker/imagecache/pkg/resizer"
	"github.com/genaker/imagecache/pkg/signing"
	"github.com/genaker/imagecache/pkg/source"
	"github.com/genaker/imagecache/pkg/transform"
	"github.com/google/wire"
)

func ProvideParserConfig(cfg config.Config) params.Config {
	return params.Config{
		AllowPlainQuery:    cfg.Params.AllowPlainQuery,
		AllowedFormats:     cfg.Params.AllowedFormats,
		AllowedAspectModes: cfg.Params.AllowedAspectModes,
		MinDimension:       cfg.Params.MinDimension,
		MaxDimension:       cfg.Params.MaxDimension,
		DefaultQuality:     cfg.Params.DefaultQuality,
	}
}

func ProvideSecretProvider(cfg config.Config) signing.SecretProvider {
	if cfg.Signing.Required && os.Getenv(cfg.Signing.SaltEnvVariable) == "" {
		log.Panicf("%s is a required environment variable when signature enforcement is enabled", cfg.Signing.SaltEnvVariable)
	}

	return signing.NewEnvSecretProvider(cfg.Signing.SaltEnvVariable)
}

func ProvideSourceStorage(cfg config.Config) source.Storage {
	if cfg.Storage.Root == "" {
		log.Panic("storage root must be configured")
	}

	return source.NewFsStorage(cfg.Storage.Root)
}

func ProvideLockManager(cfg config.Config) lock.Manager {
	return lock.NewManager(lock.Config{
		MaxRetries: cfg.Lock.MaxRetries,
		Backoff:    cfg.Lock.Backoff.Std(),
	})
}

func ProvideTransformer(cfg config.Config) transform.Transformer {
	return transform.NewTransformer(transform.Config{
		MaxSourceBytes:  cfg.Transform.MaxSourceBytes,
		MaxSourcePixels: cfg.Transform.MaxSourcePixels,
	}, transform.NewStdCodec())
}

func ProvideResizerConfig(cfg config.Config) resizer.Config {
	return resizer.Config{
		SignatureRequired:       cfg.Signing.Required,
		MaxConcurrentTransforms: cfg.Transform.MaxConcurrent,
	}
}

func ProvideStore(ctx context.Context, cfg config.Config) cache.Store {
	switch cfg.Cache.Backend {
	case "fs":
		return cache.NewFsStore(cfg.Cache.Root)

	case "minio":
		minioConfig := dbconnections.BlockStorageProductionConnectionConfig{
			Endpoint:  cfg.Cache.Minio.Endpoint,
			AccessKey: cfg.Cache.Minio.AccessKey,
			SecretKey: cfg.Cache.Minio.SecretKey,
			Location:  cfg.Cache.Minio.Location,
			Bucket:    cfg.Cache.Minio.Bucket,
			UseSSL:    cfg.Cache.Minio.UseSSL,
		}

		if minioConfig.Endpoint == "" {
			log.Panic("minio endpoint is required for the minio cache backend")
		}
		if _, err := url.Parse(minioConfig.Endpoint); err != nil {
			log.Panicf("error occurred when parsing minio endpoint: %s", err)
		}
		if minioConfig.AccessKey == "" || minioConfig.SecretKey == "" {
			log.Panic("minio credentials are required for the minio cache backend")
		}
		if minioConfig.Bucket == "" {
			log.Panic("minio bucket is required for the minio cache backend")
		}
		if minioConfig.Location == "" {
			minioConfig.Location = "us-east-1"
		}

		connectCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		conn, err := dbconnections.NewBlockStorageProductionConnection(connectCtx, minioConfig)
		if err != nil {
			log.Panicf("error occurred when initializing minio connection: %s", err)
		}

		return cache.NewMinioStore(&conn)

	default:
		log.Panicf("unknown cache backend: %s", cfg.Cache.Backend)
		return nil
	}
}

func ProvideRegistry(ctx context.Context, cfg config.Config) cache.EntryRegistry {
	if cfg.Cache.MongoConnectionString == "" {
		return cache.NewNoopRegistry()
	}

	if _, err := url.Parse(cfg.Cache.MongoConnectionString); err != nil {
		log.Panicf("error occurred when parsing mongo connection string: %s", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	conn, err := dbconnections.NewRegistryDBProductionConnection(connectCtx, dbconnections.RegistryDBConfig{
		ConnectionString: cfg.Cache.MongoConnectionString,
	})
	if err != nil {
		log.Panicf("error occurred when initializing mongo connection: %s", err)
	}

	return cache.NewEntryRegistry(conn)
}

func InitializeResizeService(ctx context.Context, cfg config.Config) resizer.Service {
	wire.Build(
		ProvideParserConfig,
		params.NewParser,

		ProvideSecretProvider,
		signing.NewSigner,

		cachekey.NewBuilder,

		ProvideStore,
		ProvideRegistry,
		ProvideLockManager,
		ProvideSourceStorage,
		ProvideTransformer,

		ProvideResizerConfig,
		resizer.NewService,
	)

	return nil
}

func InitializePurgeService(ctx context.Context, cfg config.Config) cache.PurgeService {
	wire.Build(
		ProvideStore,
		ProvideRegistry,
		cache.NewPurgeService,
	)

	return nil
}

func InitializeLinkGenerator(cfg config.Config) *signing.LinkGenerator {
	wire.Build(
		ProvideSecretProvider,
		signing.NewSigner,
		signing.NewLinkGenerator,
	)

	return nil
}
