package resizer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/genaker/imagecache/pkg/cache"
	"github.com/genaker/imagecache/pkg/cachekey"
	"github.com/genaker/imagecache/pkg/lock"
	"github.com/genaker/imagecache/pkg/params"
	"github.com/genaker/imagecache/pkg/signing"
	"github.com/genaker/imagecache/pkg/source"
	"github.com/genaker/imagecache/pkg/transform"
)

type Config struct {
	SignatureRequired       bool
	MaxConcurrentTransforms int64
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrentTransforms == 0 {
		c.MaxConcurrentTransforms = 8
	}
	return c
}

type resizeService struct {
	config      Config
	parser      *params.Parser
	signer      *signing.Signer
	keys        *cachekey.Builder
	store       cache.Store
	registry    cache.EntryRegistry
	locks       lock.Manager
	sources     source.Storage
	transformer transform.Transformer

	// transformSlots bounds concurrent transforms across all keys so a
	// burst of cache misses cannot exhaust CPU and memory.
	transformSlots *semaphore.Weighted
}

var _ Service = (*resizeService)(nil)

func NewService(
	config Config,
	parser *params.Parser,
	signer *signing.Signer,
	keys *cachekey.Builder,
	store cache.Store,
	registry cache.EntryRegistry,
	locks lock.Manager,
	sources source.Storage,
	transformer transform.Transformer,
) Service {
	config = config.withDefaults()

	return &resizeService{
		config:         config,
		parser:         parser,
		signer:         signer,
		keys:           keys,
		store:          store,
		registry:       registry,
		locks:          locks,
		sources:        sources,
		transformer:    transformer,
		transformSlots: semaphore.NewWeighted(config.MaxConcurrentTransforms),
	}
}

// Resize walks one request through the whole pipeline: parse,
// authenticate, cache lookup, and on a miss the locked
// regeneration path. Each request traverses this exactly once.
func (s *resizeService) Resize(ctx context.Context, rawRequest string) (Result, error) {
	request, err := s.parser.Parse(rawRequest)
	if err != nil {
		return Result{}, mapParseError(err)
	}

	if s.config.SignatureRequired {
		if err := s.signer.Validate(request.ImagePath, request.Params, request.Signature); err != nil {
			if errors.Is(err, signing.ErrSignatureMismatch) {
				return Result{}, ErrSignatureMismatch
			}
			return Result{}, err
		}
	}

	key := s.keys.Build(request.ImagePath, request.Params)

	if result, err := s.serveCached(ctx, key); err == nil {
		return result, nil
	} else if !errors.Is(err, cache.ErrEntryNotFound) {
		return Result{}, err
	}

	return s.regenerate(ctx, request, key)
}

func (s *resizeService) serveCached(ctx context.Context, key cachekey.Key) (Result, error) {
	entry, err := s.store.Lookup(ctx, key)
	if err != nil {
		return Result{}, err
	}

	data, err := s.store.Read(ctx, key)
	if err != nil {
		return Result{}, err
	}

	return Result{
		FilePath:  entry.FilePath,
		MimeType:  entry.MimeType,
		Data:      data,
		FromCache: true,
	}, nil
}

func (s *resizeService) regenerate(ctx context.Context, request params.Request, key cachekey.Key) (Result, error) {
	if !s.transformSlots.TryAcquire(1) {
		return Result{}, ErrBusy
	}
	defer s.transformSlots.Release(1)

	handle, err := s.locks.Acquire(ctx, key.Value)
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			return Result{}, ErrLockTimeout
		}
		return Result{}, err
	}
	defer s.locks.Release(handle)

	// A waiter that outlived another request's fill serves the fresh
	// entry without transforming again.
	if result, err := s.serveCached(ctx, key); err == nil {
		return result, nil
	} else if !errors.Is(err, cache.ErrEntryNotFound) {
		return Result{}, err
	}

	sourceData, err := s.sources.Load(ctx, request.ImagePath)
	if err != nil {
		if errors.Is(err, source.ErrSourceNotFound) {
			return Result{}, ErrSourceNotFound
		}
		return Result{}, err
	}

	// Detached completion: once the transform starts it runs to the end
	// and populates the cache even if the caller goes away, trading a
	// little wasted work now for cache hits later.
	detachedCtx := context.WithoutCancel(ctx)

	data, mimeType, err := s.transformer.Transform(detachedCtx, sourceData, request.Params)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrTransformFailed, err)
	}

	entry, err := s.publish(detachedCtx, request, key, data, mimeType)
	if err != nil {
		return Result{}, err
	}

	return Result{
		FilePath:  entry.FilePath,
		MimeType:  entry.MimeType,
		Data:      data,
		FromCache: false,
	}, nil
}

// publish records the registry entry first and rolls it back if the
// artifact write fails, so the registry never describes artifacts
// that do not exist.
func (s *resizeService) publish(ctx context.Context, request params.Request, key cachekey.Key, data []byte, mimeType string) (cache.Entry, error) {
	info := cache.EntryModel{
		Key:        key.Value,
		SourcePath: request.ImagePath,
		RelPath:    key.RelPath,
		MimeType:   mimeType,
		SizeBytes:  int64(len(data)),
		Params:     paramsAsMap(request.Params),
		CreatedAt:  time.Now(),
	}

	if err := s.registry.CreateEntryInfo(ctx, info); err != nil && !errors.Is(err, cache.ErrEntryAlreadyExists) {
		return cache.Entry{}, err
	}

	entry, err := s.store.Write(ctx, key, data, mimeType)
	if err != nil {
		s.registry.DeleteEntryInfo(ctx, key.Value)
		return cache.Entry{}, err
	}

	return entry, nil
}

func paramsAsMap(p params.ResizeParams) map[string]string {
	return map[string]string{
		"w": strconv.Itoa(p.Width),
		"h": strconv.Itoa(p.Height),
		"q": strconv.Itoa(p.Quality),
		"f": p.Format,
		"a": p.AspectMode,
	}
}

func mapParseError(err error) error {
	if errors.Is(err, params.ErrPathTraversal) {
		// Rejected before any filesystem access, reported the same as
		// an absent source so probes learn nothing about the tree.
		return ErrSourceNotFound
	}

	return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
}
