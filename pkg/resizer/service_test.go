package resizer_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/genaker/imagecache/pkg/cache"
	mock_cache "github.com/genaker/imagecache/pkg/cache/mocks"
	"github.com/genaker/imagecache/pkg/cachekey"
	"github.com/genaker/imagecache/pkg/lock"
	"github.com/genaker/imagecache/pkg/params"
	"github.com/genaker/imagecache/pkg/resizer"
	"github.com/genaker/imagecache/pkg/signing"
	"github.com/genaker/imagecache/pkg/source"
	"github.com/genaker/imagecache/pkg/transform"
)

// countingTransformer wraps another transformer and counts real
// transform invocations, optionally slowing them down to widen race
// windows.
type countingTransformer struct {
	inner transform.Transformer
	delay time.Duration
	count int64
}

func (t *countingTransformer) Transform(ctx context.Context, src []byte, p params.ResizeParams) ([]byte, string, error) {
	atomic.AddInt64(&t.count, 1)
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	return t.inner.Transform(ctx, src, p)
}

func (t *countingTransformer) Count() int64 {
	return atomic.LoadInt64(&t.count)
}

type testEnv struct {
	service     resizer.Service
	store       *mock_cache.MockStore
	transformer *countingTransformer
	storageRoot string
}

func newTestEnv(t *testing.T, config resizer.Config, lockConfig lock.Config) *testEnv {
	t.Helper()

	storageRoot := t.TempDir()
	writeSourceImage(t, filepath.Join(storageRoot, "catalog", "image.jpg"), 100, 50)

	store := mock_cache.NewMockStore()
	transformer := &countingTransformer{
		inner: transform.NewTransformer(transform.Config{}, transform.NewStdCodec()),
	}

	service := resizer.NewService(
		config,
		params.NewParser(params.Config{AllowPlainQuery: true}),
		signing.NewSigner(signing.NewStaticSecretProvider("abc")),
		cachekey.NewBuilder(),
		store,
		cache.NewNoopRegistry(),
		lock.NewManager(lockConfig),
		source.NewFsStorage(storageRoot),
		transformer,
	)

	return &testEnv{service, store, transformer, storageRoot}
}

func writeSourceImage(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), uint8((x + y) % 256), 255})
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	encode := jpeg.Encode
	if filepath.Ext(path) == ".png" {
		encode = func(w io.Writer, m image.Image, _ *jpeg.Options) error {
			return png.Encode(w, m)
		}
	}

	if err := encode(file, img, nil); err != nil {
		t.Fatal(err)
	}
}

func TestService_MissThenHitServesByteIdenticalOutput(t *testing.T) {
	env := newTestEnv(t, resizer.Config{}, lock.Config{})
	request := "/catalog/image.jpg?w=300&h=300&f=png&q=85"

	first, err := env.service.Resize(context.Background(), request)
	if err != nil {
		t.Fatal(err)
	}

	if first.FromCache {
		t.Errorf("expected first request to be a cache miss")
	}
	if first.MimeType != "image/png" {
		t.Errorf("expected image/png, got %q", first.MimeType)
	}
	if env.transformer.Count() != 1 {
		t.Errorf("expected exactly one transform, got %d", env.transformer.Count())
	}

	second, err := env.service.Resize(context.Background(), request)
	if err != nil {
		t.Fatal(err)
	}

	if !second.FromCache {
		t.Errorf("expected repeat request to be served from cache")
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Errorf("expected byte-identical output across miss and hit")
	}
	if env.transformer.Count() != 1 {
		t.Errorf("expected cache hit to run no transform, got %d invocations", env.transformer.Count())
	}
}

func TestService_SameStemSourcesWithDifferentExtensionsNeverShareArtifacts(t *testing.T) {
	env := newTestEnv(t, resizer.Config{}, lock.Config{})
	writeSourceImage(t, filepath.Join(env.storageRoot, "catalog", "image.png"), 40, 90)

	fromJpeg, err := env.service.Resize(context.Background(), "/catalog/image.jpg?w=300&h=300&f=png")
	if err != nil {
		t.Fatal(err)
	}

	fromPng, err := env.service.Resize(context.Background(), "/catalog/image.png?w=300&h=300&f=png")
	if err != nil {
		t.Fatal(err)
	}

	if fromPng.FromCache {
		t.Errorf("expected the png source to miss the jpg source's cache entry")
	}
	if bytes.Equal(fromJpeg.Data, fromPng.Data) {
		t.Errorf("expected distinct sources to produce distinct derivatives")
	}
	if env.transformer.Count() != 2 {
		t.Errorf("expected one transform per source, got %d", env.transformer.Count())
	}
}

func TestService_ParameterOrderDoesNotFragmentTheCache(t *testing.T) {
	env := newTestEnv(t, resizer.Config{}, lock.Config{})

	if _, err := env.service.Resize(context.Background(), "/catalog/image.jpg?w=300&h=300&f=png"); err != nil {
		t.Fatal(err)
	}

	result, err := env.service.Resize(context.Background(), "/catalog/image.jpg?h=300&f=png&w=300")
	if err != nil {
		t.Fatal(err)
	}

	if !result.FromCache {
		t.Errorf("expected reordered parameters to hit the same cache entry")
	}
	if env.transformer.Count() != 1 {
		t.Errorf("expected one transform for both orderings, got %d", env.transformer.Count())
	}
}

func TestService_ConcurrentIdenticalRequestsRunExactlyOneTransform(t *testing.T) {
	env := newTestEnv(t, resizer.Config{}, lock.Config{MaxRetries: 100, Backoff: 5 * time.Millisecond})
	env.transformer.delay = 20 * time.Millisecond
	request := "/catalog/image.jpg?w=300&h=300&f=png&q=85"

	const concurrentRequests = 8

	var wg sync.WaitGroup
	results := make([]resizer.Result, concurrentRequests)
	resultErrors := make([]error, concurrentRequests)

	for i := 0; i < concurrentRequests; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			results[index], resultErrors[index] = env.service.Resize(context.Background(), request)
		}(i)
	}
	wg.Wait()

	for index, err := range resultErrors {
		if err != nil {
			t.Fatalf("request %d failed: %v", index, err)
		}
	}

	if env.transformer.Count() != 1 {
		t.Errorf("expected exactly one transform for %d concurrent requests, got %d", concurrentRequests, env.transformer.Count())
	}

	for index := 1; index < concurrentRequests; index++ {
		if !bytes.Equal(results[0].Data, results[index].Data) {
			t.Errorf("request %d received different bytes", index)
		}
	}
}

func TestService_WaitersEitherShareTheResultOrTimeOut(t *testing.T) {
	env := newTestEnv(t, resizer.Config{}, lock.Config{MaxRetries: 3, Backoff: 5 * time.Millisecond})
	env.transformer.delay = 100 * time.Millisecond
	request := "/catalog/image.jpg?w=300&h=300&f=png"

	var wg sync.WaitGroup
	resultErrors := make([]error, 3)

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			_, resultErrors[index] = env.service.Resize(context.Background(), request)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range resultErrors {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, resizer.ErrLockTimeout):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded == 0 {
		t.Errorf("expected at least the lock holder to succeed")
	}
	if env.transformer.Count() != 1 {
		t.Errorf("expected exactly one transform, got %d", env.transformer.Count())
	}
}

func TestService_MissingFormatIsRejectedBeforeAnyTransform(t *testing.T) {
	env := newTestEnv(t, resizer.Config{}, lock.Config{})

	_, err := env.service.Resize(context.Background(), "/catalog/image.jpg?w=300&h=300")
	if !errors.Is(err, resizer.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got: %v", err)
	}

	if env.transformer.Count() != 0 {
		t.Errorf("expected no transform for invalid requests")
	}
}

func TestService_TraversalPathsAreRejectedBeforeAnyFilesystemAccess(t *testing.T) {
	env := newTestEnv(t, resizer.Config{}, lock.Config{})

	_, err := env.service.Resize(context.Background(), "/../secrets/image.jpg?w=300&f=png")
	if !errors.Is(err, resizer.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got: %v", err)
	}

	if env.transformer.Count() != 0 {
		t.Errorf("expected no transform for rejected paths")
	}
}

func TestService_AbsentSourceReportsSourceNotFound(t *testing.T) {
	env := newTestEnv(t, resizer.Config{}, lock.Config{})

	_, err := env.service.Resize(context.Background(), "/catalog/missing.jpg?w=300&f=png")
	if !errors.Is(err, resizer.ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got: %v", err)
	}
}

func TestService_SignatureEnforcement(t *testing.T) {
	env := newTestEnv(t, resizer.Config{SignatureRequired: true}, lock.Config{})

	if _, err := env.service.Resize(context.Background(), "/catalog/image.jpg?w=300&h=300&f=png"); !errors.Is(err, resizer.ErrSignatureMismatch) {
		t.Errorf("expected ErrSignatureMismatch for missing signature, got: %v", err)
	}

	if _, err := env.service.Resize(context.Background(), "/catalog/image.jpg?w=300&h=300&f=png&sig=wrong"); !errors.Is(err, resizer.ErrSignatureMismatch) {
		t.Errorf("expected ErrSignatureMismatch for wrong signature, got: %v", err)
	}

	signer := signing.NewSigner(signing.NewStaticSecretProvider("abc"))
	generator := signing.NewLinkGenerator(signer)

	link, err := generator.PlainLink("catalog/image.jpg", params.ResizeParams{
		Width: 300, Height: 300, Quality: 82, Format: "png", AspectMode: params.AspectModeInset,
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := env.service.Resize(context.Background(), link)
	if err != nil {
		t.Fatalf("expected signed link to validate, got: %v", err)
	}
	if result.FromCache {
		t.Errorf("expected first signed request to be a miss")
	}
}

func TestService_CorruptSourceReportsTransformFailed(t *testing.T) {
	env := newTestEnv(t, resizer.Config{}, lock.Config{})

	corruptPath := filepath.Join(env.storageRoot, "catalog", "corrupt.jpg")
	if err := os.WriteFile(corruptPath, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := env.service.Resize(context.Background(), "/catalog/corrupt.jpg?w=300&f=png")
	if !errors.Is(err, resizer.ErrTransformFailed) {
		t.Errorf("expected ErrTransformFailed, got: %v", err)
	}
}

func TestService_ReportsBusyWhenTransformCapacityIsExhausted(t *testing.T) {
	env := newTestEnv(t, resizer.Config{MaxConcurrentTransforms: 1}, lock.Config{MaxRetries: 100, Backoff: 5 * time.Millisecond})
	env.transformer.delay = 100 * time.Millisecond

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		env.service.Resize(context.Background(), "/catalog/image.jpg?w=300&h=300&f=png")
	}()

	// Wait for the first request to take the only transform slot.
	time.Sleep(20 * time.Millisecond)

	_, err := env.service.Resize(context.Background(), "/catalog/image.jpg?w=400&h=400&f=png")
	if !errors.Is(err, resizer.ErrBusy) {
		t.Errorf("expected ErrBusy for a different key while the pool is saturated, got: %v", err)
	}

	wg.Wait()
}

func TestService_CompletesTheTransformWhenTheCallerDisappears(t *testing.T) {
	env := newTestEnv(t, resizer.Config{}, lock.Config{})
	env.transformer.delay = 30 * time.Millisecond
	request := "/catalog/image.jpg?w=300&h=300&f=png"

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	result, err := env.service.Resize(ctx, request)
	if err != nil {
		t.Fatalf("expected detached completion despite cancellation, got: %v", err)
	}
	if result.FromCache {
		t.Errorf("expected a fresh transform result")
	}

	// The artifact must have been published for future hits.
	repeat, err := env.service.Resize(context.Background(), request)
	if err != nil {
		t.Fatal(err)
	}
	if !repeat.FromCache {
		t.Errorf("expected the canceled request to have populated the cache")
	}
}
