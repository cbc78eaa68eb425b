package cache

import (
	"context"

	"github.com/ryanuber/go-glob"

	"github.com/genaker/imagecache/pkg/cachekey"
)

type purgeService struct {
	registry EntryRegistry
	store    Store
}

var _ PurgeService = (*purgeService)(nil)

func NewPurgeService(registry EntryRegistry, store Store) PurgeService {
	return &purgeService{registry, store}
}

// PurgeSource removes every cached derivative of one source image.
// Deletion stops at the first error; already removed entries are
// still reported so operators can see how far the purge got.
func (s *purgeService) PurgeSource(ctx context.Context, sourcePath string) (removedEntries []EntryModel, err error) {
	entries, err := s.registry.GetEntryInfosOfSource(ctx, sourcePath)
	if err != nil {
		return
	}

	return s.remove(ctx, entries)
}

// PurgeMatching removes derivatives of every source whose path
// matches the glob pattern.
func (s *purgeService) PurgeMatching(ctx context.Context, pattern string) (removedEntries []EntryModel, err error) {
	entries, err := s.registry.GetAllEntryInfos(ctx)
	if err != nil {
		return
	}

	matched := make([]EntryModel, 0, len(entries))
	for _, entry := range entries {
		if glob.Glob(pattern, entry.SourcePath) {
			matched = append(matched, entry)
		}
	}

	return s.remove(ctx, matched)
}

func (s *purgeService) remove(ctx context.Context, entries []EntryModel) (removedEntries []EntryModel, err error) {
	for _, entry := range entries {
		err = s.registry.DeleteEntryInfo(ctx, entry.Key)
		if err != nil {
			return
		}

		key := cachekey.Key{Value: entry.Key, RelPath: entry.RelPath}
		err = s.store.Delete(ctx, key)
		if err != nil {
			return
		}

		removedEntries = append(removedEntries, entry)
	}

	return
}
