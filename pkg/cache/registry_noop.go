package cache

import "context"

// noopRegistry backs deployments without a registry database. Entry
// records are dropped, which only disables source-scoped purging.
type noopRegistry struct{}

var _ EntryRegistry = (*noopRegistry)(nil)

func NewNoopRegistry() EntryRegistry {
	return &noopRegistry{}
}

func (r *noopRegistry) CreateEntryInfo(ctx context.Context, info EntryModel) error {
	return nil
}

func (r *noopRegistry) DeleteEntryInfo(ctx context.Context, key string) error {
	return ErrEntryInfoNotFound
}

func (r *noopRegistry) GetEntryInfo(ctx context.Context, key string) (EntryModel, error) {
	return EntryModel{}, ErrEntryInfoNotFound
}

func (r *noopRegistry) GetEntryInfosOfSource(ctx context.Context, sourcePath string) ([]EntryModel, error) {
	return nil, nil
}

func (r *noopRegistry) GetAllEntryInfos(ctx context.Context) ([]EntryModel, error) {
	return nil, nil
}
