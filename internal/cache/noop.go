package cache

import "context"

// NoopStore is a no-op implementation used when SQLite is not configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Load(_ context.Context, _ string) (*Entry, error) { return nil, nil }
func (n *NoopStore) Save(_ context.Context, _ *Entry) error            { return nil }
func (n *NoopStore) Close() error                                      { return nil }
