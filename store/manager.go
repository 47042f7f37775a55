package store

import (
	"github.com/jellydator/ttlcache/v3"
)

// Manager hands out one Store per collection name, constructed lazily on
// first access and cached for the process lifetime. All callers share the
// same Store instance per collection, so its mutex is the single
// serialization point for that collection's mutations.
type Manager struct {
	cache *ttlcache.Cache[string, *Store]
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerConfig)

type managerConfig struct {
	retention int
	seeds     map[string]RecordSet
}

// WithManagerRetention sets the backup retention for every collection.
func WithManagerRetention(n int) ManagerOption {
	return func(c *managerConfig) { c.retention = n }
}

// WithCollectionSeed registers a bootstrap record set for one collection.
func WithCollectionSeed(name string, seed RecordSet) ManagerOption {
	return func(c *managerConfig) { c.seeds[name] = seed }
}

// NewManager creates a Manager rooted at dir.
func NewManager(dir string, opts ...ManagerOption) *Manager {
	cfg := &managerConfig{seeds: make(map[string]RecordSet)}
	for _, opt := range opts {
		opt(cfg)
	}

	loader := ttlcache.LoaderFunc[string, *Store](
		func(cache *ttlcache.Cache[string, *Store], name string) *ttlcache.Item[string, *Store] {
			storeOpts := []Option{WithRetention(cfg.retention)}
			if seed, ok := cfg.seeds[name]; ok {
				storeOpts = append(storeOpts, WithSeed(seed))
			}
			return cache.Set(name, New(dir, name, storeOpts...), ttlcache.NoTTL)
		},
	)

	return &Manager{
		cache: ttlcache.New(ttlcache.WithLoader[string, *Store](loader)),
	}
}

// Collection returns the shared Store for name.
func (m *Manager) Collection(name string) *Store {
	return m.cache.Get(name).Value()
}
