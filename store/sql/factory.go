package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-dispatch/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds the SQL-backed queue store from a persistence
// client or a bare bun.DB. Plugging a cache service wraps reads with
// go-repository-cache.
type RepositoryFactory struct {
	db    *bun.DB
	cache repositorycache.CacheService

	dispatchItemStore *DispatchItemStore
	queueStore        core.QueueStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// WithCacheService enables cached reads on the queue store. Must be set
// before BuildStores.
func (f *RepositoryFactory) WithCacheService(cacheService repositorycache.CacheService) *RepositoryFactory {
	if f == nil {
		return nil
	}
	f.cache = cacheService
	return f
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.queueStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) QueueStore() core.QueueStore {
	if f == nil {
		return nil
	}
	return f.queueStore
}

func (f *RepositoryFactory) DispatchItemStore() *DispatchItemStore {
	if f == nil {
		return nil
	}
	return f.dispatchItemStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	dispatchItemStore, err := NewDispatchItemStore(f.db)
	if err != nil {
		return err
	}
	f.dispatchItemStore = dispatchItemStore
	f.queueStore = dispatchItemStore

	if f.cache != nil {
		cached, cacheErr := NewCachedDispatchItemStore(dispatchItemStore, f.cache)
		if cacheErr != nil {
			return cacheErr
		}
		f.queueStore = cached
	}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

var (
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
