package store

import (
	"context"
	"fmt"
	"time"

	"github.com/coachdesk/coachdesk/internal/profile"
	"github.com/coachdesk/coachdesk/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	cacheConfig cache.Config
	userCache   *cache.Cache

	// AuditStore is exposed directly: audit writes bypass caching and are
	// best-effort by contract.
	AuditStore AuditStore
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
	}

	return &Store{
		driver:      driver,
		profile:     profile,
		cacheConfig: cacheConfig,
		userCache:   cache.New(cacheConfig),
		AuditStore:  driver.AuditStore(),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate prepares the backing schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	s.userCache.Close()
	return s.driver.Close()
}

func userCacheKey(id int32) string {
	return fmt.Sprintf("user:%d", id)
}
