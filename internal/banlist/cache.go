// Package banlist keeps an in-memory mirror of the blocked_users table so the
// ban gate on every inbound update costs no storage round-trip.
package banlist

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ndvornikov/job_apply_bot/internal/db"
)

type Store interface {
	Add(userID int64, reason string) error
	ListUserIDs() ([]int64, error)
}

type Cache struct {
	store Store

	mu     sync.Mutex
	banned map[int64]struct{}
}

func New(store Store) *Cache {
	return &Cache{
		store:  store,
		banned: make(map[int64]struct{}),
	}
}

// Load replaces the cache wholesale from storage. Must complete before the
// update loop starts delivering events.
func (c *Cache) Load() error {
	ids, err := c.store.ListUserIDs()
	if err != nil {
		return fmt.Errorf("banlist.Load: %w", err)
	}

	banned := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		banned[id] = struct{}{}
	}

	c.mu.Lock()
	c.banned = banned
	c.mu.Unlock()

	log.Printf("banlist: loaded %d banned users", len(banned))

	return nil
}

// Ban persists the ban and adds it to the cache. Returns false without
// touching storage when the user is already cached as banned, and false when
// storage independently reports a duplicate; the cache is resynced either way.
func (c *Cache) Ban(userID int64, reason string) (bool, error) {
	if c.IsBanned(userID) {
		return false, nil
	}

	err := c.store.Add(userID, reason)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			log.Printf("banlist: user %d already banned in storage - resyncing cache", userID)
			c.add(userID)
			return false, nil
		}

		return false, fmt.Errorf("banlist.Ban: %w", err)
	}

	c.add(userID)

	return true, nil
}

// IsBanned is the fast-path gate checked on every inbound event.
func (c *Cache) IsBanned(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.banned[userID]

	return ok
}

func (c *Cache) add(userID int64) {
	c.mu.Lock()
	c.banned[userID] = struct{}{}
	c.mu.Unlock()
}
