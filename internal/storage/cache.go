package storage

import (
	"sync"
	"time"

	"github.com/hojoonlee/pilltick/internal/model"
)

// MedicineCache memoizes a user's medicine list with a TTL so the trigger
// evaluator's rebuild path does not hit the store on every pass.
type MedicineCache struct {
	repo *MedicineRepo
	ttl  time.Duration

	mu        sync.Mutex
	medicines []*model.Medicine
	fetchedAt time.Time
	now       func() time.Time
}

// NewMedicineCache creates a medicine list cache with the given TTL.
func NewMedicineCache(repo *MedicineRepo, ttl time.Duration) *MedicineCache {
	return &MedicineCache{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// List returns the user's enabled medicines, refetching when the cached copy
// is older than the TTL. A fetch failure with a warm cache serves the stale
// copy rather than failing the caller.
func (c *MedicineCache) List(userID string) ([]*model.Medicine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.medicines != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.medicines, nil
	}

	fresh, err := c.repo.ListEnabled(userID)
	if err != nil {
		if c.medicines != nil {
			return c.medicines, nil
		}
		return nil, err
	}

	c.medicines = fresh
	c.fetchedAt = c.now()
	return c.medicines, nil
}

// Invalidate drops the cached copy so the next List refetches.
func (c *MedicineCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.medicines = nil
	c.fetchedAt = time.Time{}
}
