package resources

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Resource
	seq   int64
	order map[string]int64
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: map[string]*models.Resource{},
		order: map[string]int64{},
		now:   time.Now,
	}
}

func (m *MemoryRepository) Create(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *r
	c.ID = uuid.NewString()
	c.CreatedAt = m.now().UTC()
	c.UpdatedAt = c.CreatedAt

	m.seq++
	m.items[c.ID] = &c
	m.order[c.ID] = m.seq

	out := c
	return &out, nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*models.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *r
	return &c, nil
}

func (m *MemoryRepository) Update(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.items[r.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	stored.Title = r.Title
	stored.Description = r.Description
	stored.Type = r.Type
	stored.URL = r.URL
	stored.UpdatedAt = m.now().UTC()

	c := *stored
	return &c, nil
}

func (m *MemoryRepository) SetAttachmentKey(ctx context.Context, id, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	stored.AttachmentKey = key
	stored.UpdatedAt = m.now().UTC()
	return nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.items, id)
	delete(m.order, id)
	return nil
}

// sorted returns copies ordered newest first; insertion order breaks
// timestamp ties.
func (m *MemoryRepository) sorted() []*models.Resource {
	out := make([]*models.Resource, 0, len(m.items))
	for _, r := range m.items {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return m.order[out[i].ID] > m.order[out[j].ID]
	})
	return out
}

func (m *MemoryRepository) List(ctx context.Context) ([]*models.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(), nil
}

func (m *MemoryRepository) Recent(ctx context.Context, limit int) ([]*models.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.sorted()
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.items)), nil
}

func (m *MemoryRepository) CountByType(ctx context.Context) ([]models.TypeCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[models.ResourceType]int64{}
	for _, r := range m.items {
		counts[r.Type]++
	}

	out := make([]models.TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, models.TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}
