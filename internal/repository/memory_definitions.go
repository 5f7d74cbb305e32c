package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"compmatrix-data/internal/domain"
)

// MemoryDefinitionsRepository supports DB-less operation (dev mode) and unit tests.
type MemoryDefinitionsRepository struct {
	mu   sync.RWMutex
	defs map[string]*domain.CompetencyDefinition // competencyID -> definition
}

func NewMemoryDefinitionsRepository() *MemoryDefinitionsRepository {
	return &MemoryDefinitionsRepository{defs: map[string]*domain.CompetencyDefinition{}}
}

// 确保实现了接口
var _ DefinitionsRepository = (*MemoryDefinitionsRepository)(nil)

// AddDefinition 测试/演示数据注入
func (r *MemoryDefinitionsRepository) AddDefinition(def *domain.CompetencyDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if def.CompetencyID == "" {
		def.CompetencyID = uuid.NewString()
	}
	r.defs[def.CompetencyID] = def
}

func (r *MemoryDefinitionsRepository) ListDefinitions(_ context.Context, tenantID string) ([]*domain.CompetencyDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.CompetencyDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		if def.TenantID != tenantID {
			continue
		}
		cp := *def
		all = append(all, &cp)
	}
	// 与 postgres 实现同一排序：category, display_order, name
	sort.Slice(all, func(i, j int) bool {
		if all[i].CategoryName != all[j].CategoryName {
			return all[i].CategoryName < all[j].CategoryName
		}
		if all[i].DisplayOrder != all[j].DisplayOrder {
			return all[i].DisplayOrder < all[j].DisplayOrder
		}
		return all[i].Name < all[j].Name
	})
	return all, nil
}

func (r *MemoryDefinitionsRepository) GetDefinition(_ context.Context, tenantID, competencyID string) (*domain.CompetencyDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[competencyID]
	if !ok || def.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *def
	return &cp, nil
}
