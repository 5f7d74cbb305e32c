package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"compmatrix-data/internal/domain"
)

// MemoryPersonnelRepository supports DB-less operation (dev mode) and unit tests.
// 读路径返回副本，避免调用方共享内部状态
type MemoryPersonnelRepository struct {
	mu     sync.RWMutex
	people map[string]*domain.Person // personID -> Person
}

func NewMemoryPersonnelRepository() *MemoryPersonnelRepository {
	return &MemoryPersonnelRepository{people: map[string]*domain.Person{}}
}

// 确保实现了接口
var _ PersonnelRepository = (*MemoryPersonnelRepository)(nil)

// AddPerson 测试/演示数据注入
func (r *MemoryPersonnelRepository) AddPerson(p *domain.Person) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.PersonID == "" {
		p.PersonID = uuid.NewString()
	}
	r.people[p.PersonID] = p
}

func (r *MemoryPersonnelRepository) ListPersonnel(_ context.Context, tenantID string) ([]*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Person, 0, len(r.people))
	for _, p := range r.people {
		if p.TenantID != tenantID {
			continue
		}
		all = append(all, clonePerson(p))
	}
	sort.Slice(all, func(i, j int) bool {
		return strings.ToLower(all[i].Username) < strings.ToLower(all[j].Username)
	})
	return all, nil
}

func (r *MemoryPersonnelRepository) GetPerson(_ context.Context, tenantID, personID string) (*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.people[personID]
	if !ok || p.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return clonePerson(p), nil
}

func (r *MemoryPersonnelRepository) SaveRecord(_ context.Context, tenantID string, rec *domain.CompetencyRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.people[rec.PersonID]
	if !ok || p.TenantID != tenantID {
		return "", ErrNotFound
	}

	saved := *rec
	saved.TenantID = tenantID

	for i, existing := range p.Competencies {
		if existing.CompetencyID == rec.CompetencyID {
			saved.RecordID = existing.RecordID
			// 签发日期和 status 缺省时保留原值
			if saved.CreatedAt == nil {
				saved.CreatedAt = existing.CreatedAt
			}
			if saved.Status == "" {
				saved.Status = existing.Status
			}
			p.Competencies[i] = &saved
			return saved.RecordID, nil
		}
	}

	if saved.Status == "" {
		saved.Status = domain.RecordStatusActive
	}
	saved.RecordID = uuid.NewString()
	p.Competencies = append(p.Competencies, &saved)
	return saved.RecordID, nil
}

func clonePerson(p *domain.Person) *domain.Person {
	cp := *p
	cp.Competencies = make([]*domain.CompetencyRecord, len(p.Competencies))
	for i, rec := range p.Competencies {
		r := *rec
		cp.Competencies[i] = &r
	}
	return &cp
}
