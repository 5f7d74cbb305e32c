package repository

import (
	"context"
	"errors"

	"compmatrix-data/internal/domain"
)

// ErrNotFound 统一的未找到错误（postgres 实现把 sql.ErrNoRows 转换为它）
var ErrNotFound = errors.New("not found")

// PersonnelRepository 人员Repository接口
// 使用强类型领域模型，不使用map[string]any
//
// 注意：directory 的过滤/排序一律在 competency 引擎内存中完成，
// repository 只负责取出整个租户的人员集合（records 已附上）
type PersonnelRepository interface {
	ListPersonnel(ctx context.Context, tenantID string) ([]*domain.Person, error)
	GetPerson(ctx context.Context, tenantID, personID string) (*domain.Person, error)

	// SaveRecord 按 (person_id, competency_id) upsert，返回 record_id
	// 失败时不得留下部分写入
	SaveRecord(ctx context.Context, tenantID string, rec *domain.CompetencyRecord) (string, error)
}

// DefinitionsRepository 能力定义Repository接口
type DefinitionsRepository interface {
	// ListDefinitions 按 category_name, display_order, name 排序返回
	ListDefinitions(ctx context.Context, tenantID string) ([]*domain.CompetencyDefinition, error)
	GetDefinition(ctx context.Context, tenantID, competencyID string) (*domain.CompetencyDefinition, error)
}
