package repository

import (
	"context"
	"database/sql"
	"fmt"

	"compmatrix-data/internal/domain"
)

// PostgresDefinitionsRepository 能力定义Repository实现
type PostgresDefinitionsRepository struct {
	db *sql.DB
}

// NewPostgresDefinitionsRepository 创建能力定义Repository
func NewPostgresDefinitionsRepository(db *sql.DB) *PostgresDefinitionsRepository {
	return &PostgresDefinitionsRepository{db: db}
}

// 确保实现了接口
var _ DefinitionsRepository = (*PostgresDefinitionsRepository)(nil)

const definitionColumns = `
	competency_id::text,
	tenant_id::text,
	name,
	category_name,
	field_type,
	requires_witness,
	display_order
`

// ListDefinitions 返回整个租户的定义（category + display_order 排序）
func (r *PostgresDefinitionsRepository) ListDefinitions(ctx context.Context, tenantID string) ([]*domain.CompetencyDefinition, error) {
	if tenantID == "" {
		return nil, ErrNotFound
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+definitionColumns+`
		FROM competency_definitions
		WHERE tenant_id = $1
		ORDER BY category_name NULLS LAST, display_order, name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	var defs []*domain.CompetencyDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// GetDefinition 获取单个定义
func (r *PostgresDefinitionsRepository) GetDefinition(ctx context.Context, tenantID, competencyID string) (*domain.CompetencyDefinition, error) {
	if tenantID == "" || competencyID == "" {
		return nil, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+definitionColumns+`
		FROM competency_definitions
		WHERE tenant_id = $1 AND competency_id = $2
	`, tenantID, competencyID)

	def, err := scanDefinition(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get definition: %w", err)
	}
	return def, nil
}

func scanDefinition(row rowScanner) (*domain.CompetencyDefinition, error) {
	var def domain.CompetencyDefinition
	var category sql.NullString
	if err := row.Scan(
		&def.CompetencyID,
		&def.TenantID,
		&def.Name,
		&category,
		&def.FieldType,
		&def.RequiresWitness,
		&def.DisplayOrder,
	); err != nil {
		return nil, err
	}
	def.CategoryName = category.String
	return &def, nil
}
