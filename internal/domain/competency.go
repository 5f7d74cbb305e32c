package domain

// CompetencyDefinition 能力定义领域模型（对应 competency_definitions 表）
// Immutable reference data：决定记录的展示规则和表单字段
type CompetencyDefinition struct {
	CompetencyID string `db:"competency_id"` // UUID, PRIMARY KEY
	TenantID     string `db:"tenant_id"`     // UUID, NOT NULL

	Name         string `db:"name"`          // VARCHAR(200), NOT NULL
	CategoryName string `db:"category_name"` // VARCHAR(100), nullable（空值在 matrix 分组时归入 "Other"）

	// 字段类型：决定记录携带哪些可选字段
	FieldType string `db:"field_type"` // VARCHAR(50), NOT NULL

	// 是否需要第二人现场见证（如 NDT 实操类认证）
	RequiresWitness bool `db:"requires_witness"` // BOOLEAN, NOT NULL, DEFAULT FALSE

	// 同一 category 内的展示顺序
	DisplayOrder int `db:"display_order"` // INTEGER, NOT NULL, DEFAULT 0
}

// FieldType 字段类型常量
const (
	FieldTypeText           = "text"
	FieldTypeDate           = "date"
	FieldTypeExpiryDate     = "expiry_date"
	FieldTypeCertification  = "certification"
	FieldTypePersonalDetail = "personal_detail"
)

// DefaultCategory matrix 分组时无 category 记录的归属桶
const DefaultCategory = "Other"
