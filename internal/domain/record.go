package domain

import "time"

// CompetencyRecord 能力记录领域模型（对应 competency_records 表）
// 一条记录 = 某个 definition 分配给某个 person；本服务不做物理删除
//
// 注意：stored status 不是最终真相——有效状态始终由
// competency.Classify 基于 {status, expiry_date, now} 重新推导
type CompetencyRecord struct {
	RecordID     string `db:"record_id"`     // UUID, PRIMARY KEY
	TenantID     string `db:"tenant_id"`     // UUID, NOT NULL
	PersonID     string `db:"person_id"`     // UUID, NOT NULL
	CompetencyID string `db:"competency_id"` // UUID, NOT NULL, UNIQUE(person_id, competency_id)

	// stored status：active/expired/pending_approval，可为空
	Status string `db:"status"` // VARCHAR(50), nullable

	// 日期（DATE 粒度；解析失败视为 NULL，绝不报错）
	CreatedAt  *time.Time `db:"created_at"`  // DATE, nullable（签发日期）
	ExpiryDate *time.Time `db:"expiry_date"` // DATE, nullable

	// 认证信息（仅 certification 类 definition 使用）
	IssuingBody     string `db:"issuing_body"`     // VARCHAR(200), nullable
	CertificationID string `db:"certification_id"` // VARCHAR(100), nullable

	// 自由值和备注
	Value string `db:"value"` // TEXT, nullable
	Notes string `db:"notes"` // TEXT, nullable

	// 见证信息（仅 requires_witness 的 definition 使用）
	WitnessChecked bool       `db:"witness_checked"` // BOOLEAN, NOT NULL, DEFAULT FALSE
	WitnessedBy    string     `db:"witnessed_by"`    // VARCHAR(100), nullable
	WitnessedAt    *time.Time `db:"witnessed_at"`    // DATE, nullable
	WitnessNotes   string     `db:"witness_notes"`   // TEXT, nullable
}

// Stored status 常量
const (
	RecordStatusActive          = "active"
	RecordStatusExpired         = "expired"
	RecordStatusPendingApproval = "pending_approval"
)
