package domain

// Person 人员领域模型（对应 personnel 表）
// Directory/matrix 视图的聚合根；competencies 由 repository JOIN 填充
type Person struct {
	// 主键和租户
	PersonID string `db:"person_id"` // UUID, PRIMARY KEY
	TenantID string `db:"tenant_id"` // UUID, NOT NULL

	// 账号信息
	Username string `db:"username"` // VARCHAR(100), NOT NULL, UNIQUE(tenant_id, username)
	Email    string `db:"email"`    // VARCHAR(255), nullable

	// 组织
	OrganizationID   string `db:"organization_id"`   // UUID, NOT NULL
	OrganizationName string `db:"organization_name"` // joined from organizations.organization_name

	// 角色
	Role string `db:"role"` // VARCHAR(50), NOT NULL (admin/org_admin/editor/viewer)

	// 能力记录（无序；每个 competency_id 最多一条）
	Competencies []*CompetencyRecord
}

// Role 角色常量
const (
	RoleAdmin    = "admin"
	RoleOrgAdmin = "org_admin"
	RoleEditor   = "editor"
	RoleViewer   = "viewer"
)

// CanEditRecords 判断角色是否允许创建/编辑能力记录
func CanEditRecords(role string) bool {
	switch role {
	case RoleAdmin, RoleOrgAdmin, RoleEditor:
		return true
	}
	return false
}

// RecordFor 返回指定 competency 的记录（first match wins）
// 重复的 (person, competency_id) 属于数据录入错误，由 service 层记录日志
func (p *Person) RecordFor(competencyID string) *CompetencyRecord {
	for _, rec := range p.Competencies {
		if rec.CompetencyID == competencyID {
			return rec
		}
	}
	return nil
}
