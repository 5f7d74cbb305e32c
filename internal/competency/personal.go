package competency

import (
	"strings"

	"compmatrix-data/internal/domain"
)

// knownPersonalFields 个人信息字段名单（小写比较）
// 这些 definition 与真正的能力/认证共用同一存储结构，
// 但必须从计数、matrix 行和能力过滤下拉中排除
var knownPersonalFields = map[string]struct{}{
	"email":                     {},
	"e-mail":                    {},
	"email address":             {},
	"phone":                     {},
	"phone number":              {},
	"mobile":                    {},
	"mobile number":             {},
	"date of birth":             {},
	"dob":                       {},
	"address":                   {},
	"home address":              {},
	"emergency contact":         {},
	"next of kin":               {},
	"national insurance number": {},
}

// IsPersonalDetail 判断 definition 是否为个人信息字段
// 所有调用点（stats、matrix 行、过滤下拉）必须使用同一个判断
func IsPersonalDetail(def *domain.CompetencyDefinition) bool {
	if def == nil {
		return false
	}
	if def.FieldType == domain.FieldTypePersonalDetail {
		return true
	}
	_, ok := knownPersonalFields[strings.ToLower(strings.TrimSpace(def.Name))]
	return ok
}

// FilterOutPersonalDetails 返回非个人信息的 definition 子集（保持顺序）
func FilterOutPersonalDetails(defs []*domain.CompetencyDefinition) []*domain.CompetencyDefinition {
	out := make([]*domain.CompetencyDefinition, 0, len(defs))
	for _, def := range defs {
		if !IsPersonalDetail(def) {
			out = append(out, def)
		}
	}
	return out
}

// ShouldShowCertificationFields 是否展示发证机构/证书编号输入
func ShouldShowCertificationFields(def *domain.CompetencyDefinition) bool {
	return def != nil && def.FieldType == domain.FieldTypeCertification
}

// ShouldShowDateFields 是否展示签发/到期日期输入
func ShouldShowDateFields(def *domain.CompetencyDefinition) bool {
	return def != nil && !IsPersonalDetail(def)
}

// RequiresWitnessCheck 是否需要第二人现场见证（控制 witness 子表单）
func RequiresWitnessCheck(def *domain.CompetencyDefinition) bool {
	return def != nil && def.RequiresWitness
}

// DefinitionIndex 按 competency_id 建索引
func DefinitionIndex(defs []*domain.CompetencyDefinition) map[string]*domain.CompetencyDefinition {
	byID := make(map[string]*domain.CompetencyDefinition, len(defs))
	for _, def := range defs {
		byID[def.CompetencyID] = def
	}
	return byID
}
