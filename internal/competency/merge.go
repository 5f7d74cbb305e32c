package competency

import (
	"time"

	"compmatrix-data/internal/domain"
)

// RecordPatch 编辑/新建表单提交的完整字段集
// 语义与编辑表单一致：表单里留空的可选字段就是清空（zero value / nil），
// 唯独签发日期缺省时保留原值（IssuedAt == nil → keep CreatedAt）
type RecordPatch struct {
	// 空串 → 保留原 status（新建记录时默认 active）
	Status string

	IssuedAt   *time.Time
	ExpiryDate *time.Time

	IssuingBody     string
	CertificationID string
	Value           string
	Notes           string

	WitnessChecked bool
	WitnessedBy    string
	WitnessedAt    *time.Time
	WitnessNotes   string
}

// MergeRecord 把保存成功的记录合并回内存集合，返回新集合（不改动输入）
//
// - 目标 person 和其记录切片复制后修改，其余 person 原样透传（允许结构共享）
// - (person, competency_id) 已存在 → 覆盖（重复记录只改第一条）
// - 不存在 → 以 patch 合成新记录，stored status 默认 active
func MergeRecord(people []*domain.Person, personID, competencyID string, patch RecordPatch) []*domain.Person {
	out := make([]*domain.Person, len(people))
	for i, p := range people {
		if p.PersonID != personID {
			out[i] = p
			continue
		}

		cp := *p
		recs := make([]*domain.CompetencyRecord, 0, len(p.Competencies)+1)
		merged := false
		for _, rec := range p.Competencies {
			if rec.CompetencyID != competencyID || merged {
				recs = append(recs, rec)
				continue
			}
			r := *rec
			applyPatch(&r, patch)
			recs = append(recs, &r)
			merged = true
		}
		if !merged {
			recs = append(recs, newRecord(p, competencyID, patch))
		}
		cp.Competencies = recs
		out[i] = &cp
	}
	return out
}

func applyPatch(r *domain.CompetencyRecord, patch RecordPatch) {
	if patch.Status != "" {
		r.Status = patch.Status
	}
	if patch.IssuedAt != nil {
		r.CreatedAt = patch.IssuedAt
	}
	r.ExpiryDate = patch.ExpiryDate
	r.IssuingBody = patch.IssuingBody
	r.CertificationID = patch.CertificationID
	r.Value = patch.Value
	r.Notes = patch.Notes
	r.WitnessChecked = patch.WitnessChecked
	r.WitnessedBy = patch.WitnessedBy
	r.WitnessedAt = patch.WitnessedAt
	r.WitnessNotes = patch.WitnessNotes
}

func newRecord(p *domain.Person, competencyID string, patch RecordPatch) *domain.CompetencyRecord {
	status := patch.Status
	if status == "" {
		status = domain.RecordStatusActive
	}
	return &domain.CompetencyRecord{
		TenantID:        p.TenantID,
		PersonID:        p.PersonID,
		CompetencyID:    competencyID,
		Status:          status,
		CreatedAt:       patch.IssuedAt,
		ExpiryDate:      patch.ExpiryDate,
		IssuingBody:     patch.IssuingBody,
		CertificationID: patch.CertificationID,
		Value:           patch.Value,
		Notes:           patch.Notes,
		WitnessChecked:  patch.WitnessChecked,
		WitnessedBy:     patch.WitnessedBy,
		WitnessedAt:     patch.WitnessedAt,
		WitnessNotes:    patch.WitnessNotes,
	}
}
