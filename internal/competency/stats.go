package competency

import (
	"sort"
	"time"

	"compmatrix-data/internal/domain"
)

// PersonStats 单人统计结果
// Total 为排除个人信息后的记录数；Active/Expiring/Expired 按 Classify 归类
type PersonStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Expiring int `json:"expiring"`
	Expired  int `json:"expired"`
}

// Stats 计算单人统计
// 个人信息记录和无对应 definition 的记录不计入任何计数
func Stats(p *domain.Person, defs map[string]*domain.CompetencyDefinition, now time.Time) PersonStats {
	var st PersonStats
	if p == nil {
		return st
	}
	for _, rec := range p.Competencies {
		def, ok := defs[rec.CompetencyID]
		if !ok || IsPersonalDetail(def) {
			continue
		}
		st.Total++
		switch Classify(rec, now) {
		case StatusActive:
			st.Active++
		case StatusExpiring:
			st.Expiring++
		case StatusExpired:
			st.Expired++
		}
	}
	return st
}

// PopulationStats 汇总全员统计
// 每条记录只属于一个 person，逐人累加即不会重复计数
func PopulationStats(people []*domain.Person, defs map[string]*domain.CompetencyDefinition, now time.Time) PersonStats {
	var total PersonStats
	for _, p := range people {
		st := Stats(p, defs, now)
		total.Total += st.Total
		total.Active += st.Active
		total.Expiring += st.Expiring
		total.Expired += st.Expired
	}
	return total
}

// DuplicateCompetencyIDs 返回违反 (person, competency_id) 唯一性的 competency_id 列表
// 重复属于数据录入错误：下游一律 first match wins，service 层负责记日志
func DuplicateCompetencyIDs(p *domain.Person) []string {
	if p == nil {
		return nil
	}
	seen := make(map[string]int, len(p.Competencies))
	for _, rec := range p.Competencies {
		seen[rec.CompetencyID]++
	}
	var dups []string
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}
