package competency

import (
	"sort"
	"time"

	"compmatrix-data/internal/domain"
)

// ShouldShowRow 判断 matrix 是否展示某个 definition 行
// statusFilter 为 all（或空）时恒为 true；否则至少一人的记录
// 按 Classify 命中该状态才展示
func ShouldShowRow(def *domain.CompetencyDefinition, people []*domain.Person, statusFilter Status, now time.Time) bool {
	if statusFilter == StatusAll || statusFilter == "" {
		return true
	}
	for _, p := range people {
		if Classify(p.RecordFor(def.CompetencyID), now) == statusFilter {
			return true
		}
	}
	return false
}

// RowGroup matrix 的一个 category 分组
type RowGroup struct {
	Category    string
	Definitions []*domain.CompetencyDefinition
}

// GroupRows 按 category 分组 matrix 行
// - 个人信息 definition 不进入 matrix（与 stats/下拉同一排除规则）
// - 无 category 归入 "Other"
// - category 按字典序排列，组内保持传入顺序（即 display_order）
func GroupRows(defs []*domain.CompetencyDefinition) []RowGroup {
	byCategory := make(map[string][]*domain.CompetencyDefinition)
	for _, def := range FilterOutPersonalDetails(defs) {
		cat := def.CategoryName
		if cat == "" {
			cat = domain.DefaultCategory
		}
		byCategory[cat] = append(byCategory[cat], def)
	}

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	groups := make([]RowGroup, 0, len(categories))
	for _, cat := range categories {
		groups = append(groups, RowGroup{Category: cat, Definitions: byCategory[cat]})
	}
	return groups
}
