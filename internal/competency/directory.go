package competency

import (
	"sort"
	"strings"
	"time"

	"compmatrix-data/internal/domain"
)

// FilterAll org/role 过滤的通配值（与前端约定一致）
const FilterAll = "all"

// DirectoryFilter directory 视图的组合过滤条件（全部 AND 语义）
type DirectoryFilter struct {
	// 大小写不敏感子串匹配 username 或 email
	Search string
	// 空或 "all" 表示不过滤
	OrganizationID string
	Role           string
	// 多选能力过滤：person 必须持有全部所选能力且"当前有效"
	CompetencyIDs []string
}

// SortColumn 可排序列
type SortColumn string

const (
	SortByName     SortColumn = "name"
	SortByOrg      SortColumn = "org"
	SortByRole     SortColumn = "role"
	SortByTotal    SortColumn = "total"
	SortByActive   SortColumn = "active"
	SortByExpiring SortColumn = "expiring"
	SortByExpired  SortColumn = "expired"
)

// SortState 当前排序列和方向
type SortState struct {
	Column     SortColumn
	Descending bool
}

// NextSort 点击列头后的排序状态：同列翻转方向，新列重置为升序
func NextSort(cur SortState, clicked SortColumn) SortState {
	if cur.Column == clicked {
		cur.Descending = !cur.Descending
		return cur
	}
	return SortState{Column: clicked}
}

// Matches 判断单个 person 是否通过全部过滤条件
func (f DirectoryFilter) Matches(p *domain.Person, now time.Time) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(p.Username), term) &&
			!strings.Contains(strings.ToLower(p.Email), term) {
			return false
		}
	}
	if f.OrganizationID != "" && f.OrganizationID != FilterAll && p.OrganizationID != f.OrganizationID {
		return false
	}
	if f.Role != "" && f.Role != FilterAll && p.Role != f.Role {
		return false
	}
	for _, id := range f.CompetencyIDs {
		if !IsCurrentlyValid(p.RecordFor(id), now) {
			return false
		}
	}
	return true
}

// FilterAndSort 过滤 + 稳定排序，返回新切片（不改动输入顺序）
// 统计列的排序键通过 Stats 计算；相等键保持原相对顺序
func FilterAndSort(people []*domain.Person, f DirectoryFilter, s SortState, defs map[string]*domain.CompetencyDefinition, now time.Time) []*domain.Person {
	out := make([]*domain.Person, 0, len(people))
	for _, p := range people {
		if f.Matches(p, now) {
			out = append(out, p)
		}
	}

	if s.Column == "" {
		return out
	}

	// 统计列：先算好每人的统计，排序时查表
	var statsByID map[string]PersonStats
	switch s.Column {
	case SortByTotal, SortByActive, SortByExpiring, SortByExpired:
		statsByID = make(map[string]PersonStats, len(out))
		for _, p := range out {
			statsByID[p.PersonID] = Stats(p, defs, now)
		}
	}

	less := func(a, b *domain.Person) bool {
		switch s.Column {
		case SortByName:
			return strings.ToLower(a.Username) < strings.ToLower(b.Username)
		case SortByOrg:
			return strings.ToLower(a.OrganizationName) < strings.ToLower(b.OrganizationName)
		case SortByRole:
			return strings.ToLower(a.Role) < strings.ToLower(b.Role)
		case SortByTotal:
			return statsByID[a.PersonID].Total < statsByID[b.PersonID].Total
		case SortByActive:
			return statsByID[a.PersonID].Active < statsByID[b.PersonID].Active
		case SortByExpiring:
			return statsByID[a.PersonID].Expiring < statsByID[b.PersonID].Expiring
		case SortByExpired:
			return statsByID[a.PersonID].Expired < statsByID[b.PersonID].Expired
		}
		return false
	}

	sort.SliceStable(out, func(i, j int) bool {
		if s.Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
