// Package competency implements the status derivation and filtering rules
// shared by the directory and matrix views: effective-status classification,
// personal-detail exclusion, per-person statistics, filter/sort pipeline and
// the in-memory record merge.
//
// 纯函数包：不做 I/O，不打日志，时间一律由调用方注入（便于测试）
package competency

import (
	"time"

	"compmatrix-data/internal/domain"
)

// Status 有效状态（由 stored status + expiry_date + now 推导）
type Status string

const (
	StatusNone     Status = "none"
	StatusActive   Status = "active"
	StatusExpiring Status = "expiring"
	StatusExpired  Status = "expired"

	// StatusAll matrix 行过滤的通配值
	StatusAll Status = "all"
)

// ExpiringWindowDays 到期提醒窗口：剩余 1..30 天视为 expiring
const ExpiringWindowDays = 30

// truncateToDay 按 UTC 截断到日期粒度
// 到期判断是整天语义：当天到期既不算 expired 也不算 expiring
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil 日期粒度的剩余整天数（过期为负，当天为 0）
func DaysUntil(expiry, now time.Time) int {
	return int(truncateToDay(expiry).Sub(truncateToDay(now)).Hours() / 24)
}

// Classify 推导记录的有效状态
//
// 规则（顺序固定）：
//  1. 无记录 → none
//  2. stored status 为 expired，或 expiry_date 严格早于今天 → expired
//     （stored expired 永远优先，不看日期）
//  3. 剩余 1..ExpiringWindowDays 天 → expiring
//  4. 其余 → active（包括当天到期、无 expiry_date、pending_approval）
//
// pending_approval 不参与到期分类，由 IsPendingApproval 单独透出
func Classify(rec *domain.CompetencyRecord, now time.Time) Status {
	if rec == nil {
		return StatusNone
	}
	if rec.Status == domain.RecordStatusExpired {
		return StatusExpired
	}
	if rec.ExpiryDate != nil {
		days := DaysUntil(*rec.ExpiryDate, now)
		if days < 0 {
			return StatusExpired
		}
		if days > 0 && days <= ExpiringWindowDays {
			return StatusExpiring
		}
	}
	return StatusActive
}

// IsPendingApproval pending 徽标单独透出（不影响到期分类）
func IsPendingApproval(rec *domain.CompetencyRecord) bool {
	return rec != nil && rec.Status == domain.RecordStatusPendingApproval
}

// IsCurrentlyValid 多选能力过滤使用的"当前有效"判断：
// stored status 为 active，或 expiry_date 不早于今天
func IsCurrentlyValid(rec *domain.CompetencyRecord, now time.Time) bool {
	if rec == nil {
		return false
	}
	if rec.Status == domain.RecordStatusActive {
		return true
	}
	return rec.ExpiryDate != nil && DaysUntil(*rec.ExpiryDate, now) >= 0
}

// ParseDate 宽容解析日期（YYYY-MM-DD，兼容 RFC3339）
// 解析失败返回 nil：无效日期按"无日期"处理，绝不报错
func ParseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}

// FormatDate 与 ParseDate 对称（nil → 空串）
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
