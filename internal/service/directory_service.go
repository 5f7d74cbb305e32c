package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"compmatrix-data/internal/competency"
	"compmatrix-data/internal/domain"
	"compmatrix-data/internal/repository"
	"compmatrix-data/internal/store"

	"go.uber.org/zap"
)

// DirectoryService 人员目录服务：
// 取数 → 引擎过滤/排序 → 统计 → 分页；保存记录成功后把结果
// merge 回 directory 快照缓存（确认保存成功前不动任何本地状态）
type DirectoryService struct {
	personnel   repository.PersonnelRepository
	definitions repository.DefinitionsRepository
	kv          store.KV
	cacheTTL    time.Duration
	logger      *zap.Logger

	// 时间注入点（测试用固定时钟）
	now func() time.Time
}

// NewDirectoryService 创建 DirectoryService 实例
func NewDirectoryService(personnel repository.PersonnelRepository, definitions repository.DefinitionsRepository, kv store.KV, cacheTTL time.Duration, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		personnel:   personnel,
		definitions: definitions,
		kv:          kv,
		cacheTTL:    cacheTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// ============================================
// Request/Response DTOs
// ============================================

// ListDirectoryRequest 查询人员目录请求
type ListDirectoryRequest struct {
	TenantID string // 必填

	// 过滤条件
	Search         string
	OrganizationID string   // 空或 "all" 不过滤
	Role           string   // 空或 "all" 不过滤
	CompetencyIDs  []string // AND 语义：必须全部持有且当前有效

	// 排序
	SortColumn     string
	SortDescending bool

	// 分页
	Page     int // 页码，默认 1
	PageSize int // 每页数量，默认 20
}

// DirectoryEntryDTO 目录列表项
type DirectoryEntryDTO struct {
	PersonID         string                 `json:"person_id"`
	Username         string                 `json:"username"`
	Email            string                 `json:"email,omitempty"`
	OrganizationID   string                 `json:"organization_id"`
	OrganizationName string                 `json:"organization_name,omitempty"`
	Role             string                 `json:"role"`
	Stats            competency.PersonStats `json:"stats"`
}

// ListDirectoryResponse 查询人员目录响应
type ListDirectoryResponse struct {
	Items []*DirectoryEntryDTO
	Total int // 过滤后总数（分页前）
}

// RecordDTO 单条能力记录（含推导状态）
type RecordDTO struct {
	RecordID        string `json:"record_id,omitempty"`
	CompetencyID    string `json:"competency_id"`
	CompetencyName  string `json:"competency_name,omitempty"`
	Status          string `json:"status"`           // 推导后的有效状态
	StoredStatus    string `json:"stored_status"`    // DB 里的原始状态
	PendingApproval bool   `json:"pending_approval"` // 单独透出的徽标
	DaysUntilExpiry *int   `json:"days_until_expiry,omitempty"`
	IssuedDate      string `json:"issued_date,omitempty"`
	ExpiryDate      string `json:"expiry_date,omitempty"`
	IssuingBody     string `json:"issuing_body,omitempty"`
	CertificationID string `json:"certification_id,omitempty"`
	Value           string `json:"value,omitempty"`
	Notes           string `json:"notes,omitempty"`
	WitnessChecked  bool   `json:"witness_checked"`
	WitnessedBy     string `json:"witnessed_by,omitempty"`
	WitnessedAt     string `json:"witnessed_at,omitempty"`
	WitnessNotes    string `json:"witness_notes,omitempty"`
}

// PersonDetailResponse 人员详情响应
type PersonDetailResponse struct {
	PersonID         string                 `json:"person_id"`
	Username         string                 `json:"username"`
	Email            string                 `json:"email,omitempty"`
	OrganizationID   string                 `json:"organization_id"`
	OrganizationName string                 `json:"organization_name,omitempty"`
	Role             string                 `json:"role"`
	Stats            competency.PersonStats `json:"stats"`
	Records          []*RecordDTO           `json:"records"`
}

// SaveRecordRequest 保存/新建能力记录请求
// 日期为 YYYY-MM-DD 字符串；无法解析按"无日期"处理
type SaveRecordRequest struct {
	TenantID     string
	PersonID     string
	CompetencyID string

	IssuedDate      string
	ExpiryDate      string
	IssuingBody     string
	CertificationID string
	Value           string
	Notes           string

	WitnessChecked bool
	WitnessedBy    string
	WitnessedAt    string
	WitnessNotes   string
}

// SaveRecordResponse 保存结果
type SaveRecordResponse struct {
	RecordID string `json:"record_id"`
	Status   string `json:"status"` // 保存后的推导状态
}

// ============================================
// Directory queries
// ============================================

// ListDirectory 过滤 + 排序 + 统计 + 分页
func (s *DirectoryService) ListDirectory(ctx context.Context, req ListDirectoryRequest) (*ListDirectoryResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	people, err := s.loadDirectory(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	defs, err := s.definitionIndex(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	filtered := competency.FilterAndSort(people,
		competency.DirectoryFilter{
			Search:         req.Search,
			OrganizationID: req.OrganizationID,
			Role:           req.Role,
			CompetencyIDs:  req.CompetencyIDs,
		},
		competency.SortState{
			Column:     competency.SortColumn(req.SortColumn),
			Descending: req.SortDescending,
		},
		defs, now)

	total := len(filtered)
	page, size := normalizePage(req.Page, req.PageSize)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	items := make([]*DirectoryEntryDTO, 0, end-start)
	for _, p := range filtered[start:end] {
		items = append(items, &DirectoryEntryDTO{
			PersonID:         p.PersonID,
			Username:         p.Username,
			Email:            p.Email,
			OrganizationID:   p.OrganizationID,
			OrganizationName: p.OrganizationName,
			Role:             p.Role,
			Stats:            competency.Stats(p, defs, now),
		})
	}
	return &ListDirectoryResponse{Items: items, Total: total}, nil
}

// GetPersonDetail 人员详情（记录含推导状态）
func (s *DirectoryService) GetPersonDetail(ctx context.Context, tenantID, personID string) (*PersonDetailResponse, error) {
	p, err := s.personnel.GetPerson(ctx, tenantID, personID)
	if err != nil {
		return nil, err
	}
	defs, err := s.definitionIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	s.logDuplicates(p)

	now := s.now()
	records := make([]*RecordDTO, 0, len(p.Competencies))
	for _, rec := range p.Competencies {
		dto := toRecordDTO(rec, now)
		if def, ok := defs[rec.CompetencyID]; ok {
			dto.CompetencyName = def.Name
		}
		records = append(records, dto)
	}

	return &PersonDetailResponse{
		PersonID:         p.PersonID,
		Username:         p.Username,
		Email:            p.Email,
		OrganizationID:   p.OrganizationID,
		OrganizationName: p.OrganizationName,
		Role:             p.Role,
		Stats:            competency.Stats(p, defs, now),
		Records:          records,
	}, nil
}

// PopulationStats 全员统计
func (s *DirectoryService) PopulationStats(ctx context.Context, tenantID string) (competency.PersonStats, error) {
	people, err := s.loadDirectory(ctx, tenantID)
	if err != nil {
		return competency.PersonStats{}, err
	}
	defs, err := s.definitionIndex(ctx, tenantID)
	if err != nil {
		return competency.PersonStats{}, err
	}
	return competency.PopulationStats(people, defs, s.now()), nil
}

// ============================================
// Save + local merge
// ============================================

// SaveRecord 持久化成功后才把结果 merge 回快照缓存；
// 失败时直接返回错误，缓存和内存集合保持原样
func (s *DirectoryService) SaveRecord(ctx context.Context, req SaveRecordRequest) (*SaveRecordResponse, error) {
	if req.TenantID == "" || req.PersonID == "" || req.CompetencyID == "" {
		return nil, fmt.Errorf("person_id and competency_id are required")
	}

	// 未知 definition 直接拒绝
	if _, err := s.definitions.GetDefinition(ctx, req.TenantID, req.CompetencyID); err != nil {
		return nil, fmt.Errorf("unknown competency %s: %w", req.CompetencyID, err)
	}

	patch := competency.RecordPatch{
		IssuedAt:        competency.ParseDate(req.IssuedDate),
		ExpiryDate:      competency.ParseDate(req.ExpiryDate),
		IssuingBody:     req.IssuingBody,
		CertificationID: req.CertificationID,
		Value:           req.Value,
		Notes:           req.Notes,
		WitnessChecked:  req.WitnessChecked,
		WitnessedBy:     req.WitnessedBy,
		WitnessedAt:     competency.ParseDate(req.WitnessedAt),
		WitnessNotes:    req.WitnessNotes,
	}

	rec := &domain.CompetencyRecord{
		TenantID:        req.TenantID,
		PersonID:        req.PersonID,
		CompetencyID:    req.CompetencyID,
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

	recordID, err := s.personnel.SaveRecord(ctx, req.TenantID, rec)
	if err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}

	// 保存确认成功，乐观 merge 回快照（缓存未命中则无事可做，下次读重新取数）
	s.mergeIntoSnapshot(ctx, req.TenantID, req.PersonID, req.CompetencyID, patch)

	rec.RecordID = recordID
	rec.Status = domain.RecordStatusActive
	return &SaveRecordResponse{
		RecordID: recordID,
		Status:   string(competency.Classify(rec, s.now())),
	}, nil
}

// ============================================
// Snapshot cache
// ============================================

func directoryCacheKey(tenantID string) string {
	return "compmatrix:directory:" + tenantID
}

// loadDirectory read-through 快照缓存
func (s *DirectoryService) loadDirectory(ctx context.Context, tenantID string) ([]*domain.Person, error) {
	key := directoryCacheKey(tenantID)
	if raw, err := s.kv.Get(ctx, key); err == nil {
		var people []*domain.Person
		if err := json.Unmarshal([]byte(raw), &people); err == nil {
			return people, nil
		}
		// 缓存损坏：当作未命中，重新取数
		s.logger.Warn("directory snapshot corrupted, refetching", zap.String("tenant_id", tenantID))
	} else if err != store.ErrMiss {
		// Redis 不可用不阻塞读：直接打 DB
		s.logger.Warn("directory snapshot read failed", zap.Error(err))
	}

	people, err := s.personnel.ListPersonnel(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list personnel: %w", err)
	}
	for _, p := range people {
		s.logDuplicates(p)
	}

	s.storeSnapshot(ctx, tenantID, people)
	return people, nil
}

func (s *DirectoryService) storeSnapshot(ctx context.Context, tenantID string, people []*domain.Person) {
	raw, err := json.Marshal(people)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, directoryCacheKey(tenantID), string(raw), s.cacheTTL); err != nil {
		s.logger.Warn("directory snapshot write failed", zap.Error(err))
	}
}

// mergeIntoSnapshot 只在缓存命中时做本地 merge（纯函数，产生新集合）
func (s *DirectoryService) mergeIntoSnapshot(ctx context.Context, tenantID, personID, competencyID string, patch competency.RecordPatch) {
	key := directoryCacheKey(tenantID)
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return
	}
	var people []*domain.Person
	if err := json.Unmarshal([]byte(raw), &people); err != nil {
		_ = s.kv.Delete(ctx, key)
		return
	}
	merged := competency.MergeRecord(people, personID, competencyID, patch)
	s.storeSnapshot(ctx, tenantID, merged)
}

// logDuplicates (person, competency_id) 唯一性破坏属于数据录入错误：只记日志，
// 下游 first match wins
func (s *DirectoryService) logDuplicates(p *domain.Person) {
	if dups := competency.DuplicateCompetencyIDs(p); len(dups) > 0 {
		s.logger.Warn("duplicate competency records for person",
			zap.String("person_id", p.PersonID),
			zap.Strings("competency_ids", dups),
		)
	}
}

func (s *DirectoryService) definitionIndex(ctx context.Context, tenantID string) (map[string]*domain.CompetencyDefinition, error) {
	defs, err := s.definitions.ListDefinitions(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	return competency.DefinitionIndex(defs), nil
}

func toRecordDTO(rec *domain.CompetencyRecord, now time.Time) *RecordDTO {
	dto := &RecordDTO{
		RecordID:        rec.RecordID,
		CompetencyID:    rec.CompetencyID,
		Status:          string(competency.Classify(rec, now)),
		StoredStatus:    rec.Status,
		PendingApproval: competency.IsPendingApproval(rec),
		IssuedDate:      competency.FormatDate(rec.CreatedAt),
		ExpiryDate:      competency.FormatDate(rec.ExpiryDate),
		IssuingBody:     rec.IssuingBody,
		CertificationID: rec.CertificationID,
		Value:           rec.Value,
		Notes:           rec.Notes,
		WitnessChecked:  rec.WitnessChecked,
		WitnessedBy:     rec.WitnessedBy,
		WitnessedAt:     competency.FormatDate(rec.WitnessedAt),
		WitnessNotes:    rec.WitnessNotes,
	}
	if rec.ExpiryDate != nil {
		days := competency.DaysUntil(*rec.ExpiryDate, now)
		dto.DaysUntilExpiry = &days
	}
	return dto
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return page, size
}
