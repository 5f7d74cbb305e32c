package service

import (
	"context"
	"fmt"
	"time"

	"compmatrix-data/internal/competency"
	"compmatrix-data/internal/repository"

	"go.uber.org/zap"
)

// MatrixService 能力矩阵视图：行 = definition（按 category 分组），
// 列 = person，单元格 = 推导状态
type MatrixService struct {
	personnel   repository.PersonnelRepository
	definitions repository.DefinitionsRepository
	logger      *zap.Logger

	now func() time.Time
}

// NewMatrixService 创建 MatrixService 实例
func NewMatrixService(personnel repository.PersonnelRepository, definitions repository.DefinitionsRepository, logger *zap.Logger) *MatrixService {
	return &MatrixService{
		personnel:   personnel,
		definitions: definitions,
		logger:      logger,
		now:         time.Now,
	}
}

// BuildMatrixRequest 矩阵查询请求
type BuildMatrixRequest struct {
	TenantID string // 必填
	// all/active/expiring/expired；空按 all 处理
	StatusFilter string
}

// MatrixCellDTO 单元格：某人对某 definition 的状态
type MatrixCellDTO struct {
	PersonID        string `json:"person_id"`
	RecordID        string `json:"record_id,omitempty"`
	Status          string `json:"status"`
	PendingApproval bool   `json:"pending_approval,omitempty"`
	DaysUntilExpiry *int   `json:"days_until_expiry,omitempty"`
	ExpiryDate      string `json:"expiry_date,omitempty"`
}

// MatrixRowDTO 一行 = 一个 competency definition
type MatrixRowDTO struct {
	CompetencyID    string           `json:"competency_id"`
	Name            string           `json:"name"`
	FieldType       string           `json:"field_type"`
	RequiresWitness bool             `json:"requires_witness"`
	Cells           []*MatrixCellDTO `json:"cells"`
}

// MatrixGroupDTO category 分组
type MatrixGroupDTO struct {
	Category string          `json:"category"`
	Rows     []*MatrixRowDTO `json:"rows"`
}

// MatrixColumnDTO 列头（person）
type MatrixColumnDTO struct {
	PersonID         string `json:"person_id"`
	Username         string `json:"username"`
	OrganizationName string `json:"organization_name,omitempty"`
}

// BuildMatrixResponse 矩阵响应
type BuildMatrixResponse struct {
	Columns []*MatrixColumnDTO `json:"columns"`
	Groups  []*MatrixGroupDTO  `json:"groups"`
}

// BuildMatrix 构建状态过滤后的矩阵
// 行过滤规则：statusFilter != all 时，只有至少一人命中该状态的行才保留
func (s *MatrixService) BuildMatrix(ctx context.Context, req BuildMatrixRequest) (*BuildMatrixResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	people, err := s.personnel.ListPersonnel(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list personnel: %w", err)
	}
	defs, err := s.definitions.ListDefinitions(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}

	for _, p := range people {
		if dups := competency.DuplicateCompetencyIDs(p); len(dups) > 0 {
			s.logger.Warn("duplicate competency records for person",
				zap.String("person_id", p.PersonID),
				zap.Strings("competency_ids", dups),
			)
		}
	}

	now := s.now()
	statusFilter := competency.Status(req.StatusFilter)

	columns := make([]*MatrixColumnDTO, 0, len(people))
	for _, p := range people {
		columns = append(columns, &MatrixColumnDTO{
			PersonID:         p.PersonID,
			Username:         p.Username,
			OrganizationName: p.OrganizationName,
		})
	}

	groups := make([]*MatrixGroupDTO, 0)
	for _, group := range competency.GroupRows(defs) {
		g := &MatrixGroupDTO{Category: group.Category}
		for _, def := range group.Definitions {
			if !competency.ShouldShowRow(def, people, statusFilter, now) {
				continue
			}
			row := &MatrixRowDTO{
				CompetencyID:    def.CompetencyID,
				Name:            def.Name,
				FieldType:       def.FieldType,
				RequiresWitness: def.RequiresWitness,
				Cells:           make([]*MatrixCellDTO, 0, len(people)),
			}
			for _, p := range people {
				rec := p.RecordFor(def.CompetencyID)
				cell := &MatrixCellDTO{
					PersonID:        p.PersonID,
					Status:          string(competency.Classify(rec, now)),
					PendingApproval: competency.IsPendingApproval(rec),
				}
				if rec != nil {
					cell.RecordID = rec.RecordID
					cell.ExpiryDate = competency.FormatDate(rec.ExpiryDate)
					if rec.ExpiryDate != nil {
						days := competency.DaysUntil(*rec.ExpiryDate, now)
						cell.DaysUntilExpiry = &days
					}
				}
				row.Cells = append(row.Cells, cell)
			}
			g.Rows = append(g.Rows, row)
		}
		// 过滤后整组为空则不输出该 category
		if len(g.Rows) > 0 {
			groups = append(groups, g)
		}
	}

	return &BuildMatrixResponse{Columns: columns, Groups: groups}, nil
}
