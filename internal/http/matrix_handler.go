package httpapi

import (
	"net/http"

	"compmatrix-data/internal/competency"
	"compmatrix-data/internal/repository"
	"compmatrix-data/internal/service"

	"go.uber.org/zap"
)

// MatrixHandler 能力矩阵 + 定义列表 API
type MatrixHandler struct {
	matrix      *service.MatrixService
	definitions repository.DefinitionsRepository
	logger      *zap.Logger
}

func NewMatrixHandler(matrix *service.MatrixService, definitions repository.DefinitionsRepository, logger *zap.Logger) *MatrixHandler {
	return &MatrixHandler{matrix: matrix, definitions: definitions, logger: logger}
}

// GET /matrix/api/v1/matrix
// params:
// - tenant_id string（必填）
// - status? all|active|expiring|expired（默认 all）
func (h *MatrixHandler) GetMatrix(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id is required"))
		return
	}

	resp, err := h.matrix.BuildMatrix(r.Context(), service.BuildMatrixRequest{
		TenantID:     tenantID,
		StatusFilter: r.URL.Query().Get("status"),
	})
	if err != nil {
		h.logger.Warn("build matrix failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to build matrix"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// definitionDTO 下拉/表单用的定义项
type definitionDTO struct {
	CompetencyID    string `json:"competency_id"`
	Name            string `json:"name"`
	CategoryName    string `json:"category_name,omitempty"`
	FieldType       string `json:"field_type"`
	RequiresWitness bool   `json:"requires_witness"`

	// 表单展示规则（与引擎判断一致，前端不再自行推导）
	ShowCertificationFields bool `json:"show_certification_fields"`
	ShowDateFields          bool `json:"show_date_fields"`
}

// GET /matrix/api/v1/competencies
// params:
// - tenant_id string（必填）
// - include_personal? bool（默认 false：过滤下拉与 matrix 用同一排除规则）
func (h *MatrixHandler) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id is required"))
		return
	}

	defs, err := h.definitions.ListDefinitions(r.Context(), tenantID)
	if err != nil {
		h.logger.Warn("list definitions failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list competencies"))
		return
	}
	if r.URL.Query().Get("include_personal") != "true" {
		defs = competency.FilterOutPersonalDetails(defs)
	}

	items := make([]*definitionDTO, 0, len(defs))
	for _, def := range defs {
		items = append(items, &definitionDTO{
			CompetencyID:            def.CompetencyID,
			Name:                    def.Name,
			CategoryName:            def.CategoryName,
			FieldType:               def.FieldType,
			RequiresWitness:         competency.RequiresWitnessCheck(def),
			ShowCertificationFields: competency.ShouldShowCertificationFields(def),
			ShowDateFields:          competency.ShouldShowDateFields(def),
		})
	}
	writeJSON(w, http.StatusOK, Ok(items))
}
