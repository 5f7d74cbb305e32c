package httpapi

import (
	"errors"
	"net/http"

	"compmatrix-data/internal/models"
	"compmatrix-data/internal/repository"
	"compmatrix-data/internal/service"

	"go.uber.org/zap"
)

// DirectoryHandler 人员目录 API
type DirectoryHandler struct {
	directory *service.DirectoryService
	identity  service.IdentityResolver // nil = dev 模式，不做权限检查
	logger    *zap.Logger
}

func NewDirectoryHandler(directory *service.DirectoryService, identity service.IdentityResolver, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{directory: directory, identity: identity, logger: logger}
}

// directoryListModel 列表响应（与前端分页模型对齐）
type directoryListModel struct {
	Items      []*service.DirectoryEntryDTO `json:"items"`
	Pagination models.BackendPagination     `json:"pagination"`
}

// GET /matrix/api/v1/personnel
// params:
// - tenant_id string（必填）
// - search? org? role? 过滤条件
// - competency_ids? 逗号分隔，AND 语义
// - sort? direction?（1 = desc）
// - page? size?
func (h *DirectoryHandler) ListPersonnel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id is required"))
		return
	}

	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 20)
	sortColumn := q.Get("sort")
	descending := parseInt(q.Get("direction"), 0) == 1

	resp, err := h.directory.ListDirectory(r.Context(), service.ListDirectoryRequest{
		TenantID:       tenantID,
		Search:         q.Get("search"),
		OrganizationID: q.Get("org"),
		Role:           q.Get("role"),
		CompetencyIDs:  splitCSV(q.Get("competency_ids")),
		SortColumn:     sortColumn,
		SortDescending: descending,
		Page:           page,
		PageSize:       size,
	})
	if err != nil {
		h.logger.Warn("list personnel failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list personnel"))
		return
	}

	direction := 0
	if descending {
		direction = 1
	}
	writeJSON(w, http.StatusOK, Ok(directoryListModel{
		Items: resp.Items,
		Pagination: models.BackendPagination{
			Size:      size,
			Page:      page,
			Count:     resp.Total,
			Sort:      sortColumn,
			Direction: direction,
		},
	}))
}

// GET /matrix/api/v1/personnel/{id}
func (h *DirectoryHandler) GetPerson(w http.ResponseWriter, r *http.Request, personID string) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" || personID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id and person id are required"))
		return
	}

	detail, err := h.directory.GetPersonDetail(r.Context(), tenantID, personID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("person not found"))
			return
		}
		h.logger.Warn("get person failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to get person"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(detail))
}

// GET /matrix/api/v1/stats
func (h *DirectoryHandler) PopulationStats(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id is required"))
		return
	}

	st, err := h.directory.PopulationStats(r.Context(), tenantID)
	if err != nil {
		h.logger.Warn("population stats failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to compute stats"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(st))
}
