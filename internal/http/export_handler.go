package httpapi

import (
	"net/http"

	"compmatrix-data/internal/service"

	"go.uber.org/zap"
)

// ExportHandler 导出 API（directory CSV / matrix Excel）
type ExportHandler struct {
	export *service.ExportService
	logger *zap.Logger
}

func NewExportHandler(export *service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{export: export, logger: logger}
}

// GET /matrix/api/v1/export/directory.csv
// 接受与 /personnel 相同的过滤/排序参数，导出全量（不分页）
func (h *ExportHandler) ExportDirectoryCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id is required"))
		return
	}

	out, err := h.export.ExportDirectoryCSV(r.Context(), service.ListDirectoryRequest{
		TenantID:       tenantID,
		Search:         q.Get("search"),
		OrganizationID: q.Get("org"),
		Role:           q.Get("role"),
		CompetencyIDs:  splitCSV(q.Get("competency_ids")),
		SortColumn:     q.Get("sort"),
		SortDescending: parseInt(q.Get("direction"), 0) == 1,
	})
	if err != nil {
		h.logger.Warn("export directory failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to export directory"))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="personnel-directory.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// GET /matrix/api/v1/export/matrix.xlsx
func (h *ExportHandler) ExportMatrixXLSX(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id is required"))
		return
	}

	out, err := h.export.ExportMatrixXLSX(r.Context(), service.BuildMatrixRequest{
		TenantID:     tenantID,
		StatusFilter: q.Get("status"),
	})
	if err != nil {
		h.logger.Warn("export matrix failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to export matrix"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="competency-matrix.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
