package httpapi

import (
	"net/http"

	"compmatrix-data/internal/domain"
	"compmatrix-data/internal/service"

	"go.uber.org/zap"
)

// RecordHandler 能力记录保存/新建 API（写操作需要 editor 及以上角色）
type RecordHandler struct {
	directory *service.DirectoryService
	identity  service.IdentityResolver // nil = dev 模式，不做权限检查
	logger    *zap.Logger
}

func NewRecordHandler(directory *service.DirectoryService, identity service.IdentityResolver, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{directory: directory, identity: identity, logger: logger}
}

// saveRecordPayload POST body
// 日期是 YYYY-MM-DD；无法解析的日期按"无日期"处理
type saveRecordPayload struct {
	TenantID     string `json:"tenant_id"`
	PersonID     string `json:"person_id"`
	CompetencyID string `json:"competency_id"`

	IssuedDate      string `json:"issued_date"`
	ExpiryDate      string `json:"expiry_date"`
	IssuingBody     string `json:"issuing_body"`
	CertificationID string `json:"certification_id"`
	Value           string `json:"value"`
	Notes           string `json:"notes"`

	WitnessChecked bool   `json:"witness_checked"`
	WitnessedBy    string `json:"witnessed_by"`
	WitnessedAt    string `json:"witnessed_at"`
	WitnessNotes   string `json:"witness_notes"`
}

// POST /matrix/api/v1/records
func (h *RecordHandler) SaveRecord(w http.ResponseWriter, r *http.Request) {
	var payload saveRecordPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if payload.TenantID == "" || payload.PersonID == "" || payload.CompetencyID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id, person_id and competency_id are required"))
		return
	}

	// 角色检查通过外部身份服务（viewer 只读）
	if h.identity != nil {
		ident, err := h.identity.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, Fail("authentication required"))
			return
		}
		if ident.TenantID != payload.TenantID || !domain.CanEditRecords(ident.Role) {
			writeJSON(w, http.StatusForbidden, Forbidden("insufficient role for record edits"))
			return
		}
	}

	resp, err := h.directory.SaveRecord(r.Context(), service.SaveRecordRequest{
		TenantID:        payload.TenantID,
		PersonID:        payload.PersonID,
		CompetencyID:    payload.CompetencyID,
		IssuedDate:      payload.IssuedDate,
		ExpiryDate:      payload.ExpiryDate,
		IssuingBody:     payload.IssuingBody,
		CertificationID: payload.CertificationID,
		Value:           payload.Value,
		Notes:           payload.Notes,
		WitnessChecked:  payload.WitnessChecked,
		WitnessedBy:     payload.WitnessedBy,
		WitnessedAt:     payload.WitnessedAt,
		WitnessNotes:    payload.WitnessNotes,
	})
	if err != nil {
		// 保存失败是可恢复错误：把消息透给调用方，本地状态不受影响
		h.logger.Warn("save record failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to save record"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
