package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterDirectoryRoutes 人员目录 + 统计
func (r *Router) RegisterDirectoryRoutes(h *DirectoryHandler) {
	r.Handle("/matrix/api/v1/personnel", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListPersonnel(w, req)
	})

	// personnel/{id}
	r.Handle("/matrix/api/v1/personnel/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(req.URL.Path, "/matrix/api/v1/personnel/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.GetPerson(w, req, id)
	})

	r.Handle("/matrix/api/v1/stats", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.PopulationStats(w, req)
	})
}

// RegisterRecordRoutes 能力记录保存/新建
func (r *Router) RegisterRecordRoutes(h *RecordHandler) {
	r.Handle("/matrix/api/v1/records", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.SaveRecord(w, req)
	})
}

// RegisterMatrixRoutes 矩阵 + 定义列表
func (r *Router) RegisterMatrixRoutes(h *MatrixHandler) {
	r.Handle("/matrix/api/v1/matrix", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetMatrix(w, req)
	})

	r.Handle("/matrix/api/v1/competencies", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListDefinitions(w, req)
	})
}

// RegisterExportRoutes 导出
func (r *Router) RegisterExportRoutes(h *ExportHandler) {
	r.Handle("/matrix/api/v1/export/directory.csv", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ExportDirectoryCSV(w, req)
	})

	r.Handle("/matrix/api/v1/export/matrix.xlsx", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ExportMatrixXLSX(w, req)
	})
}
