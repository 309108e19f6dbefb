// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/kpiboard/internal/model"
)

// DepartmentServiceInterface は部門サービスのインターフェース。
type DepartmentServiceInterface interface {
	Get(ctx context.Context, departmentID int64) (*model.Department, error)
	List(ctx context.Context) ([]*model.Department, error)
}

// DepartmentHandler は部門関連のHTTPハンドラー。
type DepartmentHandler struct {
	service DepartmentServiceInterface
}

// NewDepartmentHandler はDepartmentHandlerを生成する。
func NewDepartmentHandler(service DepartmentServiceInterface) *DepartmentHandler {
	return &DepartmentHandler{service: service}
}

// departmentResponse は部門のJSON表現。
type departmentResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ManagerID int64     `json:"manager_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDepartmentResponse(d *model.Department) departmentResponse {
	return departmentResponse{
		ID:        d.ID,
		Name:      d.Name,
		ManagerID: d.ManagerID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// ListDepartments は部門一覧を返す。
// GET /api/departments
func (h *DepartmentHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]departmentResponse, 0, len(departments))
	for _, d := range departments {
		responses = append(responses, toDepartmentResponse(d))
	}
	writeJSON(w, http.StatusOK, responses)
}

// GetDepartment は部門を1件返す。
// GET /api/departments/{id}
func (h *DepartmentHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	department, err := h.service.Get(r.Context(), departmentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDepartmentResponse(department))
}
