// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/kpiboard/internal/middleware"
	"github.com/hitoshi/kpiboard/internal/model"
	"github.com/hitoshi/kpiboard/internal/report"
)

// ReportServiceInterface はレポートサービスのインターフェース。
type ReportServiceInterface interface {
	Snapshot(ctx context.Context, caller *model.User, monthToken string, departmentID *int64, now time.Time) (*report.Snapshot, error)
}

// ReportHandler はKPIヘルスレポートのHTTPハンドラー。
type ReportHandler struct {
	service ReportServiceInterface
	timeout time.Duration
}

// NewReportHandler はReportHandlerを生成する。
// timeoutはスナップショット構築全体（再計算を含む）に適用される。
func NewReportHandler(service ReportServiceInterface, timeout time.Duration) *ReportHandler {
	return &ReportHandler{service: service, timeout: timeout}
}

// GetKPIHealth はKPIヘルススナップショットを返す。
// GET /api/kpi-health/snapshot?month=YYYY-MM&department_id=N
func (h *ReportHandler) GetKPIHealth(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	monthToken := r.URL.Query().Get("month")

	var departmentID *int64
	if raw := r.URL.Query().Get("department_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
				"department_id": "部門IDは整数で指定してください。",
			}))
			return
		}
		departmentID = &id
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snapshot, err := h.service.Snapshot(ctx, caller, monthToken, departmentID, time.Now())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}
