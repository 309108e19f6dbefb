// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/kpiboard/internal/model"
)

// dateLayout はKPI期間のJSON表現に使う日付フォーマット。
const dateLayout = "2006-01-02"

// KPIServiceInterface はKPIサービスのインターフェース。
type KPIServiceInterface interface {
	Get(ctx context.Context, kpiID int64) (*model.KPI, error)
	ListForMonth(ctx context.Context, monthToken string, now time.Time) ([]model.KPIWithOwner, error)
	Create(ctx context.Context, k *model.KPI) error
}

// KPIHandler はKPIレコード管理のHTTPハンドラー。
// 月次レポートはReportHandlerが別途提供する。
type KPIHandler struct {
	service KPIServiceInterface
}

// NewKPIHandler はKPIHandlerを生成する。
func NewKPIHandler(service KPIServiceInterface) *KPIHandler {
	return &KPIHandler{service: service}
}

// createKPIRequest はKPI作成リクエスト。期間は日付文字列で受け取る。
type createKPIRequest struct {
	UserID    int64   `json:"user_id" validate:"required,gt=0"`
	Name      string  `json:"name" validate:"required,max=255"`
	Note      string  `json:"note"`
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   string  `json:"end_date" validate:"required"`
	Percent   float64 `json:"percent" validate:"gte=0,lte=100"`
}

// kpiResponse はKPIのJSON表現。
type kpiResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Note      string    `json:"note"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Percent   float64   `json:"percent"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toKPIResponse(k *model.KPI) kpiResponse {
	return kpiResponse{
		ID:        k.ID,
		UserID:    k.UserID,
		Name:      k.Name,
		Note:      k.Note,
		StartDate: k.StartDate.Format(dateLayout),
		EndDate:   k.EndDate.Format(dateLayout),
		Percent:   k.Percent,
		CreatedAt: k.CreatedAt,
		UpdatedAt: k.UpdatedAt,
	}
}

// kpiWithOwnerResponse はオーナー名付きKPIのJSON表現。
// オーナーが削除済みの場合owner_nameはnull。
type kpiWithOwnerResponse struct {
	kpiResponse
	OwnerName *string `json:"owner_name"`
}

// ListKPIs は指定月のKPI一覧を返す。monthが空の場合は当月。
// GET /api/kpis?month=YYYY-MM
func (h *KPIHandler) ListKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.service.ListForMonth(r.Context(), r.URL.Query().Get("month"), time.Now())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]kpiWithOwnerResponse, 0, len(kpis))
	for i := range kpis {
		responses = append(responses, kpiWithOwnerResponse{
			kpiResponse: toKPIResponse(&kpis[i].KPI),
			OwnerName:   kpis[i].OwnerName,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

// GetKPI はKPIを1件返す。
// GET /api/kpis/{id}
func (h *KPIHandler) GetKPI(w http.ResponseWriter, r *http.Request) {
	kpiID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	kpi, err := h.service.Get(r.Context(), kpiID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toKPIResponse(kpi))
}

// CreateKPI はKPIを作成する。
// POST /api/kpis
func (h *KPIHandler) CreateKPI(w http.ResponseWriter, r *http.Request) {
	var req createKPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, validationErrorFrom(err))
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
			"start_date": "開始日はYYYY-MM-DD形式で指定してください。",
		}))
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
			"end_date": "終了日はYYYY-MM-DD形式で指定してください。",
		}))
		return
	}

	kpi := &model.KPI{
		UserID:    req.UserID,
		Name:      req.Name,
		Note:      req.Note,
		StartDate: startDate,
		EndDate:   endDate,
		Percent:   req.Percent,
	}
	if err := h.service.Create(r.Context(), kpi); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toKPIResponse(kpi))
}
