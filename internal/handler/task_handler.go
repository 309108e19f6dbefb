// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kpiboard/internal/middleware"
	"github.com/hitoshi/kpiboard/internal/model"
)

// TaskServiceInterface はタスクサービスのインターフェース。
type TaskServiceInterface interface {
	Get(ctx context.Context, taskID int64) (*model.Task, error)
	List(ctx context.Context) ([]model.TaskWithRefs, error)
	Create(ctx context.Context, t *model.Task) error
	Reassign(ctx context.Context, taskID int64, newOwnerIDs []int64) (*model.Task, map[int64]string, error)
	Ping(ctx context.Context, taskID int64, sender *model.User, message string) error
}

// TaskHandler はタスク関連のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// createTaskRequest はタスク作成リクエスト。
type createTaskRequest struct {
	Title      string     `json:"title" validate:"required,max=255"`
	Detail     string     `json:"detail"`
	Priority   string     `json:"priority" validate:"max=50"`
	UserID     *int64     `json:"user_id"`
	DeadlineAt *time.Time `json:"deadline_at"`
}

// reassignRequest は担当者一括差し替えリクエスト。
type reassignRequest struct {
	UserIDs []int64 `json:"user_ids" validate:"required,min=1,dive,gt=0"`
}

// pingRequest はタスクピンリクエスト。
// メッセージ長の上限はサービス層がルーン単位で検証する。
type pingRequest struct {
	Message string `json:"message" validate:"required"`
}

// taskResponse はタスクのJSON表現。
type taskResponse struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Detail     string     `json:"detail"`
	Priority   string     `json:"priority"`
	Status     string     `json:"status"`
	UserID     *int64     `json:"user_id"`
	AssignedBy *int64     `json:"assigned_by"`
	DeadlineAt *time.Time `json:"deadline_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// taskWithRefsResponse は参照先の表示名付きタスクのJSON表現。
type taskWithRefsResponse struct {
	taskResponse
	AssignedByName *string  `json:"assigned_by_name"`
	OwnerNames     []string `json:"owner_names"`
}

// reassignResponse は担当者差し替えの結果。
type reassignResponse struct {
	Success   bool             `json:"success"`
	TaskID    int64            `json:"task_id"`
	NewOwners map[int64]string `json:"new_owners"`
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:         t.ID,
		Title:      t.Title,
		Detail:     t.Detail,
		Priority:   t.Priority,
		Status:     t.Status,
		UserID:     t.UserID,
		AssignedBy: t.AssignedBy,
		DeadlineAt: t.DeadlineAt,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// ListTasks はタスク一覧を返す。
// GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]taskWithRefsResponse, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		owners := t.OwnerNames
		if owners == nil {
			owners = []string{}
		}
		responses = append(responses, taskWithRefsResponse{
			taskResponse:   toTaskResponse(&t.Task),
			AssignedByName: t.AssignedByName,
			OwnerNames:     owners,
		})
	}

	writeJSON(w, http.StatusOK, responses)
}

// GetTask はタスクを1件返す。
// GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), taskID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// CreateTask はタスクを作成する。作成者は割り当て元として記録される。
// POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if err := validate.Struct(req); err != nil {
		apiErr := validationErrorFrom(err)
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	task := &model.Task{
		Title:      req.Title,
		Detail:     req.Detail,
		Priority:   req.Priority,
		UserID:     req.UserID,
		AssignedBy: &caller.ID,
		DeadlineAt: req.DeadlineAt,
	}
	if err := h.service.Create(r.Context(), task); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

// ReassignOwners は担当者集合を一括で差し替える。
// POST /api/tasks/{id}/reassign
func (h *TaskHandler) ReassignOwners(w http.ResponseWriter, r *http.Request) {
	taskID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req reassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, validationErrorFrom(err))
		return
	}

	task, newOwners, err := h.service.Reassign(r.Context(), taskID, req.UserIDs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reassignResponse{
		Success:   true,
		TaskID:    task.ID,
		NewOwners: newOwners,
	})
}

// PingTask はタスクの全担当者に確認メッセージを送る。
// POST /api/tasks/{id}/ping
func (h *TaskHandler) PingTask(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	taskID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req pingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.Ping(r.Context(), taskID, caller, req.Message); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// parseIDParam はURLパラメータのIDを解析する。失敗時は400を書き出しfalseを返す。
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
			name: "IDは正の整数で指定してください。",
		}))
		return 0, false
	}
	return id, true
}
