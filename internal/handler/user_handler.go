// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/kpiboard/internal/model"
)

// UserServiceInterface はユーザーサービスのインターフェース。
type UserServiceInterface interface {
	Get(ctx context.Context, userID int64) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, userID int64) error
}

// UserHandler はユーザー関連のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// userRequest はユーザー作成・更新リクエスト。
type userRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,email"`
	Role         string `json:"role" validate:"required"`
	DepartmentID *int64 `json:"department_id"`
}

// userResponse はユーザーのJSON表現。
type userResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	DepartmentID *int64    `json:"department_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		DepartmentID: u.DepartmentID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ListUsers はユーザー一覧を返す。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]userResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, responses)
}

// GetUser はユーザーを1件返す。
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// CreateUser はユーザーを作成する。
// マネージャーの場合は対応する部門も同時に用意される。
// POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUserRequest(w, r)
	if !ok {
		return
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         model.Role(req.Role),
		DepartmentID: req.DepartmentID,
	}
	if err := h.service.Create(r.Context(), user); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// UpdateUser はユーザーを更新する。
// PUT /api/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := decodeUserRequest(w, r)
	if !ok {
		return
	}

	user := &model.User{
		ID:           userID,
		Name:         req.Name,
		Email:        req.Email,
		Role:         model.Role(req.Role),
		DepartmentID: req.DepartmentID,
	}
	if err := h.service.Update(r.Context(), user); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// DeleteUser はユーザーを削除する。
// DELETE /api/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func decodeUserRequest(w http.ResponseWriter, r *http.Request) (*userRequest, bool) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return nil, false
	}
	if err := validate.Struct(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, validationErrorFrom(err))
		return nil, false
	}
	return &req, true
}
