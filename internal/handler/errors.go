// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/kpiboard/internal/model"
)

// リクエストボディの検証に使う共有バリデーター。
var validate = validator.New()

// apiErrorResponse は統一エラーフォーマットのJSON表現。
type apiErrorResponse struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Category string            `json:"category"`
	Action   string            `json:"action"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// writeJSON はレスポンスをJSONとして書き出す。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("レスポンスのエンコードに失敗しました", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse はAPIErrorを統一フォーマットで書き出す。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Fields:   apiErr.Fields,
	})
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIError以外のエラーは詳細をログに残し500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("サービスエラー", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "サーバー内部でエラーが発生しました。",
		Category: "system",
		Action:   "しばらく時間をおいて再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はエラーコードをHTTPステータスコードに対応づける。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidMonthFormat, model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeTaskNotFound, model.ErrCodeUserNotFound,
		model.ErrCodeDepartmentNotFound, model.ErrCodeKPINotFound:
		return http.StatusNotFound
	case model.ErrCodeNoRecipients:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeInvalidRequestBody はボディのデコード失敗を400で返す。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
		"body": "リクエストボディを解析できません。",
	}))
}

// validationErrorFrom はvalidatorの検証結果をAPIErrorに変換する。
func validationErrorFrom(err error) *model.APIError {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = "値が不正です: " + fe.Tag()
		}
	}
	if len(fields) == 0 {
		fields["body"] = "リクエストの内容に誤りがあります。"
	}
	return model.NewValidationError(fields)
}
