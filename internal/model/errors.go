// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// バリデーションエラーの場合はFieldsにフィールド単位の詳細を持つ。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: auth, validation, report, task, system
	Action   string            // ユーザー向け対処方法
	Fields   map[string]string // フィールド単位のバリデーション詳細（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidMonthFormat = "INVALID_MONTH_FORMAT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeTaskNotFound       = "TASK_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDepartmentNotFound = "DEPARTMENT_NOT_FOUND"
	ErrCodeKPINotFound        = "KPI_NOT_FOUND"
	ErrCodeNoRecipients       = "NO_RECIPIENTS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
)

// NewInvalidMonthFormatError は月トークンの形式エラーを生成する。
func NewInvalidMonthFormatError(token string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMonthFormat,
		Message:  fmt.Sprintf("無効な月指定です: %s", token),
		Category: "validation",
		Action:   "月はYYYY-MM形式（例: 2025-03）で指定してください。",
	}
}

// NewValidationError はフィールド単位の詳細付きバリデーションエラーを生成する。
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "リクエストの内容に誤りがあります。",
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
		Fields:   fields,
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError(taskID int64) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %d", taskID),
		Category: "task",
		Action:   "タスクIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(userID int64) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %d", userID),
		Category: "validation",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewDepartmentNotFoundError は部門未検出エラーを生成する。
func NewDepartmentNotFoundError(departmentID int64) *APIError {
	return &APIError{
		Code:     ErrCodeDepartmentNotFound,
		Message:  fmt.Sprintf("指定された部門が見つかりません: %d", departmentID),
		Category: "validation",
		Action:   "部門IDを確認してください。",
	}
}

// NewKPINotFoundError はKPI未検出エラーを生成する。
func NewKPINotFoundError(kpiID int64) *APIError {
	return &APIError{
		Code:     ErrCodeKPINotFound,
		Message:  fmt.Sprintf("指定されたKPIが見つかりません: %d", kpiID),
		Category: "report",
		Action:   "KPI IDを確認してください。",
	}
}

// NewNoRecipientsError は担当者不在によるピン送信不可エラーを生成する。
// 致命的ではなく、ユーザーが対処可能なエラーとして422で返される。
func NewNoRecipientsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoRecipients,
		Message:  "このタスクには担当者がいないため、ピンを送信できません。",
		Category: "task",
		Action:   "先にタスクに担当者を割り当ててください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "X-User-IDヘッダーを付与してください。",
	}
}
