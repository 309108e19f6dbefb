// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/kpiboard/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// List は全ユーザーを作成順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// ListIDsByDepartment は指定部門に所属するユーザーIDを返す。
	ListIDsByDepartment(ctx context.Context, departmentID int64) ([]int64, error)

	// NamesByIDs は指定IDのユーザー表示名をID→名前のマップで返す。
	// 存在しないIDはマップに含まれない。
	NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error)

	// Create はユーザーを作成し、採番されたIDをuに書き戻す。
	Create(ctx context.Context, u *model.User) error

	// Update はユーザー情報を更新する。対象が存在しない場合はエラーを返す。
	Update(ctx context.Context, u *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	DeleteByID(ctx context.Context, id int64) error
}

// DepartmentRepository は部門データの永続化インターフェース。
type DepartmentRepository interface {
	// FindByID は指定IDの部門を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Department, error)

	// List は全部門を作成順で返す。
	List(ctx context.Context) ([]*model.Department, error)

	// EnsureForManager はマネージャーの部門を冪等に保証する。
	// 部門が無ければマネージャー名で作成し、名前がずれていれば追従させ、
	// マネージャー自身のdepartment_idを部門に揃える。全手順を同一トランザクションで行う。
	EnsureForManager(ctx context.Context, manager *model.User) (*model.Department, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Task, error)

	// List は全タスクを参照名付きで締切昇順（締切なしは末尾）に返す。
	List(ctx context.Context) ([]model.TaskWithRefs, error)

	// Create はタスクを作成し、採番されたIDをtに書き戻す。
	Create(ctx context.Context, t *model.Task) error

	// ListOwners はタスクの現在の担当者を返す。
	ListOwners(ctx context.Context, taskID int64) ([]model.OwnerRef, error)

	// ReplaceOwners はタスクの担当者集合を全置換する。
	// 既存の担当行を全削除し、新しい集合を初期状態（status/progress 0）で挿入し、
	// タスク自身のstatusも合わせて更新する。全手順を同一トランザクションで行い、
	// 途中で失敗した場合は変更を一切残さない。
	ReplaceOwners(ctx context.Context, taskID int64, userIDs []int64, status string) error

	// ListBlocked は期限窓内の未完了タスクを参照名付きで締切昇順に返す。
	// deadline_atがNULLのタスクは対象外。visが制限付きの場合、
	// タスクの直接オーナーまたは担当者のいずれかが集合に含まれるものに絞る。
	ListBlocked(ctx context.Context, windowStart, windowEnd time.Time, vis model.Visibility, limit int) ([]model.TaskWithRefs, error)

	// ListOwnerProgressInWindow は指定ユーザーの担当行のうち、
	// タスク締切が[start, end]に収まるものを返す。KPI再計算で使用する。
	ListOwnerProgressInWindow(ctx context.Context, userID int64, start, end time.Time) ([]model.TaskOwner, error)
}

// KPIRepository はKPIデータの永続化インターフェース。
type KPIRepository interface {
	// FindByID は指定IDのKPIを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.KPI, error)

	// ListForMonth は開始日・終了日が指定の月境界に一致するKPIを
	// オーナー名付きで返す。visが制限付きの場合はオーナーが集合に含まれるものに絞る。
	ListForMonth(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error)

	// Create はKPIを作成し、採番されたIDをkに書き戻す。
	Create(ctx context.Context, k *model.KPI) error

	// UpdatePercent は再計算済みの完了率を永続化する。
	UpdatePercent(ctx context.Context, id int64, percent float64) error
}

// NotificationRepository は通知アウトボックスの永続化インターフェース。
type NotificationRepository interface {
	// Create は通知レコードをアウトボックスに追加する。
	Create(ctx context.Context, n *model.Notification) error

	// CountByTask は指定タスクの通知件数を返す。
	CountByTask(ctx context.Context, taskID int64) (int, error)
}
