// Package model はドメインモデルを定義する。
package model

import "time"

// タスクのステータストークン。
// statusカラムは自由テキストだが、システムが書き込む値はこの2つに限る。
const (
	// TaskStatusNotCompleted は未完了状態。
	TaskStatusNotCompleted = "not completed"
	// TaskStatusCompleted は完了状態。
	TaskStatusCompleted = "completed"
)

// Task はタスクを表す。
// UserIDは直接のオーナー（任意）、AssignedByは割り当てたユーザー（任意）。
// 担当者の集合はTaskOwnerで別途管理される。
type Task struct {
	ID         int64
	Title      string
	Detail     string
	Priority   string
	Status     string
	UserID     *int64
	AssignedBy *int64
	DeadlineAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TaskOwner はタスクと担当ユーザーの多対多関係を表す。
// ペアごとに独立したステータスと進捗を持つ。
type TaskOwner struct {
	TaskID   int64
	UserID   int64
	Status   string
	Progress int
}

// TaskWithRefs はタスクに参照先の表示名を結合した読み取り専用モデル。
// ブロックタスク一覧などレポート系クエリで使用する。
type TaskWithRefs struct {
	Task
	AssignedByName *string
	OwnerNames     []string
}

// OwnerRef はタスク担当者の最小参照（通知宛先の解決に使用）。
type OwnerRef struct {
	UserID int64
	Name   string
	Email  string
}
