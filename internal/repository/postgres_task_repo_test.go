package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/kpiboard/internal/model"
)

// PostgresTaskRepoはTaskRepositoryインターフェースを満たすことを検証
func TestPostgresTaskRepo_ImplementsInterface(t *testing.T) {
	var _ TaskRepository = (*PostgresTaskRepo)(nil)
}

// NewPostgresTaskRepoが正しく初期化されることを検証
func TestNewPostgresTaskRepo_Initializes(t *testing.T) {
	repo := NewPostgresTaskRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// TaskOwnerモデルが初期状態（未完了・進捗0）で構築できることを検証
func TestPostgresTaskRepo_TaskOwnerModel_InitialState(t *testing.T) {
	owner := model.TaskOwner{
		TaskID:   1,
		UserID:   2,
		Status:   model.TaskStatusNotCompleted,
		Progress: 0,
	}

	if owner.Status != "not completed" {
		t.Errorf("owner.Status = %q, want %q", owner.Status, "not completed")
	}
	if owner.Progress != 0 {
		t.Errorf("owner.Progress = %d, want 0", owner.Progress)
	}
}

// TaskWithRefsが参照名を保持できることを検証
func TestPostgresTaskRepo_TaskWithRefs_Fields(t *testing.T) {
	deadline := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assignedBy := "佐藤 花子"
	task := model.TaskWithRefs{
		Task: model.Task{
			ID:         7,
			Title:      "月次レポート作成",
			Status:     model.TaskStatusNotCompleted,
			DeadlineAt: &deadline,
		},
		AssignedByName: &assignedBy,
		OwnerNames:     []string{"山田 太郎", "鈴木 一郎"},
	}

	if task.AssignedByName == nil || *task.AssignedByName != "佐藤 花子" {
		t.Errorf("task.AssignedByName = %v, want 佐藤 花子", task.AssignedByName)
	}
	if len(task.OwnerNames) != 2 {
		t.Errorf("len(task.OwnerNames) = %d, want 2", len(task.OwnerNames))
	}
}
