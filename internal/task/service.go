// Package task はタスクの参照・作成・再割り当て・ピン送信を提供する。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/kpiboard/internal/model"
	"github.com/hitoshi/kpiboard/internal/repository"
)

// pingMessageMaxLength はピンメッセージの最大文字数。
const pingMessageMaxLength = 2000

// Notifier は担当者への通知を積み上げるインターフェース。
// 戻り値は保存できた件数。個別の失敗で全体は失敗しない。
type Notifier interface {
	Dispatch(ctx context.Context, taskID int64, senderID *int64, recipients []model.OwnerRef, message string) int
}

// Service はタスク操作のサービス。
type Service struct {
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	notifier  Notifier
	logger    *slog.Logger
	sanitizer *bluemonday.Policy
}

// NewService はServiceを生成する。
func NewService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		taskRepo: taskRepo,
		userRepo: userRepo,
		notifier: notifier,
		logger:   logger,
		// タスク詳細は書式付きテキストを許容する
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Get は指定IDのタスクを返す。
func (s *Service) Get(ctx context.Context, taskID int64) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return task, nil
}

// List は全タスクを参照名付きで返す。
func (s *Service) List(ctx context.Context) ([]model.TaskWithRefs, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Create はタスクを作成する。詳細はサニタイズされ、
// ステータス未指定の場合は未完了で初期化する。
func (s *Service) Create(ctx context.Context, t *model.Task) error {
	if t.Title == "" {
		return model.NewValidationError(map[string]string{
			"title": "タイトルは必須です。",
		})
	}

	t.Detail = s.sanitizer.Sanitize(t.Detail)
	if t.Status == "" {
		t.Status = model.TaskStatusNotCompleted
	}

	if err := s.taskRepo.Create(ctx, t); err != nil {
		return fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}

	s.logger.Info("task created", slog.Int64("task_id", t.ID))
	return nil
}

// Reassign はタスクの担当者集合を新しい集合で全置換する。
// 全IDの存在を検証してから置換し、1件でも無効なら何も変更しない。
// 置換後の全担当行とタスク自身のステータスは未完了に初期化される。
// 戻り値の2つ目は新担当者のID→表示名マップ。
func (s *Service) Reassign(ctx context.Context, taskID int64, newOwnerIDs []int64) (*model.Task, map[int64]string, error) {
	if len(newOwnerIDs) == 0 {
		return nil, nil, model.NewValidationError(map[string]string{
			"user_ids": "担当者を1人以上指定してください。",
		})
	}

	ownerIDs := dedupeIDs(newOwnerIDs)

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if task == nil {
		return nil, nil, model.NewTaskNotFoundError(taskID)
	}

	names, err := s.userRepo.NamesByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーの検証に失敗しました: %w", err)
	}
	for _, id := range ownerIDs {
		if _, ok := names[id]; !ok {
			return nil, nil, model.NewUserNotFoundError(id)
		}
	}

	if err := s.taskRepo.ReplaceOwners(ctx, taskID, ownerIDs, model.TaskStatusNotCompleted); err != nil {
		return nil, nil, fmt.Errorf("担当者の置換に失敗しました: %w", err)
	}

	task.Status = model.TaskStatusNotCompleted

	s.logger.Info("task reassigned",
		slog.Int64("task_id", taskID),
		slog.Int("new_owner_count", len(ownerIDs)))

	return task, names, nil
}

// Ping はタスクの現担当者全員に通知を積む。
// 担当者が1人もいない場合はNoRecipientsエラーを返し、通知は一切積まれない。
func (s *Service) Ping(ctx context.Context, taskID int64, sender *model.User, message string) error {
	length := utf8.RuneCountInString(message)
	if length == 0 || length > pingMessageMaxLength {
		return model.NewValidationError(map[string]string{
			"message": fmt.Sprintf("メッセージは1〜%d文字で入力してください。", pingMessageMaxLength),
		})
	}

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if task == nil {
		return model.NewTaskNotFoundError(taskID)
	}

	owners, err := s.taskRepo.ListOwners(ctx, taskID)
	if err != nil {
		return fmt.Errorf("担当者の取得に失敗しました: %w", err)
	}
	if len(owners) == 0 {
		return model.NewNoRecipientsError()
	}

	var senderID *int64
	if sender != nil {
		senderID = &sender.ID
	}
	s.notifier.Dispatch(ctx, taskID, senderID, owners, message)

	return nil
}

// dedupeIDs は順序を保ったままIDの重複を除去する。
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
