// Package notify はタスク通知のアウトボックス保存を提供する。
// 配送そのものは外部コラボレーターの責務で、本パッケージは
// 宛先ごとの通知レコードを積むところまでを担う。
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/kpiboard/internal/metrics"
	"github.com/hitoshi/kpiboard/internal/model"
	"github.com/hitoshi/kpiboard/internal/repository"
)

// Service は通知アウトボックスへの書き込みサービス。
type Service struct {
	notifRepo repository.NotificationRepository
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	sanitizer *bluemonday.Policy
}

// NewService はServiceを生成する。
func NewService(notifRepo repository.NotificationRepository, collector metrics.MetricsCollector, logger *slog.Logger) *Service {
	return &Service{
		notifRepo: notifRepo,
		metrics:   collector,
		logger:    logger,
		// メッセージは平文として扱うため全タグを除去する
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Dispatch は各宛先に1件ずつ通知レコードを保存し、保存できた件数を返す。
// 個別の保存失敗は警告ログに残すだけで処理を止めない（ファイアアンドフォーゲット）。
func (s *Service) Dispatch(ctx context.Context, taskID int64, senderID *int64, recipients []model.OwnerRef, message string) int {
	clean := s.sanitizer.Sanitize(message)

	stored := 0
	for _, rcpt := range recipients {
		n := &model.Notification{
			ID:          uuid.NewString(),
			TaskID:      taskID,
			RecipientID: rcpt.UserID,
			SenderID:    senderID,
			Message:     clean,
		}
		if err := s.notifRepo.Create(ctx, n); err != nil {
			s.logger.Warn("failed to store notification",
				slog.Int64("task_id", taskID),
				slog.Int64("recipient_id", rcpt.UserID),
				slog.String("error", err.Error()))
			continue
		}
		s.metrics.RecordNotificationStored()
		stored++
	}

	s.logger.Info("task ping dispatched",
		slog.Int64("task_id", taskID),
		slog.Int("recipients", len(recipients)),
		slog.Int("stored", stored))

	return stored
}
