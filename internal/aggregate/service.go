// Package aggregate はKPI達成率の再計算を提供する。
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/hitoshi/kpiboard/internal/model"
	"github.com/hitoshi/kpiboard/internal/report"
	"github.com/hitoshi/kpiboard/internal/repository"
)

// Service はKPIオーナーのタスク進捗から達成率を計算するサービス。
type Service struct {
	taskRepo repository.TaskRepository
	kpiRepo  repository.KPIRepository
	logger   *slog.Logger
}

// NewService はServiceを生成する。
func NewService(taskRepo repository.TaskRepository, kpiRepo repository.KPIRepository, logger *slog.Logger) *Service {
	return &Service{
		taskRepo: taskRepo,
		kpiRepo:  kpiRepo,
		logger:   logger,
	}
}

// Recalculate はKPI期間内のオーナー担当タスクの進捗平均から達成率を求め、
// kpi.Percentを更新して永続化する。完了済みの担当行は進捗100として扱う。
// 期間内に担当タスクが1件もない場合は保存値を変更しない。
// 同一KPIの並行再計算は後勝ちで収束する（タスク状態の純関数のため）。
func (s *Service) Recalculate(ctx context.Context, kpi *model.KPI) error {
	owners, err := s.taskRepo.ListOwnerProgressInWindow(ctx, kpi.UserID, kpi.StartDate, kpi.EndDate)
	if err != nil {
		return fmt.Errorf("担当進捗の取得に失敗しました: %w", err)
	}

	if len(owners) == 0 {
		s.logger.Debug("no owned tasks in KPI window, keeping stored percent",
			slog.Int64("kpi_id", kpi.ID),
			slog.Int64("user_id", kpi.UserID))
		return nil
	}

	var sum float64
	for _, o := range owners {
		if o.Status == model.TaskStatusCompleted {
			sum += 100
			continue
		}
		sum += float64(o.Progress)
	}

	percent := math.Round(sum/float64(len(owners))*10) / 10
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	if err := s.kpiRepo.UpdatePercent(ctx, kpi.ID, percent); err != nil {
		return fmt.Errorf("達成率の保存に失敗しました: %w", err)
	}

	kpi.Percent = percent
	return nil
}

// compile-time interface check
var _ report.Aggregator = (*Service)(nil)
