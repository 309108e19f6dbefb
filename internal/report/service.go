package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/kpiboard/internal/metrics"
	"github.com/hitoshi/kpiboard/internal/model"
	"github.com/hitoshi/kpiboard/internal/repository"
	"github.com/hitoshi/kpiboard/internal/visibility"
)

const (
	// blockedWindowPaddingDays はブロックタスク検索窓の前後パディング日数。
	blockedWindowPaddingDays = 7

	// blockedTaskLimit はブロックタスク一覧の最大件数。
	blockedTaskLimit = 10
)

// Aggregator はKPI達成率の再計算インターフェース。
// スナップショット読み込みのたびに各KPIへ適用される。
type Aggregator interface {
	// Recalculate は配下のタスク進捗からkpi.Percentを再計算して永続化する。
	Recalculate(ctx context.Context, kpi *model.KPI) error
}

// Service はKPIヘルススナップショットを組み立てるサービス。
type Service struct {
	resolver   *visibility.Resolver
	kpiRepo    repository.KPIRepository
	taskRepo   repository.TaskRepository
	aggregator Aggregator
	metrics    metrics.MetricsCollector
	logger     *slog.Logger
}

// NewService はServiceを生成する。
func NewService(
	resolver *visibility.Resolver,
	kpiRepo repository.KPIRepository,
	taskRepo repository.TaskRepository,
	aggregator Aggregator,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	return &Service{
		resolver:   resolver,
		kpiRepo:    kpiRepo,
		taskRepo:   taskRepo,
		aggregator: aggregator,
		metrics:    collector,
		logger:     logger,
	}
}

// Snapshot は対象月のKPIヘルスレポートを構築する。
// monthTokenが空の場合はnowの属する月を対象とする。
// 各KPIの達成率は読み込みのたびに再計算する。再計算に失敗したKPIは
// 保存済みの値のまま集計に含め、警告ログを残す。
func (s *Service) Snapshot(ctx context.Context, caller *model.User, monthToken string, departmentID *int64, now time.Time) (*Snapshot, error) {
	started := time.Now()

	if monthToken == "" {
		monthToken = CurrentMonthToken(now)
	}

	start, end, err := MonthRange(monthToken)
	if err != nil {
		return nil, err
	}

	vis, err := s.resolver.Resolve(ctx, caller, departmentID)
	if err != nil {
		return nil, fmt.Errorf("可視範囲の解決に失敗しました: %w", err)
	}

	kpis, err := s.kpiRepo.ListForMonth(ctx, start, end, vis)
	if err != nil {
		return nil, fmt.Errorf("対象月のKPI取得に失敗しました: %w", err)
	}

	for i := range kpis {
		if rerr := s.aggregator.Recalculate(ctx, &kpis[i].KPI); rerr != nil {
			s.metrics.RecordRecalcFailure()
			s.logger.Warn("KPI recalculation failed, using stored percent",
				slog.Int64("kpi_id", kpis[i].ID),
				slog.String("error", rerr.Error()))
			continue
		}
		s.metrics.RecordRecalcSuccess()
	}

	windowStart := start.AddDate(0, 0, -blockedWindowPaddingDays)
	windowEnd := end.AddDate(0, 0, blockedWindowPaddingDays)
	blocked, err := s.taskRepo.ListBlocked(ctx, windowStart, windowEnd, vis, blockedTaskLimit)
	if err != nil {
		return nil, fmt.Errorf("ブロックタスクの取得に失敗しました: %w", err)
	}

	snapshot := &Snapshot{
		Month:        monthToken,
		Summary:      BuildSummary(kpis, start),
		Distribution: BuildDistribution(kpis),
		RiskKPIs:     BuildRiskList(kpis, now),
		BlockedTasks: BuildBlockedTasks(blocked, now),
	}

	s.metrics.RecordSnapshot(time.Since(started))
	s.logger.Info("snapshot built",
		slog.String("month", monthToken),
		slog.Int("kpi_count", len(kpis)),
		slog.Int("blocked_count", len(snapshot.BlockedTasks)))

	return snapshot, nil
}
