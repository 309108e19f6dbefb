// Package kpi はKPIレコードの作成と参照を提供する。
package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/kpiboard/internal/model"
	"github.com/hitoshi/kpiboard/internal/report"
	"github.com/hitoshi/kpiboard/internal/repository"
)

// Service はKPI操作のサービス。
// 達成率の再計算はaggregateパッケージの責務で、ここでは扱わない。
type Service struct {
	kpiRepo   repository.KPIRepository
	userRepo  repository.UserRepository
	logger    *slog.Logger
	sanitizer *bluemonday.Policy
}

// NewService はServiceを生成する。
func NewService(kpiRepo repository.KPIRepository, userRepo repository.UserRepository, logger *slog.Logger) *Service {
	return &Service{
		kpiRepo:  kpiRepo,
		userRepo: userRepo,
		logger:   logger,
		// メモは平文として扱う
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Get は指定IDのKPIを返す。
func (s *Service) Get(ctx context.Context, kpiID int64) (*model.KPI, error) {
	kpi, err := s.kpiRepo.FindByID(ctx, kpiID)
	if err != nil {
		return nil, fmt.Errorf("KPIの取得に失敗しました: %w", err)
	}
	if kpi == nil {
		return nil, model.NewKPINotFoundError(kpiID)
	}
	return kpi, nil
}

// ListForMonth は指定月のKPIをオーナー名付きで返す。
// monthTokenが空の場合はnowの属する月を対象とする。
// 管理用の一覧のため可視性の制限はかけない。
func (s *Service) ListForMonth(ctx context.Context, monthToken string, now time.Time) ([]model.KPIWithOwner, error) {
	if monthToken == "" {
		monthToken = report.CurrentMonthToken(now)
	}

	start, end, err := report.MonthRange(monthToken)
	if err != nil {
		return nil, err
	}

	kpis, err := s.kpiRepo.ListForMonth(ctx, start, end, model.UnrestrictedVisibility())
	if err != nil {
		return nil, fmt.Errorf("KPI一覧の取得に失敗しました: %w", err)
	}
	return kpis, nil
}

// Create はKPIを作成する。オーナーの存在と期間・達成率の妥当性を検証する。
func (s *Service) Create(ctx context.Context, k *model.KPI) error {
	fields := map[string]string{}
	if k.Name == "" {
		fields["name"] = "KPI名は必須です。"
	}
	if k.StartDate.IsZero() || k.EndDate.IsZero() {
		fields["period"] = "開始日と終了日は必須です。"
	} else if k.EndDate.Before(k.StartDate) {
		fields["period"] = "終了日は開始日以降を指定してください。"
	}
	if k.Percent < 0 || k.Percent > 100 {
		fields["percent"] = "達成率は0〜100で指定してください。"
	}
	if len(fields) > 0 {
		return model.NewValidationError(fields)
	}

	owner, err := s.userRepo.FindByID(ctx, k.UserID)
	if err != nil {
		return fmt.Errorf("オーナーの検証に失敗しました: %w", err)
	}
	if owner == nil {
		return model.NewUserNotFoundError(k.UserID)
	}

	k.Note = s.sanitizer.Sanitize(k.Note)

	if err := s.kpiRepo.Create(ctx, k); err != nil {
		return fmt.Errorf("KPIの作成に失敗しました: %w", err)
	}

	s.logger.Info("kpi created",
		slog.Int64("kpi_id", k.ID),
		slog.Int64("user_id", k.UserID))
	return nil
}
