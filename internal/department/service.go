// Package department は部門の参照を提供する。
package department

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/kpiboard/internal/model"
	"github.com/hitoshi/kpiboard/internal/repository"
)

// Service は部門参照のサービス。
// 部門の作成・改名はユーザー操作（マネージャーの作成・改名）に
// 追従して行われるため、本サービスは読み取りのみを提供する。
type Service struct {
	deptRepo repository.DepartmentRepository
	logger   *slog.Logger
}

// NewService はServiceを生成する。
func NewService(deptRepo repository.DepartmentRepository, logger *slog.Logger) *Service {
	return &Service{
		deptRepo: deptRepo,
		logger:   logger,
	}
}

// Get は指定IDの部門を返す。
func (s *Service) Get(ctx context.Context, departmentID int64) (*model.Department, error) {
	dept, err := s.deptRepo.FindByID(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("部門の取得に失敗しました: %w", err)
	}
	if dept == nil {
		return nil, model.NewDepartmentNotFoundError(departmentID)
	}
	return dept, nil
}

// List は全部門を返す。
func (s *Service) List(ctx context.Context) ([]*model.Department, error) {
	depts, err := s.deptRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("部門一覧の取得に失敗しました: %w", err)
	}
	return depts, nil
}
