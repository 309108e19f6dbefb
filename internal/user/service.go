// Package user はユーザーのCRUDと部門整合の維持を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/kpiboard/internal/model"
	"github.com/hitoshi/kpiboard/internal/repository"
)

// Service はユーザー操作のサービス。
// 部門マネージャーの作成・更新時には、その人の部門レコードを
// 冪等に保証する（部門が無ければ作成し、名前を追従させる）。
type Service struct {
	userRepo repository.UserRepository
	deptRepo repository.DepartmentRepository
	logger   *slog.Logger
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, deptRepo repository.DepartmentRepository, logger *slog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		deptRepo: deptRepo,
		logger:   logger,
	}
}

// Get は指定IDのユーザーを返す。
func (s *Service) Get(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}
	return user, nil
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Create はユーザーを作成する。部門マネージャーの場合は
// 本人の部門レコードも同時に保証される。
func (s *Service) Create(ctx context.Context, u *model.User) error {
	if fields := validateUser(u); len(fields) > 0 {
		return model.NewValidationError(fields)
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	if err := s.ensureDepartment(ctx, u); err != nil {
		return err
	}

	s.logger.Info("user created",
		slog.Int64("user_id", u.ID),
		slog.String("role", string(u.Role)))
	return nil
}

// Update はユーザー情報を更新する。マネージャーの名前変更は
// 部門名にも反映される。
func (s *Service) Update(ctx context.Context, u *model.User) error {
	if fields := validateUser(u); len(fields) > 0 {
		return model.NewValidationError(fields)
	}

	existing, err := s.userRepo.FindByID(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewUserNotFoundError(u.ID)
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		return fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}

	if err := s.ensureDepartment(ctx, u); err != nil {
		return err
	}

	s.logger.Info("user updated", slog.Int64("user_id", u.ID))
	return nil
}

// Delete は指定IDのユーザーを削除する。
func (s *Service) Delete(ctx context.Context, userID int64) error {
	existing, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewUserNotFoundError(userID)
	}

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	s.logger.Info("user deleted", slog.Int64("user_id", userID))
	return nil
}

// ensureDepartment はマネージャーの部門レコードを冪等に保証する。
func (s *Service) ensureDepartment(ctx context.Context, u *model.User) error {
	if u.Role != model.RoleDepartmentManager {
		return nil
	}
	if _, err := s.deptRepo.EnsureForManager(ctx, u); err != nil {
		return fmt.Errorf("部門の保証に失敗しました: %w", err)
	}
	return nil
}

// validateUser は必須フィールドとロールの妥当性を検査する。
func validateUser(u *model.User) map[string]string {
	fields := map[string]string{}
	if u.Name == "" {
		fields["name"] = "名前は必須です。"
	}
	if u.Email == "" {
		fields["email"] = "メールアドレスは必須です。"
	}
	if _, ok := model.ParseRole(string(u.Role)); !ok {
		fields["role"] = "ロールはemployee、department_manager、adminのいずれかを指定してください。"
	}
	return fields
}
