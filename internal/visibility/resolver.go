package visibility

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/kpiboard/internal/model"
	"github.com/hitoshi/kpiboard/internal/repository"
)

// Resolver は呼び出しユーザーのロールから参照可能なユーザー集合を決定するサービス。
type Resolver struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewResolver はResolverを生成する。
func NewResolver(userRepo repository.UserRepository, logger *slog.Logger) *Resolver {
	return &Resolver{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Resolve は呼び出しユーザーと部署フィルタから可視範囲を解決する。
//   - 管理者: 無制限。部署フィルタ指定時はその部署の所属者に限定する。
//   - 部署マネージャー: 自部署の所属者＋自分自身。部署が未設定なら自分のみ。
//   - 一般従業員: 自分のみ。
//
// 呼び出しユーザーがnilの場合は無制限として扱う。
func (r *Resolver) Resolve(ctx context.Context, caller *model.User, departmentID *int64) (model.Visibility, error) {
	if caller == nil {
		return model.UnrestrictedVisibility(), nil
	}

	switch caller.Role {
	case model.RoleAdmin:
		if departmentID == nil {
			return model.UnrestrictedVisibility(), nil
		}
		ids, err := r.userRepo.ListIDsByDepartment(ctx, *departmentID)
		if err != nil {
			return model.Visibility{}, fmt.Errorf("部署所属者の取得に失敗しました: %w", err)
		}
		return model.RestrictedVisibility(ids), nil

	case model.RoleDepartmentManager:
		if caller.DepartmentID == nil {
			r.logger.Warn("department manager without department",
				slog.Int64("user_id", caller.ID))
			return model.RestrictedVisibility([]int64{caller.ID}), nil
		}
		ids, err := r.userRepo.ListIDsByDepartment(ctx, *caller.DepartmentID)
		if err != nil {
			return model.Visibility{}, fmt.Errorf("部署所属者の取得に失敗しました: %w", err)
		}
		// マネージャー自身が部署に未所属でも常に自分を含める
		return model.RestrictedVisibility(append(ids, caller.ID)), nil

	default:
		return model.RestrictedVisibility([]int64{caller.ID}), nil
	}
}
