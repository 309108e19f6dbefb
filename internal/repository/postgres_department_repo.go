package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/kpiboard/internal/model"
)

// PostgresDepartmentRepo はPostgreSQLを使用した部門リポジトリ。
type PostgresDepartmentRepo struct {
	db *sql.DB
}

// NewPostgresDepartmentRepo はPostgresDepartmentRepoを生成する。
func NewPostgresDepartmentRepo(db *sql.DB) *PostgresDepartmentRepo {
	return &PostgresDepartmentRepo{db: db}
}

// FindByID は指定IDの部門を取得する。見つからない場合はnilを返す。
func (r *PostgresDepartmentRepo) FindByID(ctx context.Context, id int64) (*model.Department, error) {
	dept := &model.Department{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, manager_id, created_at, updated_at
		 FROM departments WHERE id = $1`,
		id,
	).Scan(&dept.ID, &dept.Name, &dept.ManagerID, &dept.CreatedAt, &dept.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("部門の取得に失敗しました: %w", err)
	}

	return dept, nil
}

// List は全部門を作成順で返す。
func (r *PostgresDepartmentRepo) List(ctx context.Context) ([]*model.Department, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, manager_id, created_at, updated_at
		 FROM departments ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("部門一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var depts []*model.Department
	for rows.Next() {
		dept := &model.Department{}
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.ManagerID, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, fmt.Errorf("部門行の読み取りに失敗しました: %w", err)
		}
		depts = append(depts, dept)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("部門一覧の走査に失敗しました: %w", err)
	}
	return depts, nil
}

// EnsureForManager はマネージャーの部門を冪等に保証する。
// 部門が無ければマネージャー名で作成し、名前がずれていれば追従させ、
// マネージャー自身のdepartment_idを部門に揃える。全手順を同一トランザクションで行う。
func (r *PostgresDepartmentRepo) EnsureForManager(ctx context.Context, manager *model.User) (*model.Department, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	dept := &model.Department{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, name, manager_id, created_at, updated_at
		 FROM departments WHERE manager_id = $1`,
		manager.ID,
	).Scan(&dept.ID, &dept.Name, &dept.ManagerID, &dept.CreatedAt, &dept.UpdatedAt)

	switch {
	case err == sql.ErrNoRows:
		// 部門が無ければマネージャー名で作成する
		err = tx.QueryRowContext(ctx,
			`INSERT INTO departments (name, manager_id, created_at, updated_at)
			 VALUES ($1, $2, NOW(), NOW())
			 RETURNING id, name, manager_id, created_at, updated_at`,
			manager.Name, manager.ID,
		).Scan(&dept.ID, &dept.Name, &dept.ManagerID, &dept.CreatedAt, &dept.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("部門の作成に失敗しました: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("部門の検索に失敗しました: %w", err)
	default:
		// 部門名はマネージャーの表示名を反映する
		if dept.Name != manager.Name {
			if _, err := tx.ExecContext(ctx,
				`UPDATE departments SET name = $2, updated_at = NOW() WHERE id = $1`,
				dept.ID, manager.Name,
			); err != nil {
				return nil, fmt.Errorf("部門名の更新に失敗しました: %w", err)
			}
			dept.Name = manager.Name
		}
	}

	// マネージャー自身の所属部門を自分の部門に揃える
	if manager.DepartmentID == nil || *manager.DepartmentID != dept.ID {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET department_id = $2, updated_at = NOW() WHERE id = $1`,
			manager.ID, dept.ID,
		); err != nil {
			return nil, fmt.Errorf("マネージャーの所属部門の更新に失敗しました: %w", err)
		}
		deptID := dept.ID
		manager.DepartmentID = &deptID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return dept, nil
}

// compile-time interface check
var _ DepartmentRepository = (*PostgresDepartmentRepo)(nil)
