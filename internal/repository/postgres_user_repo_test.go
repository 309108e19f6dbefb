package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/kpiboard/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresDepartmentRepoはDepartmentRepositoryインターフェースを満たすことを検証
func TestPostgresDepartmentRepo_ImplementsInterface(t *testing.T) {
	var _ DepartmentRepository = (*PostgresDepartmentRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresDepartmentRepoが正しく初期化されることを検証
func TestNewPostgresDepartmentRepo_Initializes(t *testing.T) {
	repo := NewPostgresDepartmentRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Userモデルのフィールドが正しく構築されることを検証
func TestPostgresUserRepo_UserModel_Fields(t *testing.T) {
	now := time.Now()
	deptID := int64(3)
	user := &model.User{
		ID:           1,
		Name:         "山田 太郎",
		Email:        "yamada@example.com",
		Role:         model.RoleDepartmentManager,
		DepartmentID: &deptID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if user.Role != model.RoleDepartmentManager {
		t.Errorf("user.Role = %q, want %q", user.Role, model.RoleDepartmentManager)
	}
	if user.DepartmentID == nil || *user.DepartmentID != 3 {
		t.Errorf("user.DepartmentID = %v, want 3", user.DepartmentID)
	}
}

// 部署モデルがマネージャーIDを保持することを検証
func TestPostgresDepartmentRepo_DepartmentModel_Fields(t *testing.T) {
	dept := &model.Department{
		ID:        10,
		Name:      "山田 太郎",
		ManagerID: 1,
	}

	if dept.ManagerID != 1 {
		t.Errorf("dept.ManagerID = %d, want 1", dept.ManagerID)
	}
	if dept.Name == "" {
		t.Error("department name should mirror the manager name")
	}
}
