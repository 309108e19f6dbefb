package visibility

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hitoshi/kpiboard/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	listIDsByDepartmentFn func(ctx context.Context, departmentID int64) ([]int64, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) ListIDsByDepartment(ctx context.Context, departmentID int64) ([]int64, error) {
	return m.listIDsByDepartmentFn(ctx, departmentID)
}
func (m *mockUserRepo) NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error {
	return nil
}
func (m *mockUserRepo) Update(ctx context.Context, u *model.User) error {
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id int64) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- テスト ---

// TestResolver_NilCaller は呼び出しユーザーなしで無制限になることを検証する。
func TestResolver_NilCaller_Unrestricted(t *testing.T) {
	r := NewResolver(&mockUserRepo{}, testLogger())

	vis, err := r.Resolve(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !vis.Unrestricted() {
		t.Error("expected unrestricted visibility for nil caller")
	}
}

// TestResolver_Admin は管理者が無制限になることを検証する。
func TestResolver_Admin_Unrestricted(t *testing.T) {
	r := NewResolver(&mockUserRepo{}, testLogger())
	admin := &model.User{ID: 1, Role: model.RoleAdmin}

	vis, err := r.Resolve(context.Background(), admin, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !vis.Unrestricted() {
		t.Error("expected unrestricted visibility for admin")
	}
}

// TestResolver_AdminWithDepartmentFilter は管理者の部署フィルタ指定を検証する。
func TestResolver_AdminWithDepartmentFilter(t *testing.T) {
	userRepo := &mockUserRepo{
		listIDsByDepartmentFn: func(ctx context.Context, departmentID int64) ([]int64, error) {
			if departmentID != 5 {
				t.Errorf("departmentID = %d, want 5", departmentID)
			}
			return []int64{10, 11, 12}, nil
		},
	}
	r := NewResolver(userRepo, testLogger())
	admin := &model.User{ID: 1, Role: model.RoleAdmin}
	deptID := int64(5)

	vis, err := r.Resolve(context.Background(), admin, &deptID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vis.Unrestricted() {
		t.Fatal("expected restricted visibility")
	}
	if got := vis.UserIDs(); len(got) != 3 {
		t.Errorf("len(vis.UserIDs()) = %d, want 3", len(got))
	}
}

// TestResolver_Manager はマネージャーが自部署＋自分自身に制限されることを検証する。
func TestResolver_Manager_DepartmentPlusSelf(t *testing.T) {
	userRepo := &mockUserRepo{
		listIDsByDepartmentFn: func(ctx context.Context, departmentID int64) ([]int64, error) {
			return []int64{20, 21}, nil
		},
	}
	r := NewResolver(userRepo, testLogger())
	deptID := int64(3)
	manager := &model.User{ID: 1, Role: model.RoleDepartmentManager, DepartmentID: &deptID}

	vis, err := r.Resolve(context.Background(), manager, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vis.Unrestricted() {
		t.Fatal("expected restricted visibility")
	}
	if !vis.Contains(1) {
		t.Error("expected manager's own ID in visibility set")
	}
	if !vis.Contains(20) || !vis.Contains(21) {
		t.Error("expected department members in visibility set")
	}
}

// TestResolver_ManagerSelfInDepartment は自分が部署一覧に含まれても重複しないことを検証する。
func TestResolver_Manager_SelfNotDuplicated(t *testing.T) {
	userRepo := &mockUserRepo{
		listIDsByDepartmentFn: func(ctx context.Context, departmentID int64) ([]int64, error) {
			return []int64{1, 20}, nil
		},
	}
	r := NewResolver(userRepo, testLogger())
	deptID := int64(3)
	manager := &model.User{ID: 1, Role: model.RoleDepartmentManager, DepartmentID: &deptID}

	vis, err := r.Resolve(context.Background(), manager, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := vis.UserIDs(); len(got) != 2 {
		t.Errorf("len(vis.UserIDs()) = %d, want 2", len(got))
	}
}

// TestResolver_ManagerWithoutDepartment は部署未設定マネージャーが自分のみになることを検証する。
func TestResolver_ManagerWithoutDepartment_SelfOnly(t *testing.T) {
	r := NewResolver(&mockUserRepo{}, testLogger())
	manager := &model.User{ID: 7, Role: model.RoleDepartmentManager}

	vis, err := r.Resolve(context.Background(), manager, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := vis.UserIDs()
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("vis.UserIDs() = %v, want [7]", got)
	}
}

// TestResolver_Employee は一般従業員が自分のみになることを検証する。
func TestResolver_Employee_SelfOnly(t *testing.T) {
	r := NewResolver(&mockUserRepo{}, testLogger())
	emp := &model.User{ID: 42, Role: model.RoleEmployee}

	vis, err := r.Resolve(context.Background(), emp, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := vis.UserIDs()
	if len(got) != 1 || got[0] != 42 {
		t.Errorf("vis.UserIDs() = %v, want [42]", got)
	}
}

// TestResolver_RepoError はリポジトリエラーが伝播することを検証する。
func TestResolver_RepoError_Propagates(t *testing.T) {
	userRepo := &mockUserRepo{
		listIDsByDepartmentFn: func(ctx context.Context, departmentID int64) ([]int64, error) {
			return nil, errors.New("db down")
		},
	}
	r := NewResolver(userRepo, testLogger())
	deptID := int64(3)
	manager := &model.User{ID: 1, Role: model.RoleDepartmentManager, DepartmentID: &deptID}

	_, err := r.Resolve(context.Background(), manager, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}
