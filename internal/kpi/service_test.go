package kpi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/kpiboard/internal/model"
)

// --- モック ---

type mockKPIRepo struct {
	findByIDFn      func(ctx context.Context, id int64) (*model.KPI, error)
	listForMonthFn  func(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error)
	createFn        func(ctx context.Context, k *model.KPI) error
	updatePercentFn func(ctx context.Context, id int64, percent float64) error
}

func (m *mockKPIRepo) FindByID(ctx context.Context, id int64) (*model.KPI, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockKPIRepo) ListForMonth(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error) {
	if m.listForMonthFn != nil {
		return m.listForMonthFn(ctx, start, end, vis)
	}
	return nil, nil
}

func (m *mockKPIRepo) Create(ctx context.Context, k *model.KPI) error {
	if m.createFn != nil {
		return m.createFn(ctx, k)
	}
	return nil
}

func (m *mockKPIRepo) UpdatePercent(ctx context.Context, id int64, percent float64) error {
	if m.updatePercentFn != nil {
		return m.updatePercentFn(ctx, id, percent)
	}
	return nil
}

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) { return nil, nil }

func (m *mockUserRepo) ListIDsByDepartment(ctx context.Context, departmentID int64) ([]int64, error) {
	return nil, nil
}

func (m *mockUserRepo) NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error { return nil }

func (m *mockUserRepo) Update(ctx context.Context, u *model.User) error { return nil }

func (m *mockUserRepo) DeleteByID(ctx context.Context, id int64) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func validKPI() *model.KPI {
	return &model.KPI{
		UserID:    1,
		Name:      "月間売上目標",
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Percent:   0,
	}
}

// --- テスト ---

func TestService_Create_Success(t *testing.T) {
	created := false
	kpiRepo := &mockKPIRepo{
		createFn: func(ctx context.Context, k *model.KPI) error {
			created = true
			k.ID = 8
			return nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Name: "田中太郎"}, nil
		},
	}
	svc := NewService(kpiRepo, userRepo, testLogger())

	kpi := validKPI()
	if err := svc.Create(context.Background(), kpi); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !created {
		t.Error("リポジトリのCreateが呼ばれていない")
	}
	if kpi.ID != 8 {
		t.Errorf("ID = %d, want 8", kpi.ID)
	}
}

func TestService_Create_UnknownOwner(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(&mockKPIRepo{}, userRepo, testLogger())

	err := svc.Create(context.Background(), validKPI())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("error = %v, want USER_NOT_FOUND", err)
	}
}

func TestService_Create_InvalidPeriod(t *testing.T) {
	svc := NewService(&mockKPIRepo{}, &mockUserRepo{}, testLogger())

	kpi := validKPI()
	kpi.StartDate = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	kpi.EndDate = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	err := svc.Create(context.Background(), kpi)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Fatalf("error = %v, want VALIDATION_ERROR", err)
	}
	if _, ok := apiErr.Fields["period"]; !ok {
		t.Errorf("fields = %v, want period entry", apiErr.Fields)
	}
}

func TestService_Create_PercentOutOfRange(t *testing.T) {
	svc := NewService(&mockKPIRepo{}, &mockUserRepo{}, testLogger())

	kpi := validKPI()
	kpi.Percent = 120

	err := svc.Create(context.Background(), kpi)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Fatalf("error = %v, want VALIDATION_ERROR", err)
	}
}

func TestService_Create_SanitizesNote(t *testing.T) {
	var saved *model.KPI
	kpiRepo := &mockKPIRepo{
		createFn: func(ctx context.Context, k *model.KPI) error {
			saved = k
			return nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	svc := NewService(kpiRepo, userRepo, testLogger())

	kpi := validKPI()
	kpi.Note = `<script>alert(1)</script>前月比110%`
	if err := svc.Create(context.Background(), kpi); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if saved.Note != "前月比110%" {
		t.Errorf("Note = %q, want %q", saved.Note, "前月比110%")
	}
}

func TestService_ListForMonth_UsesMonthBounds(t *testing.T) {
	var gotStart, gotEnd time.Time
	kpiRepo := &mockKPIRepo{
		listForMonthFn: func(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error) {
			gotStart, gotEnd = start, end
			if !vis.Unrestricted() {
				t.Error("管理用一覧は可視性の制限をかけない")
			}
			return nil, nil
		},
	}
	svc := NewService(kpiRepo, &mockUserRepo{}, testLogger())

	if _, err := svc.ListForMonth(context.Background(), "2025-03", time.Now()); err != nil {
		t.Fatalf("ListForMonth() error = %v", err)
	}

	wantStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	if !gotStart.Equal(wantStart) || !gotEnd.Equal(wantEnd) {
		t.Errorf("bounds = [%v, %v], want [%v, %v]", gotStart, gotEnd, wantStart, wantEnd)
	}
}

func TestService_ListForMonth_InvalidToken(t *testing.T) {
	svc := NewService(&mockKPIRepo{}, &mockUserRepo{}, testLogger())

	_, err := svc.ListForMonth(context.Background(), "2025/03", time.Now())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidMonthFormat {
		t.Fatalf("error = %v, want INVALID_MONTH_FORMAT", err)
	}
}

func TestService_ListForMonth_DefaultsToCurrentMonth(t *testing.T) {
	var gotStart time.Time
	kpiRepo := &mockKPIRepo{
		listForMonthFn: func(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error) {
			gotStart = start
			return nil, nil
		},
	}
	svc := NewService(kpiRepo, &mockUserRepo{}, testLogger())

	now := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	if _, err := svc.ListForMonth(context.Background(), "", now); err != nil {
		t.Fatalf("ListForMonth() error = %v", err)
	}
	want := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if !gotStart.Equal(want) {
		t.Errorf("start = %v, want %v", gotStart, want)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc := NewService(&mockKPIRepo{}, &mockUserRepo{}, testLogger())

	_, err := svc.Get(context.Background(), 99)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeKPINotFound {
		t.Fatalf("error = %v, want KPI_NOT_FOUND", err)
	}
}
