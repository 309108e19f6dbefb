package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/kpiboard/internal/model"
	"github.com/hitoshi/kpiboard/internal/visibility"
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
	if m.listIDsByDepartmentFn != nil {
		return m.listIDsByDepartmentFn(ctx, departmentID)
	}
	return nil, nil
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

type mockKPIRepo struct {
	listForMonthFn func(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error)
}

func (m *mockKPIRepo) FindByID(ctx context.Context, id int64) (*model.KPI, error) {
	return nil, nil
}
func (m *mockKPIRepo) ListForMonth(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error) {
	return m.listForMonthFn(ctx, start, end, vis)
}
func (m *mockKPIRepo) Create(ctx context.Context, k *model.KPI) error {
	return nil
}
func (m *mockKPIRepo) UpdatePercent(ctx context.Context, id int64, percent float64) error {
	return nil
}

type mockTaskRepo struct {
	listBlockedFn func(ctx context.Context, windowStart, windowEnd time.Time, vis model.Visibility, limit int) ([]model.TaskWithRefs, error)
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	return nil, nil
}
func (m *mockTaskRepo) List(ctx context.Context) ([]model.TaskWithRefs, error) {
	return nil, nil
}
func (m *mockTaskRepo) Create(ctx context.Context, t *model.Task) error {
	return nil
}
func (m *mockTaskRepo) ListOwners(ctx context.Context, taskID int64) ([]model.OwnerRef, error) {
	return nil, nil
}
func (m *mockTaskRepo) ReplaceOwners(ctx context.Context, taskID int64, userIDs []int64, status string) error {
	return nil
}
func (m *mockTaskRepo) ListBlocked(ctx context.Context, windowStart, windowEnd time.Time, vis model.Visibility, limit int) ([]model.TaskWithRefs, error) {
	if m.listBlockedFn != nil {
		return m.listBlockedFn(ctx, windowStart, windowEnd, vis, limit)
	}
	return nil, nil
}
func (m *mockTaskRepo) ListOwnerProgressInWindow(ctx context.Context, userID int64, start, end time.Time) ([]model.TaskOwner, error) {
	return nil, nil
}

type mockAggregator struct {
	recalculateFn func(ctx context.Context, kpi *model.KPI) error
}

func (m *mockAggregator) Recalculate(ctx context.Context, kpi *model.KPI) error {
	if m.recalculateFn != nil {
		return m.recalculateFn(ctx, kpi)
	}
	return nil
}

type noopMetrics struct{}

func (noopMetrics) RecordSnapshot(duration time.Duration) {}
func (noopMetrics) RecordRecalcSuccess()                  {}
func (noopMetrics) RecordRecalcFailure()                  {}
func (noopMetrics) RecordNotificationStored()             {}
func (noopMetrics) RecordHTTPStatus(statusCode int)       {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(kpiRepo *mockKPIRepo, taskRepo *mockTaskRepo, agg *mockAggregator) *Service {
	resolver := visibility.NewResolver(&mockUserRepo{}, testLogger())
	return NewService(resolver, kpiRepo, taskRepo, agg, noopMetrics{}, testLogger())
}

// --- テスト ---

// TestService_Snapshot_Scenario は95/80/60シナリオの全体組み立てを検証する。
func TestService_Snapshot_Scenario(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	kpiRepo := &mockKPIRepo{
		listForMonthFn: func(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error) {
			if start.Day() != 1 || end.Day() != 31 {
				t.Errorf("range = [%v, %v], want month boundaries", start, end)
			}
			return []model.KPIWithOwner{
				kpiWithPercent(1, 95),
				kpiWithPercent(2, 80),
				kpiWithPercent(3, 60),
			}, nil
		},
	}
	deadline := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	taskRepo := &mockTaskRepo{
		listBlockedFn: func(ctx context.Context, windowStart, windowEnd time.Time, vis model.Visibility, limit int) ([]model.TaskWithRefs, error) {
			// 窓は月の前後7日
			wantStart := time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC)
			wantEnd := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
			if !windowStart.Equal(wantStart) || !windowEnd.Equal(wantEnd) {
				t.Errorf("window = [%v, %v], want [%v, %v]", windowStart, windowEnd, wantStart, wantEnd)
			}
			if limit != 10 {
				t.Errorf("limit = %d, want 10", limit)
			}
			return []model.TaskWithRefs{
				{Task: model.Task{ID: 9, Title: "遅延タスク", Status: model.TaskStatusNotCompleted, DeadlineAt: &deadline}},
			}, nil
		},
	}
	svc := newTestService(kpiRepo, taskRepo, &mockAggregator{})
	admin := &model.User{ID: 1, Role: model.RoleAdmin}

	snap, err := svc.Snapshot(context.Background(), admin, "2025-03", nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Month != "2025-03" {
		t.Errorf("Month = %q, want %q", snap.Month, "2025-03")
	}
	if snap.Summary.Total != 3 || snap.Summary.AvgPercent != 78.3 {
		t.Errorf("Summary = %+v, want total 3 avg 78.3", snap.Summary)
	}
	if snap.Distribution.Excellent != 1 || snap.Distribution.Good != 0 ||
		snap.Distribution.Warning != 1 || snap.Distribution.Critical != 1 {
		t.Errorf("Distribution = %+v, want {1 0 1 1}", snap.Distribution)
	}
	if len(snap.RiskKPIs) != 2 {
		t.Errorf("len(RiskKPIs) = %d, want 2", len(snap.RiskKPIs))
	}
	if len(snap.BlockedTasks) != 1 {
		t.Fatalf("len(BlockedTasks) = %d, want 1", len(snap.BlockedTasks))
	}
	if !snap.BlockedTasks[0].IsOverdue || snap.BlockedTasks[0].DaysOverdue != 5 {
		t.Errorf("blocked = %+v, want overdue 5 days", snap.BlockedTasks[0])
	}
}

// TestService_Snapshot_DefaultsToCurrentMonth は月未指定で現在月になることを検証する。
func TestService_Snapshot_DefaultsToCurrentMonth(t *testing.T) {
	now := time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)
	kpiRepo := &mockKPIRepo{
		listForMonthFn: func(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error) {
			if start.Month() != time.July {
				t.Errorf("start.Month() = %v, want July", start.Month())
			}
			return nil, nil
		},
	}
	svc := newTestService(kpiRepo, &mockTaskRepo{}, &mockAggregator{})

	snap, err := svc.Snapshot(context.Background(), nil, "", nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Month != "2025-07" {
		t.Errorf("Month = %q, want %q", snap.Month, "2025-07")
	}
}

// TestService_Snapshot_InvalidMonth は不正な月指定でエラーになることを検証する。
func TestService_Snapshot_InvalidMonth(t *testing.T) {
	svc := newTestService(&mockKPIRepo{}, &mockTaskRepo{}, &mockAggregator{})

	_, err := svc.Snapshot(context.Background(), nil, "not-a-month", nil, time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidMonthFormat {
		t.Errorf("error = %v, want INVALID_MONTH_FORMAT", err)
	}
}

// TestService_Snapshot_RecalcRefreshesPercent は再計算後の値で集計されることを検証する。
func TestService_Snapshot_RecalcRefreshesPercent(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	kpiRepo := &mockKPIRepo{
		listForMonthFn: func(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error) {
			// 保存値は古い
			return []model.KPIWithOwner{kpiWithPercent(1, 10)}, nil
		},
	}
	agg := &mockAggregator{
		recalculateFn: func(ctx context.Context, kpi *model.KPI) error {
			kpi.Percent = 92
			return nil
		},
	}
	svc := newTestService(kpiRepo, &mockTaskRepo{}, agg)

	snap, err := svc.Snapshot(context.Background(), nil, "2025-03", nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Summary.OnTrack != 1 {
		t.Errorf("OnTrack = %d, want 1 (refreshed percent)", snap.Summary.OnTrack)
	}
	if len(snap.RiskKPIs) != 0 {
		t.Errorf("len(RiskKPIs) = %d, want 0", len(snap.RiskKPIs))
	}
}

// TestService_Snapshot_RecalcFailureKeepsStoredPercent は再計算失敗時に保存値で続行することを検証する。
func TestService_Snapshot_RecalcFailureKeepsStoredPercent(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	kpiRepo := &mockKPIRepo{
		listForMonthFn: func(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error) {
			return []model.KPIWithOwner{kpiWithPercent(1, 55)}, nil
		},
	}
	agg := &mockAggregator{
		recalculateFn: func(ctx context.Context, kpi *model.KPI) error {
			return errors.New("aggregation failed")
		},
	}
	svc := newTestService(kpiRepo, &mockTaskRepo{}, agg)

	snap, err := svc.Snapshot(context.Background(), nil, "2025-03", nil, now)
	if err != nil {
		t.Fatalf("snapshot should not fail on recalc error: %v", err)
	}
	if snap.Summary.Critical != 1 {
		t.Errorf("Critical = %d, want 1 (stored percent)", snap.Summary.Critical)
	}
}

// TestService_Snapshot_RepoErrorPropagates はKPI取得エラーが伝播することを検証する。
func TestService_Snapshot_RepoErrorPropagates(t *testing.T) {
	kpiRepo := &mockKPIRepo{
		listForMonthFn: func(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error) {
			return nil, errors.New("db down")
		},
	}
	svc := newTestService(kpiRepo, &mockTaskRepo{}, &mockAggregator{})

	_, err := svc.Snapshot(context.Background(), nil, "2025-03", nil, time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
}
