package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/kpiboard/internal/model"
)

// PostgresKPIRepo はPostgreSQLを使用したKPIリポジトリ。
type PostgresKPIRepo struct {
	db *sql.DB
}

// NewPostgresKPIRepo はPostgresKPIRepoを生成する。
func NewPostgresKPIRepo(db *sql.DB) *PostgresKPIRepo {
	return &PostgresKPIRepo{db: db}
}

// FindByID は指定IDのKPIを取得する。見つからない場合はnilを返す。
func (r *PostgresKPIRepo) FindByID(ctx context.Context, id int64) (*model.KPI, error) {
	kpi := &model.KPI{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, note, start_date, end_date, percent, created_at, updated_at
		 FROM kpis WHERE id = $1`,
		id,
	).Scan(&kpi.ID, &kpi.UserID, &kpi.Name, &kpi.Note, &kpi.StartDate, &kpi.EndDate,
		&kpi.Percent, &kpi.CreatedAt, &kpi.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("KPIの取得に失敗しました: %w", err)
	}

	return kpi, nil
}

// ListForMonth は期間が指定の月境界に一致するKPIをオーナー名付きで返す。
// 月の初日と末日の両方が一致する行だけを対象とする。
func (r *PostgresKPIRepo) ListForMonth(ctx context.Context, start, end time.Time, vis model.Visibility) ([]model.KPIWithOwner, error) {
	query := `SELECT k.id, k.user_id, k.name, k.note, k.start_date, k.end_date, k.percent,
	                 k.created_at, k.updated_at, u.name
	          FROM kpis k
	          LEFT JOIN users u ON u.id = k.user_id
	          WHERE k.start_date = $1 AND k.end_date = $2`
	args := []any{start, end}

	if !vis.Unrestricted() {
		query += ` AND k.user_id = ANY($3)`
		args = append(args, pq.Array(vis.UserIDs()))
	}

	query += ` ORDER BY k.id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("KPI一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var kpis []model.KPIWithOwner
	for rows.Next() {
		var k model.KPIWithOwner
		var ownerName sql.NullString
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.Note, &k.StartDate, &k.EndDate,
			&k.Percent, &k.CreatedAt, &k.UpdatedAt, &ownerName); err != nil {
			return nil, fmt.Errorf("KPI行の読み取りに失敗しました: %w", err)
		}
		if ownerName.Valid {
			name := ownerName.String
			k.OwnerName = &name
		}
		kpis = append(kpis, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("KPI一覧の走査に失敗しました: %w", err)
	}
	return kpis, nil
}

// Create はKPIを作成し、採番されたIDをkに書き戻す。
func (r *PostgresKPIRepo) Create(ctx context.Context, k *model.KPI) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO kpis (user_id, name, note, start_date, end_date, percent, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING id, created_at, updated_at`,
		k.UserID, k.Name, k.Note, k.StartDate, k.EndDate, k.Percent,
	).Scan(&k.ID, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return fmt.Errorf("KPIの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdatePercent は達成率のみを更新する。
func (r *PostgresKPIRepo) UpdatePercent(ctx context.Context, id int64, percent float64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE kpis SET percent = $2, updated_at = NOW() WHERE id = $1`,
		id, percent,
	)
	if err != nil {
		return fmt.Errorf("達成率の更新に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("KPIが見つかりません: %d", id)
	}

	return nil
}

// compile-time interface check
var _ KPIRepository = (*PostgresKPIRepo)(nil)
