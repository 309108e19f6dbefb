package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/kpiboard/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	task := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, detail, priority, status, user_id, assigned_by, deadline_at, created_at, updated_at
		 FROM tasks WHERE id = $1`,
		id,
	).Scan(&task.ID, &task.Title, &task.Detail, &task.Priority, &task.Status,
		&task.UserID, &task.AssignedBy, &task.DeadlineAt, &task.CreatedAt, &task.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}

	return task, nil
}

// List は全タスクを参照名付きで締切昇順（締切なしは末尾）に返す。
func (r *PostgresTaskRepo) List(ctx context.Context) ([]model.TaskWithRefs, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.title, t.detail, t.priority, t.status, t.user_id, t.assigned_by,
		        t.deadline_at, t.created_at, t.updated_at,
		        ab.name,
		        ARRAY(SELECT u.name FROM task_owners tw JOIN users u ON u.id = tw.user_id
		              WHERE tw.task_id = t.id ORDER BY u.id)
		 FROM tasks t
		 LEFT JOIN users ab ON ab.id = t.assigned_by
		 ORDER BY t.deadline_at ASC NULLS LAST, t.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTaskWithRefsRows(rows)
}

// Create はタスクを作成し、採番されたIDをtに書き戻す。
func (r *PostgresTaskRepo) Create(ctx context.Context, t *model.Task) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (title, detail, priority, status, user_id, assigned_by, deadline_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 RETURNING id, created_at, updated_at`,
		t.Title, t.Detail, t.Priority, t.Status, t.UserID, t.AssignedBy, t.DeadlineAt,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return nil
}

// ListOwners はタスクの現在の担当者を返す。
func (r *PostgresTaskRepo) ListOwners(ctx context.Context, taskID int64) ([]model.OwnerRef, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email
		 FROM task_owners tw
		 JOIN users u ON u.id = tw.user_id
		 WHERE tw.task_id = $1
		 ORDER BY u.id ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("担当者の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var owners []model.OwnerRef
	for rows.Next() {
		var o model.OwnerRef
		if err := rows.Scan(&o.UserID, &o.Name, &o.Email); err != nil {
			return nil, fmt.Errorf("担当者行の読み取りに失敗しました: %w", err)
		}
		owners = append(owners, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("担当者の走査に失敗しました: %w", err)
	}
	return owners, nil
}

// ReplaceOwners はタスクの担当者集合を全置換する。
// 既存の担当行を全削除し、新しい集合を初期状態で挿入し、タスク自身のstatusも更新する。
// 全手順を同一トランザクションで行い、途中で失敗した場合は変更を一切残さない。
func (r *PostgresTaskRepo) ReplaceOwners(ctx context.Context, taskID int64, userIDs []int64, status string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// 対象タスクを行ロックして存在確認する
	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM tasks WHERE id = $1 FOR UPDATE`,
		taskID,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("タスクが見つかりません: %d", taskID)
	}
	if err != nil {
		return fmt.Errorf("タスクのロックに失敗しました: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM task_owners WHERE task_id = $1`,
		taskID,
	); err != nil {
		return fmt.Errorf("既存担当者の削除に失敗しました: %w", err)
	}

	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_owners (task_id, user_id, status, progress)
			 VALUES ($1, $2, $3, 0)`,
			taskID, userID, status,
		); err != nil {
			return fmt.Errorf("担当者の登録に失敗しました: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`,
		taskID, status,
	); err != nil {
		return fmt.Errorf("タスクステータスの更新に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// ListBlocked は期限窓内の未完了タスクを参照名付きで締切昇順に返す。
// visが制限付きの場合、直接オーナーまたは担当者のいずれかが集合に含まれるものに絞る。
func (r *PostgresTaskRepo) ListBlocked(ctx context.Context, windowStart, windowEnd time.Time, vis model.Visibility, limit int) ([]model.TaskWithRefs, error) {
	query := `SELECT t.id, t.title, t.detail, t.priority, t.status, t.user_id, t.assigned_by,
	                 t.deadline_at, t.created_at, t.updated_at,
	                 ab.name,
	                 ARRAY(SELECT u.name FROM task_owners tw JOIN users u ON u.id = tw.user_id
	                       WHERE tw.task_id = t.id ORDER BY u.id)
	          FROM tasks t
	          LEFT JOIN users ab ON ab.id = t.assigned_by
	          WHERE t.status <> $1
	            AND t.deadline_at IS NOT NULL
	            AND t.deadline_at >= $2
	            AND t.deadline_at < $3 + INTERVAL '1 day'`
	args := []any{model.TaskStatusCompleted, windowStart, windowEnd}

	if !vis.Unrestricted() {
		query += `
	            AND (t.user_id = ANY($4)
	                 OR EXISTS (SELECT 1 FROM task_owners tw2
	                            WHERE tw2.task_id = t.id AND tw2.user_id = ANY($4)))`
		args = append(args, pq.Array(vis.UserIDs()))
	}

	query += fmt.Sprintf(`
	          ORDER BY t.deadline_at ASC, t.id ASC
	          LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ブロックタスクの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTaskWithRefsRows(rows)
}

// ListOwnerProgressInWindow は指定ユーザーの担当行のうち、
// タスク締切が[start, end]に収まるものを返す。
func (r *PostgresTaskRepo) ListOwnerProgressInWindow(ctx context.Context, userID int64, start, end time.Time) ([]model.TaskOwner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tw.task_id, tw.user_id, tw.status, tw.progress
		 FROM task_owners tw
		 JOIN tasks t ON t.id = tw.task_id
		 WHERE tw.user_id = $1
		   AND t.deadline_at IS NOT NULL
		   AND t.deadline_at >= $2
		   AND t.deadline_at < $3 + INTERVAL '1 day'
		 ORDER BY tw.task_id ASC`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("担当進捗の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var owners []model.TaskOwner
	for rows.Next() {
		var o model.TaskOwner
		if err := rows.Scan(&o.TaskID, &o.UserID, &o.Status, &o.Progress); err != nil {
			return nil, fmt.Errorf("担当進捗行の読み取りに失敗しました: %w", err)
		}
		owners = append(owners, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("担当進捗の走査に失敗しました: %w", err)
	}
	return owners, nil
}

// scanTaskWithRefsRows はタスク＋参照名のSELECT結果を読み取る共通処理。
func scanTaskWithRefsRows(rows *sql.Rows) ([]model.TaskWithRefs, error) {
	var tasks []model.TaskWithRefs
	for rows.Next() {
		var t model.TaskWithRefs
		var assignedByName sql.NullString
		var ownerNames pq.StringArray
		if err := rows.Scan(&t.ID, &t.Title, &t.Detail, &t.Priority, &t.Status,
			&t.UserID, &t.AssignedBy, &t.DeadlineAt, &t.CreatedAt, &t.UpdatedAt,
			&assignedByName, &ownerNames); err != nil {
			return nil, fmt.Errorf("タスク行の読み取りに失敗しました: %w", err)
		}
		if assignedByName.Valid {
			name := assignedByName.String
			t.AssignedByName = &name
		}
		t.OwnerNames = []string(ownerNames)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスク一覧の走査に失敗しました: %w", err)
	}
	return tasks, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
