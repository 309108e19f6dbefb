package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/kpiboard/internal/model"
)

// PostgresNotificationRepo はPostgreSQLを使用した通知リポジトリ。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

// Create は通知レコードを1件保存する。
func (r *PostgresNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO notifications (id, task_id, recipient_id, sender_id, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING created_at`,
		n.ID, n.TaskID, n.RecipientID, n.SenderID, n.Message,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("通知の保存に失敗しました: %w", err)
	}
	return nil
}

// CountByTask は指定タスクに紐づく通知件数を返す。
func (r *PostgresNotificationRepo) CountByTask(ctx context.Context, taskID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE task_id = $1`,
		taskID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("通知件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
