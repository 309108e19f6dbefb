// Package model はドメインモデルを定義する。
package model

import "time"

// Notification はタスクのピン（催促）通知を表す。
// 配送そのものは本サービスの責務外で、アウトボックステーブルへの永続化のみ行う。
type Notification struct {
	ID          string
	TaskID      int64
	RecipientID int64
	SenderID    *int64
	Message     string
	CreatedAt   time.Time
}
