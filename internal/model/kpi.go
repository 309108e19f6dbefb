// Package model はドメインモデルを定義する。
package model

import "time"

// KPI はユーザー1人の1か月分の目標レコードを表す。
// StartDate/EndDateは両端を含む閉区間（月初〜月末）。
// Percentは保存値を正とせず、レポート読み出しの前に必ず再計算される。
type KPI struct {
	ID        int64
	UserID    int64
	Name      string
	Note      string
	StartDate time.Time
	EndDate   time.Time
	Percent   float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KPIWithOwner はKPIにオーナーの表示名を結合した読み取り専用モデル。
// オーナーが削除済みの場合OwnerNameはnil。
type KPIWithOwner struct {
	KPI
	OwnerName *string
}
