// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す閉じた列挙型。
// 可視性の判定はこの型に対するswitchで行い、文字列比較は行わない。
type Role string

const (
	// RoleEmployee は一般従業員。自分のデータのみ閲覧できる。
	RoleEmployee Role = "employee"
	// RoleDepartmentManager は部門マネージャー。自部門のメンバーのデータを閲覧できる。
	RoleDepartmentManager Role = "department_manager"
	// RoleAdmin は管理者。全データ、または部門フィルタ指定時はその部門のデータを閲覧できる。
	RoleAdmin Role = "admin"
)

// ParseRole は文字列をRoleに変換する。未知の値の場合はfalseを返す。
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleEmployee, RoleDepartmentManager, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

// User はサービス利用ユーザーを表す。
// DepartmentIDは所属部門。未所属の場合はnil。
type User struct {
	ID           int64
	Name         string
	Email        string
	Role         Role
	DepartmentID *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Department は部門を表す。
// マネージャー1人につき高々1部門が存在し、部門名はマネージャーの表示名を反映する。
type Department struct {
	ID        int64
	Name      string
	ManagerID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
