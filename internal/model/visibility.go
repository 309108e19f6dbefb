// Package model はドメインモデルを定義する。
package model

// Visibility は呼び出し元が閲覧できるユーザーIDの集合を表す。
// Unrestrictedの場合はフィルタなし（全件閲覧可）を意味し、空集合とは区別される。
// 制限付きの集合とUnrestrictedが混在することはない。
type Visibility struct {
	unrestricted bool
	userIDs      []int64
}

// UnrestrictedVisibility はフィルタなしのVisibilityを返す。
func UnrestrictedVisibility() Visibility {
	return Visibility{unrestricted: true}
}

// RestrictedVisibility は指定IDの集合に制限されたVisibilityを返す。
// 重複するIDは除去され、元の順序が保たれる。
func RestrictedVisibility(ids []int64) Visibility {
	seen := make(map[int64]struct{}, len(ids))
	deduped := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}
	return Visibility{userIDs: deduped}
}

// Unrestricted はフィルタなしかどうかを返す。
func (v Visibility) Unrestricted() bool {
	return v.unrestricted
}

// UserIDs は閲覧可能なユーザーIDのスライスを返す。
// Unrestrictedの場合はnilを返す。
func (v Visibility) UserIDs() []int64 {
	if v.unrestricted {
		return nil
	}
	return v.userIDs
}

// Contains は指定IDが閲覧可能かどうかを返す。
// Unrestrictedの場合は常にtrue。
func (v Visibility) Contains(id int64) bool {
	if v.unrestricted {
		return true
	}
	for _, uid := range v.userIDs {
		if uid == id {
			return true
		}
	}
	return false
}
