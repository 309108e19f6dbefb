package report

import "time"

// DaysUntil はnowからdeadlineまでの符号付き暦日差を返す。
// 時刻部分を切り捨てて暦日単位で比較する。
// 正の値は残り日数、負の値は超過日数、0は当日を表す。
// リスク一覧のdays_leftはこの値をそのまま、ブロックタスクのdays_overdueは
// この値の符号を反転して使う。
func DaysUntil(deadline, now time.Time) int {
	d := toDate(deadline)
	n := toDate(now)
	return int(d.Sub(n).Hours() / 24)
}

// toDate は時刻部分を落として暦日だけのUTC値に正規化する。
func toDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
