// Package report はKPIヘルススナップショットの集計と構築を提供する。
package report

import (
	"time"

	"github.com/hitoshi/kpiboard/internal/model"
)

// monthTokenLayout は月指定トークンの書式。
const monthTokenLayout = "2006-01"

// MonthRange は"YYYY-MM"トークンを当該月の初日と末日（両端含む）に変換する。
// どちらも深夜0時のUTC日付を返す。書式不正の場合はInvalidMonthFormatエラーを返す。
func MonthRange(token string) (start, end time.Time, err error) {
	parsed, perr := time.Parse(monthTokenLayout, token)
	if perr != nil {
		return time.Time{}, time.Time{}, model.NewInvalidMonthFormatError(token)
	}

	start = time.Date(parsed.Year(), parsed.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end, nil
}

// CurrentMonthToken は指定時刻が属する月の"YYYY-MM"トークンを返す。
func CurrentMonthToken(now time.Time) string {
	return now.Format(monthTokenLayout)
}
