package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hitoshi/kpiboard/internal/model"
)

const (
	// riskListLimit はリスク一覧の最大件数。
	riskListLimit = 8

	// dateLayout はレポート内の日付表記。
	dateLayout = "2006-01-02"
)

// Summary は対象月のKPI集計値。
type Summary struct {
	Total      int     `json:"total"`
	OnTrack    int     `json:"on_track"`
	AtRisk     int     `json:"at_risk"`
	Critical   int     `json:"critical"`
	AvgPercent float64 `json:"avg_percent"`
	MonthLabel string  `json:"month_label"`
}

// Distribution は達成率の帯域分布。4帯域は互いに排他で全KPIを網羅する。
type Distribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Warning   int `json:"warning"`
	Critical  int `json:"critical"`
}

// RiskKPI はリスク一覧の1エントリ。
type RiskKPI struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Owner    *string `json:"owner"`
	Percent  float64 `json:"percent"`
	Deadline string  `json:"deadline"`
	DaysLeft int     `json:"days_left"`
	Note     string  `json:"note"`
}

// BlockedTask はブロックタスク一覧の1エントリ。
type BlockedTask struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Priority    string   `json:"priority"`
	Deadline    string   `json:"deadline"`
	AssignedBy  *string  `json:"assigned_by"`
	Owners      []string `json:"owners"`
	Status      string   `json:"status"`
	IsOverdue   bool     `json:"is_overdue"`
	DaysOverdue int      `json:"days_overdue"`
}

// Snapshot は月次KPIヘルスレポートの全体。
type Snapshot struct {
	Month        string        `json:"month"`
	Summary      Summary       `json:"summary"`
	Distribution Distribution  `json:"distribution"`
	RiskKPIs     []RiskKPI     `json:"risk_kpis"`
	BlockedTasks []BlockedTask `json:"blocked_tasks"`
}

// BuildSummary は再計算済みKPI群から集計値を構築する。
// on_trackは90以上、at_riskは70以上90未満、criticalは70未満。
// 平均は小数第1位に丸め、0件のときは0を返す。
func BuildSummary(kpis []model.KPIWithOwner, rangeStart time.Time) Summary {
	s := Summary{
		Total:      len(kpis),
		MonthLabel: monthLabel(rangeStart),
	}

	if len(kpis) == 0 {
		return s
	}

	var sum float64
	for _, k := range kpis {
		sum += k.Percent
		switch {
		case k.Percent >= 90:
			s.OnTrack++
		case k.Percent >= 70:
			s.AtRisk++
		default:
			s.Critical++
		}
	}
	s.AvgPercent = math.Round(sum/float64(len(kpis))*10) / 10

	return s
}

// BuildDistribution はKPI群を4帯域に分類する。
// excellentは95以上、goodは85以上95未満、warningは70以上85未満、criticalは70未満。
func BuildDistribution(kpis []model.KPIWithOwner) Distribution {
	var d Distribution
	for _, k := range kpis {
		switch {
		case k.Percent >= 95:
			d.Excellent++
		case k.Percent >= 85:
			d.Good++
		case k.Percent >= 70:
			d.Warning++
		default:
			d.Critical++
		}
	}
	return d
}

// BuildRiskList は達成率90未満のKPIを達成率昇順で最大8件返す。
// 同率の場合は入力順を保つ。days_leftはKPI終了日までの符号付き日数。
func BuildRiskList(kpis []model.KPIWithOwner, now time.Time) []RiskKPI {
	var atRisk []model.KPIWithOwner
	for _, k := range kpis {
		if k.Percent < 90 {
			atRisk = append(atRisk, k)
		}
	}

	sort.SliceStable(atRisk, func(i, j int) bool {
		return atRisk[i].Percent < atRisk[j].Percent
	})

	if len(atRisk) > riskListLimit {
		atRisk = atRisk[:riskListLimit]
	}

	list := make([]RiskKPI, 0, len(atRisk))
	for _, k := range atRisk {
		list = append(list, RiskKPI{
			ID:       k.ID,
			Name:     k.Name,
			Owner:    k.OwnerName,
			Percent:  k.Percent,
			Deadline: k.EndDate.Format(dateLayout),
			DaysLeft: DaysUntil(k.EndDate, now),
			Note:     k.Note,
		})
	}
	return list
}

// BuildBlockedTasks は取得済みのブロックタスク行をレポート形式に変換する。
// is_overdueは締切時刻がnowより過去かどうか、days_overdueは超過日数
// （未到来なら0以下の負数、当日は0）。空タイトルは"Untitled"で補う。
func BuildBlockedTasks(tasks []model.TaskWithRefs, now time.Time) []BlockedTask {
	list := make([]BlockedTask, 0, len(tasks))
	for _, t := range tasks {
		if t.DeadlineAt == nil {
			continue
		}

		title := t.Title
		if title == "" {
			title = "Untitled"
		}

		owners := t.OwnerNames
		if owners == nil {
			owners = []string{}
		}

		list = append(list, BlockedTask{
			ID:          t.ID,
			Title:       title,
			Priority:    t.Priority,
			Deadline:    t.DeadlineAt.Format(dateLayout),
			AssignedBy:  t.AssignedByName,
			Owners:      owners,
			Status:      t.Status,
			IsOverdue:   t.DeadlineAt.Before(now),
			DaysOverdue: -DaysUntil(*t.DeadlineAt, now),
		})
	}
	return list
}

// monthLabel は月初日から人間可読の月表記を作る。
func monthLabel(rangeStart time.Time) string {
	return fmt.Sprintf("%d年%d月", rangeStart.Year(), int(rangeStart.Month()))
}
