package clanbattledomain

import (
	"fmt"
	"sort"
	"strings"
)

// DailyAttackAllowance is the number of normal attacks per member per day.
const DailyAttackAllowance = 3

// DailySnapshot is the state a daily status panel is projected from.
type DailySnapshot struct {
	CycleKey string
	DayIndex int
	Members  []Member
	Attacks  []Attack
}

// DailyCounts is one member's tally for the day.
type DailyCounts struct {
	MemberID       string `json:"member_id"`
	Name           string `json:"name"`
	Normal         int    `json:"normal"`
	CarryCompleted int    `json:"carry_completed"`
	Earned         int    `json:"earned"`
	Damage         int64  `json:"damage"`
}

// CountDaily tallies finished attacks of the snapshot's day for every active
// member, ordered by name.
func CountDaily(s DailySnapshot) []DailyCounts {
	byMember := make(map[string]*DailyCounts, len(s.Members))
	out := make([]DailyCounts, 0, len(s.Members))
	for _, m := range s.Members {
		if !m.Active {
			continue
		}
		out = append(out, DailyCounts{MemberID: m.ID, Name: m.Name()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].MemberID < out[j].MemberID
	})
	for i := range out {
		byMember[out[i].MemberID] = &out[i]
	}

	for _, a := range s.Attacks {
		if a.CycleKey != s.CycleKey || a.DayIndex != s.DayIndex || !a.Finished() {
			continue
		}
		c, ok := byMember[a.MemberID]
		if !ok {
			continue
		}
		c.Damage += a.Damage
		if a.CarryOver {
			c.CarryCompleted++
			continue
		}
		c.Normal++
		if a.Status == StatusKilled {
			c.Earned++
		}
	}
	return out
}

// BuildDailyStatus renders one line per active member.
func BuildDailyStatus(s DailySnapshot) *RenderModel {
	counts := CountDaily(s)
	lines := make([]string, 0, len(counts))
	for _, c := range counts {
		lines = append(lines, fmt.Sprintf("%s  %d/%d  %d/%d", c.Name, c.Normal, DailyAttackAllowance, c.CarryCompleted, c.Earned))
	}
	return &RenderModel{
		Title:       fmt.Sprintf("凸状況 %s", FormatDayIndex(s.DayIndex)),
		Description: strings.Join(lines, "\n"),
		Color:       DailyPanelColor,
		Author:      s.CycleKey,
	}
}
