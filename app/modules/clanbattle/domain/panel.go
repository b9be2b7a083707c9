package clanbattledomain

import (
	"fmt"
	"sort"
	"strings"
)

// PanelSnapshot is the state a boss panel is projected from.
type PanelSnapshot struct {
	Boss    Boss
	Attacks []Attack
	Names   map[string]string
}

// BuildBossPanel renders the boss panel. Only attacks declared on the
// boss's current lap are listed.
func BuildBossPanel(s PanelSnapshot) *RenderModel {
	var inProgress, completed []Attack
	for _, a := range s.Attacks {
		if a.Slot != s.Boss.Slot || a.LapAtStart != s.Boss.Laps {
			continue
		}
		switch {
		case a.InProgress():
			inProgress = append(inProgress, a)
		case a.Status == StatusCompleted:
			completed = append(completed, a)
		}
	}
	sortByDeclaration(inProgress)
	sortByDeclaration(completed)

	var b strings.Builder
	b.WriteString("**凸済み**\n")
	for _, a := range completed {
		b.WriteString(s.entry(a))
	}
	b.WriteString("\n**凸中**\n")
	for _, a := range inProgress {
		b.WriteString(s.entry(a))
	}

	return &RenderModel{
		Title:       fmt.Sprintf("%s %d/%d", s.Boss.Name, s.Boss.HP, s.Boss.CurrentMax()),
		Description: strings.TrimRight(b.String(), "\n"),
		Color:       BossPanelColor,
		Author:      fmt.Sprintf("%d周目【%d段階】", s.Boss.Laps, s.Boss.Tier),
		Buttons:     bossButtons(s.Boss),
	}
}

func (s PanelSnapshot) entry(a Attack) string {
	name := s.Names[a.MemberID]
	if name == "" {
		name = a.MemberID
	}
	return fmt.Sprintf("%s %d\n", name, a.Damage)
}

func bossButtons(boss Boss) []Button {
	token := func(action Action) string {
		return ActionToken{Action: action, CycleKey: boss.CycleKey, Slot: boss.Slot, Lap: boss.Laps}.String()
	}
	return []Button{
		{Label: "通常凸", Style: ButtonPrimary, CustomID: token(ActionAttack)},
		{Label: "持越凸", Style: ButtonPrimary, CustomID: token(ActionCarryOver)},
		{Label: "完了", Style: ButtonSuccess, CustomID: token(ActionComplete)},
		{Label: "討伐", Style: ButtonSuccess, CustomID: token(ActionKill)},
	}
}

func sortByDeclaration(attacks []Attack) {
	sort.SliceStable(attacks, func(i, j int) bool {
		if !attacks[i].DeclaredAt.Equal(attacks[j].DeclaredAt) {
			return attacks[i].DeclaredAt.Before(attacks[j].DeclaredAt)
		}
		return attacks[i].ID.String() < attacks[j].ID.String()
	})
}
