package clanbattleapi

import (
	"fmt"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/xuri/excelize/v2"
)

const attackSheet = "Attacks"

var attackHeader = []any{
	"Day", "Member", "Boss", "Lap", "Tier", "Carry-over", "Status", "Damage", "Declared", "Completed",
}

// ExportAttacks writes one row per attack, in the order given, to a fresh
// workbook.
func ExportAttacks(attacks []clanbattledomain.Attack) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), attackSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(attackSheet, "A1", &attackHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, a := range attacks {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			clanbattledomain.FormatDayIndex(a.DayIndex),
			a.MemberID,
			a.Slot,
			a.LapAtStart,
			a.TierAtStart,
			yesNo(a.CarryOver),
			string(a.Status),
			a.Damage,
			a.DeclaredAt.UTC().Format(time.RFC3339),
			completedAt(a),
		}
		if err := f.SetSheetRow(attackSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func completedAt(a clanbattledomain.Attack) string {
	if a.CompletedAt == nil {
		return ""
	}
	return a.CompletedAt.UTC().Format(time.RFC3339)
}
