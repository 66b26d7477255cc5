// Package report renders leaderboards as spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/mauv0809/riichi-ledger/internal/leaderboard"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Leaderboard"

var header = []any{"Rank", "Player", "Points", "Games"}

// Rows returns the leaderboard as spreadsheet rows, header first. Entries
// are sorted for display; players level on points share a rank.
func Rows(entries []leaderboard.Entry) [][]any {
	sorted := append([]leaderboard.Entry(nil), entries...)
	leaderboard.Sort(sorted)

	rows := make([][]any, 0, len(sorted)+1)
	rows = append(rows, header)
	rank := 0
	for i, e := range sorted {
		if i == 0 || e.TotalPoints != sorted[i-1].TotalPoints {
			rank = i + 1
		}
		name := e.DisplayName
		if name == "" {
			name = e.UserID
		}
		rows = append(rows, []any{rank, name, e.TotalPoints, e.GamesPlayed})
	}
	return rows
}

// WriteLeaderboard writes entries to w as an xlsx workbook with a single
// sheet. title is stored as the workbook title.
func WriteLeaderboard(w io.Writer, title string, entries []leaderboard.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: title, Creator: "riichi-ledger"}); err != nil {
		return fmt.Errorf("failed to set workbook properties: %w", err)
	}

	for i, row := range Rows(entries) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "D1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "B", 24); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
