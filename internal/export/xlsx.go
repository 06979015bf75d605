// Package export writes stored placement results to spreadsheets.
package export

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/cefrkit/placement/internal/store"
)

const (
	SummarySheet = "Summaries"
	LevelSheet   = "Levels"
)

// LevelSkills are the columns of the level sheet, in order.
var LevelSkills = []string{"reading", "listening", "vocabulary", "speaking", "writing"}

var summaryHeader = []any{
	"Username", "Skill", "Session", "Start level", "End level",
	"Answered", "Correct", "Incorrect", "Finished", "Updated (UTC)",
}

// Write renders rows as an XLSX workbook with one sheet of raw summaries
// and one sheet pivoting end levels per user.
func Write(w io.Writer, rows []store.SkillSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeSummaries(f, rows, header); err != nil {
		return err
	}
	if err := writeLevels(f, rows, header); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile writes the workbook to path.
func WriteFile(path string, rows []store.SkillSummary) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(out, rows); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeSummaries(f *excelize.File, rows []store.SkillSummary, header int) error {
	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.Username, r.Skill, r.SessionID, r.StartLevel, r.EndLevel,
			r.ItemsAnswered, r.CorrectTotal, r.IncorrectTotal, r.Finished,
			r.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(summaryHeader))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", last+"1", header); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "C", 22); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "J", "J", 20)
}

func writeLevels(f *excelize.File, rows []store.SkillSummary, header int) error {
	if _, err := f.NewSheet(LevelSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	levels := map[string]map[string]string{}
	for _, r := range rows {
		if levels[r.Username] == nil {
			levels[r.Username] = map[string]string{}
		}
		levels[r.Username][r.Skill] = r.EndLevel
	}
	users := make([]string, 0, len(levels))
	for u := range levels {
		users = append(users, u)
	}
	slices.Sort(users)

	head := []any{"Username"}
	for _, sk := range LevelSkills {
		head = append(head, sk)
	}
	if err := f.SetSheetRow(LevelSheet, "A1", &head); err != nil {
		return err
	}
	for i, u := range users {
		row := []any{u}
		for _, sk := range LevelSkills {
			row = append(row, levels[u][sk])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(LevelSheet, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(head))
	if err != nil {
		return err
	}
	return f.SetCellStyle(LevelSheet, "A1", last+"1", header)
}
