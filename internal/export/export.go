// Package export renders a group's expense history as downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"splittab/internal/models"
)

// header is the column layout shared by every export format.
var header = []string{"Date", "Description", "Category", "Amount", "Paid By", "Split Type", "Participants"}

// ExpensesCSV renders the expenses as CSV, one row per expense in the
// order given.
func ExpensesCSV(group *models.Group, expenses []*models.Expense) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range expenseRows(group, expenses) {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ExpensesXLSX renders the expenses as an Excel workbook with a single
// "Expenses" sheet.
func ExpensesXLSX(group *models.Group, expenses []*models.Expense) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Expenses"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to name header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for rowIdx, row := range expenseRows(group, expenses) {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("failed to name cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// expenseRows formats one row per expense. Member IDs resolve to display
// names through the group's member list; IDs of since-removed members
// pass through raw rather than dropping the row.
func expenseRows(group *models.Group, expenses []*models.Expense) [][]string {
	names := make(map[string]string, len(group.Members))
	for _, m := range group.Members {
		names[m.ID] = m.DisplayName()
	}
	displayName := func(userID string) string {
		if name, ok := names[userID]; ok {
			return name
		}
		return userID
	}

	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		participants := make([]string, len(e.ParticipantIDs))
		for i, id := range e.ParticipantIDs {
			participants[i] = displayName(id)
		}

		date := ""
		if e.CreatedAt != 0 {
			date = time.Unix(e.CreatedAt, 0).UTC().Format("2006-01-02 15:04")
		}

		rows = append(rows, []string{
			date,
			e.Description,
			e.Category,
			decimal.NewFromFloat(e.Amount).StringFixed(2),
			displayName(e.PayerID),
			e.SplitType,
			strings.Join(participants, ", "),
		})
	}
	return rows
}
