// Package excel renders the shift report workbook.
package excel

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Strob0t/athena/internal/domain/alert"
	"github.com/Strob0t/athena/internal/domain/revenue"
)

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetAlerts  = "Alerts"
	SheetRevenue = "Revenue"
)

// AlertHeader is the first row of the alerts sheet.
var AlertHeader = []string{"ID", "Source", "Priority", "Status", "Message", "Created At"}

// Report is the data exported for one shift.
type Report struct {
	Hotel            string
	GeneratedAt      time.Time
	Alerts           []alert.Alert
	Revenue          revenue.Snapshot
	AnnualProjection decimal.Decimal
}

// Write renders r as an xlsx workbook to w.
func Write(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAlerts); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeAlerts(f, header, r.Alerts); err != nil {
		return err
	}
	if err := writeRevenue(f, header, r); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeAlerts(f *excelize.File, header int, alerts []alert.Alert) error {
	if err := setRow(f, SheetAlerts, 1, toAny(AlertHeader)); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(AlertHeader), 1)
	if err := f.SetCellStyle(SheetAlerts, "A1", last, header); err != nil {
		return fmt.Errorf("alerts header style: %w", err)
	}

	for i, a := range alerts {
		row := []any{a.ID, a.Source, string(a.Priority), string(a.Status), a.Message, a.CreatedAt.Format(time.RFC3339)}
		if err := setRow(f, SheetAlerts, i+2, row); err != nil {
			return err
		}
	}

	widths := []float64{8, 14, 10, 14, 48, 24}
	for i, wdt := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetAlerts, col, col, wdt); err != nil {
			return fmt.Errorf("alerts column width: %w", err)
		}
	}
	return nil
}

func writeRevenue(f *excelize.File, header int, r Report) error {
	if _, err := f.NewSheet(SheetRevenue); err != nil {
		return fmt.Errorf("create revenue sheet: %w", err)
	}

	rows := [][]any{
		{"Hotel", r.Hotel},
		{"Generated At", r.GeneratedAt.Format(time.RFC3339)},
		{"Total Revenue", r.Revenue.TotalRevenue.InexactFloat64()},
		{"Events", r.Revenue.EventCount},
		{"Last Label", r.Revenue.LastLabel},
		{"Annual Projection", r.AnnualProjection.InexactFloat64()},
	}
	for i, row := range rows {
		if err := setRow(f, SheetRevenue, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetRevenue, "A1", fmt.Sprintf("A%d", len(rows)), header); err != nil {
		return fmt.Errorf("revenue label style: %w", err)
	}
	if err := f.SetColWidth(SheetRevenue, "A", "B", 24); err != nil {
		return fmt.Errorf("revenue column width: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
