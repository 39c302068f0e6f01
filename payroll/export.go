package payroll

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// CSVHeader is the column order downstream payroll imports rely on.
var CSVHeader = []string{
	"name", "position", "rate", "regularHours", "overtimeHours",
	"regularPay", "overtimePay", "grossPay", "tips", "totalPay",
}

// exportRow is one rendered line. Money and hours are preformatted with two
// decimals.
type exportRow struct {
	Name          string `csv:"name"`
	Position      string `csv:"position"`
	Rate          string `csv:"rate"`
	RegularHours  string `csv:"regularHours"`
	OvertimeHours string `csv:"overtimeHours"`
	RegularPay    string `csv:"regularPay"`
	OvertimePay   string `csv:"overtimePay"`
	GrossPay      string `csv:"grossPay"`
	Tips          string `csv:"tips"`
	TotalPay      string `csv:"totalPay"`
}

func (r exportRow) values() []any {
	return []any{r.Name, r.Position, r.Rate, r.RegularHours, r.OvertimeHours,
		r.RegularPay, r.OvertimePay, r.GrossPay, r.Tips, r.TotalPay}
}

func rows(r *Report) []*exportRow {
	out := make([]*exportRow, 0, len(r.Lines)+1)
	for _, l := range r.Lines {
		out = append(out, &exportRow{
			Name:          l.Name,
			Position:      l.Position,
			Rate:          l.RateCents.String(),
			RegularHours:  l.RegularHours().StringFixed(2),
			OvertimeHours: l.OvertimeHours().StringFixed(2),
			RegularPay:    l.RegularPayCents.String(),
			OvertimePay:   l.OvertimePayCents.String(),
			GrossPay:      l.GrossPayCents().String(),
			Tips:          l.TipsCents.String(),
			TotalPay:      l.TotalPayCents.String(),
		})
	}

	t := r.Totals
	out = append(out, &exportRow{
		Name:          "TOTAL",
		RegularHours:  LineItem{RegularMinutes: t.RegularMinutes}.RegularHours().StringFixed(2),
		OvertimeHours: LineItem{OvertimeMinutes: t.OvertimeMinutes}.OvertimeHours().StringFixed(2),
		RegularPay:    t.RegularPayCents.String(),
		OvertimePay:   t.OvertimePayCents.String(),
		GrossPay:      t.GrossPayCents.String(),
		Tips:          t.TipsCents.String(),
		TotalPay:      t.TotalPayCents.String(),
	})
	return out
}

// WriteCSV writes the report as CSV, one row per employee plus a TOTAL row.
func WriteCSV(w io.Writer, r *Report) error {
	if err := gocsv.Marshal(rows(r), w); err != nil {
		return fmt.Errorf("write payroll csv: %w", err)
	}
	return nil
}

// SheetName is the worksheet WriteXLSX fills.
const SheetName = "Payroll"

// WriteXLSX writes the same rows as WriteCSV into a single-sheet workbook.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("write payroll xlsx: %w", err)
	}

	header := make([]any, len(CSVHeader))
	for i, h := range CSVHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write payroll xlsx: %w", err)
	}

	for i, row := range rows(r) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("write payroll xlsx: %w", err)
		}
		values := row.values()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write payroll xlsx: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write payroll xlsx: %w", err)
	}
	return nil
}
