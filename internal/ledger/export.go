package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Caja"

var exportHeader = []string{"ID", "Date", "Type", "Payment method", "Description", "Amount", "Sale", "Member", "Subscription", "Enrollment"}

func (s *service) ExportCSV(ctx context.Context, from, to time.Time) ([]byte, error) {
	entries, err := s.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return entriesCSV(entries, s.loc)
}

func (s *service) ExportXLSX(ctx context.Context, from, to time.Time) ([]byte, error) {
	entries, err := s.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return entriesXLSX(entries, s.loc)
}

func entriesCSV(entries []Entry, loc *time.Location) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(exportHeader)

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
		_ = w.Write([]string{
			strconv.Itoa(e.ID),
			e.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			string(e.Type),
			e.PaymentMethod,
			e.Description,
			e.Amount.StringFixed(2),
			optionalID(e.SaleID),
			optionalID(e.MemberID),
			optionalID(e.SubscriptionID),
			optionalID(e.EnrollmentID),
		})
	}
	_ = w.Write([]string{"", "", "", "", "Total", total.StringFixed(2), "", "", "", ""})

	w.Flush()
	return buf.Bytes(), w.Error()
}

// sheetWriter writes cells of one sheet and keeps the first error. Calls
// after a failure are no-ops.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, v interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err == nil {
		err = w.f.SetCellValue(w.sheet, cell, v)
	}
	w.err = err
}

func (w *sheetWriter) row(row int, values ...interface{}) {
	for c, v := range values {
		w.set(c+1, row, v)
	}
}

func (w *sheetWriter) width(from, to string, width float64) {
	if w.err == nil {
		w.err = w.f.SetColWidth(w.sheet, from, to, width)
	}
}

func (w *sheetWriter) style(from, to string, style *excelize.Style) {
	if w.err != nil {
		return
	}
	id, err := w.f.NewStyle(style)
	if err == nil {
		err = w.f.SetCellStyle(w.sheet, from, to, id)
	}
	w.err = err
}

func entriesXLSX(entries []Entry, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	w := &sheetWriter{f: f, sheet: exportSheet}
	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	w.row(1, header...)

	total := decimal.Zero
	for r, e := range entries {
		total = total.Add(e.Amount)
		w.row(r+2,
			e.ID,
			e.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			string(e.Type),
			e.PaymentMethod,
			e.Description,
			e.Amount.InexactFloat64(),
			optionalID(e.SaleID),
			optionalID(e.MemberID),
			optionalID(e.SubscriptionID),
			optionalID(e.EnrollmentID),
		)
	}

	totalRow := len(entries) + 2
	w.set(5, totalRow, "Total")
	w.set(6, totalRow, total.InexactFloat64())

	w.width("A", "A", 8)
	w.width("B", "B", 20)
	w.width("C", "D", 16)
	w.width("E", "E", 32)
	w.width("F", "J", 12)

	w.style("A1", "J1", &excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	w.style("F2", "F"+strconv.Itoa(totalRow), &excelize.Style{NumFmt: 2})
	if w.err != nil {
		return nil, w.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optionalID(id *int) string {
	if id == nil {
		return ""
	}
	return strconv.Itoa(*id)
}
