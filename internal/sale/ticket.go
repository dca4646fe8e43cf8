package sale

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const ticketWidth = 80.0

// RenderTicket draws a narrow receipt for a sale with its items.
func RenderTicket(gymName string, s *Sale) ([]byte, error) {
	height := 70.0 + 6.0*float64(len(s.Items))
	if s.Observation != "" {
		height += 4.0 * float64(len([]rune(s.Observation))/40+1)
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: ticketWidth, Ht: height},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.SetAutoPageBreak(false, 5)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, tr(gymName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Ticket #%d", s.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, s.CreatedAt.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	if s.ClientName != "" {
		pdf.CellFormat(0, 5, tr("Cliente: "+s.ClientName), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(34, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(8, 5, "Cant", "B", 0, "R", false, 0, "")
	pdf.CellFormat(14, 5, "P. unit", "B", 0, "R", false, 0, "")
	pdf.CellFormat(14, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 8)
	for _, item := range s.Items {
		pdf.CellFormat(34, 6, tr(item.ProductName), "", 0, "L", false, 0, "")
		pdf.CellFormat(8, 6, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(14, 6, item.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(14, 6, item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(56, 8, "TOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(14, 8, s.Total.StringFixed(2), "T", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 5, tr("Pago: "+s.PaymentMethod), "", 1, "L", false, 0, "")
	if s.Observation != "" {
		pdf.MultiCell(0, 4, tr(s.Observation), "", "L", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render ticket: %w", err)
	}
	return buf.Bytes(), nil
}
