package services

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/domain/models"
	"bookingcrm/internal/listing"
	"bookingcrm/internal/utils"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ExportPDF  = "pdf"
	ExportXLSX = "xlsx"

	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	bookingsSheet   = "Bookings"
	leadsSheet      = "Leads"

	// Indian digit grouping with the rupee sign
	rupeeNumFmt = `[$₹-4009]#,##,##0.00`
)

var exportHeader = []string{
	"ID", "Customer", "Contact", "Project", "Unit", "Booking Date", "Status",
	"Reference", "Total", "Net", "Received", "Outstanding",
}

var leadExportHeader = []string{"ID", "Name", "Phone", "Email", "Source", "Agent", "Status", "Created"}

// ExportService renders booking and lead lists as downloadable files.
type ExportService struct {
	Now func() time.Time
}

// Export is a rendered file ready to send.
type Export struct {
	Data        []byte
	Filename    string
	ContentType string
}

// exportTable is one list laid out for the PDF and XLSX writers. Cells hold
// strings, int64 ids, dates or decimal money.
type exportTable struct {
	name   string
	title  string
	sheet  string
	header []string
	widths []float64
	rows   [][]any
}

func (s ExportService) Bookings(rows []models.Booking, format string) (Export, error) {
	t := exportTable{
		name:   "bookings",
		title:  "BOOKINGS",
		sheet:  bookingsSheet,
		header: exportHeader,
		widths: []float64{10, 34, 26, 30, 14, 22, 20, 22, 26, 26, 24, 24},
	}
	for _, b := range rows {
		t.rows = append(t.rows, bookingCells(b))
	}
	return s.render(t, format)
}

// Leads renders leads with agent and status ids replaced by their names.
func (s ExportService) Leads(rows []models.Lead, agents, statuses []listing.ReferenceItem, format string) (Export, error) {
	agentNames, statusNames := referenceNames(agents), referenceNames(statuses)
	t := exportTable{
		name:   "leads",
		title:  "LEADS",
		sheet:  leadsSheet,
		header: leadExportHeader,
		widths: []float64{12, 50, 32, 56, 30, 34, 30, 28},
	}
	for _, l := range rows {
		t.rows = append(t.rows, []any{
			l.ID, l.Name, l.Phone, l.Email, l.Source,
			labelOf(agentNames, l.AgentID), labelOf(statusNames, l.StatusID), l.CreatedAt,
		})
	}
	return s.render(t, format)
}

func (s ExportService) render(t exportTable, format string) (Export, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	stamp := now.Format("20060102_150405")

	switch strings.ToLower(strings.TrimSpace(format)) {
	case ExportPDF, "":
		data, err := buildPDF(t, now)
		if err != nil {
			return Export{}, domain.InternalError{Msg: "render pdf", Err: err}
		}
		return Export{Data: data, Filename: t.name + "_" + stamp + ".pdf", ContentType: contentTypePDF}, nil
	case ExportXLSX, "excel":
		data, err := buildXLSX(t)
		if err != nil {
			return Export{}, domain.InternalError{Msg: "render xlsx", Err: err}
		}
		return Export{Data: data, Filename: t.name + "_" + stamp + ".xlsx", ContentType: contentTypeXLSX}, nil
	}
	return Export{}, domain.ValidationError{Field: "format", Msg: "must be pdf or xlsx"}
}

func bookingCells(b models.Booking) []any {
	return []any{
		b.ID,
		b.CustomerName,
		b.ContactNumber,
		b.ProjectName,
		b.Unit,
		b.BookingDate,
		b.Status,
		b.Reference.Role,
		b.TotalRevenue(),
		b.NetRevenue(),
		b.PaymentReceived,
		b.Outstanding(),
	}
}

func referenceNames(items []listing.ReferenceItem) map[string]string {
	out := make(map[string]string, len(items))
	for _, it := range items {
		out[it.ID] = it.Name
	}
	return out
}

func labelOf(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

// pdfText renders a cell for the PDF table.
func pdfText(v any) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return utils.FormatDate(x)
	case decimal.Decimal:
		// core PDF fonts have no rupee glyph
		return strings.Replace(utils.FormatRupees(x), "₹", "Rs ", 1)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func buildPDF(t exportTable, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(t.title, false)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, t.title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s, %d rows", utils.FormatDateTime(now), len(t.rows)))
	pdf.Ln(8)

	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range t.header {
			pdf.CellFormat(t.widths[i], 7, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	header()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, row := range t.rows {
		for i, v := range row {
			align := "L"
			if _, money := v.(decimal.Decimal); money {
				align = "R"
			}
			pdf.CellFormat(t.widths[i], 6, tr(truncate(pdfText(v), 28)), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildXLSX(t exportTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", t.sheet); err != nil {
		return nil, err
	}
	header := make([]any, len(t.header))
	for i, h := range t.header {
		header[i] = h
	}
	if err := f.SetSheetRow(t.sheet, "A1", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(t.header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(t.sheet, "A1", last, bold); err != nil {
		return nil, err
	}
	numFmt := rupeeNumFmt
	rupees, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, err
	}

	for i, row := range t.rows {
		values := make([]any, len(row))
		var moneyCols []int
		for j, v := range row {
			switch x := v.(type) {
			case time.Time:
				values[j] = utils.FormatDate(x)
			case decimal.Decimal:
				values[j] = x.InexactFloat64()
				moneyCols = append(moneyCols, j+1)
			default:
				values[j] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(t.sheet, cell, &values); err != nil {
			return nil, err
		}
		for _, col := range moneyCols {
			c, err := excelize.CoordinatesToCellName(col, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(t.sheet, c, c, rupees); err != nil {
				return nil, err
			}
		}
	}
	if err := f.SetColWidth(t.sheet, "B", "D", 24); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
