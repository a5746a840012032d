package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// TimelinePDF renders the day's mode transitions as a printable report.
func (s *Service) TimelinePDF(ctx context.Context, companyID, companyName string, day time.Time) ([]byte, error) {
	events, err := s.Timeline(ctx, companyID, day)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Work Mode Timeline")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Company: %s", companyName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", day.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(35, 8, "Time")
	pdf.Cell(30, 8, "Mode")
	pdf.Cell(0, 8, "Reason")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	if len(events) == 0 {
		pdf.Cell(0, 8, "No transitions recorded.")
	}
	for _, event := range events {
		pdf.Cell(35, 7, event.CreatedAt.Format("15:04:05"))
		pdf.Cell(30, 7, event.Mode)
		pdf.Cell(0, 7, event.Reason)
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
