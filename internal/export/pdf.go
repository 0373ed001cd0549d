package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/xelth-com/sowflow/internal/models"
)

// ApprovalHistoryPDF renders the approval-history sheet for one revision:
// document header, the per-stage decisions, and the audit changelog, with a
// QR code linking back to the review page. This is workflow paperwork, not
// a rendering of the SOW document itself.
func ApprovalHistoryPDF(sow *models.SOW, approvals []models.Approval, entries []models.ChangelogEntry, reviewURL string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Approval History - %s", sow.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Revision %d  |  Status: %s  |  Client: %s", sow.Version, sow.Status, sow.ClientName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Document ID: %s", sow.ID), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// QR code linking to the review page.
	if reviewURL != "" {
		qrPng, err := qrcode.Encode(reviewURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("qr encode: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("review-qr", opts, bytes.NewReader(qrPng))
		pdf.ImageOptions("review-qr", 165, 15, 30, 30, false, opts, 0, "")
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Stage Decisions", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, approval := range approvals {
		stageName := approval.StageID
		if approval.Stage != nil {
			stageName = approval.Stage.Name
		}
		line := fmt.Sprintf("%s: %s", stageName, approval.Status)
		if approval.ApproverID != nil {
			line += fmt.Sprintf(" by %s", *approval.ApproverID)
		}
		if approval.DecidedAt != nil {
			line += fmt.Sprintf(" on %s", approval.DecidedAt.Format("2006-01-02 15:04"))
		}
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		if approval.Comments != nil && *approval.Comments != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(0, 5, fmt.Sprintf("    \"%s\"", *approval.Comments), "", 1, "L", false, 0, "")
			pdf.SetFont("Arial", "", 10)
		}
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Changelog", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, entry := range entries {
		line := fmt.Sprintf("%s  %s  %s (by %s)",
			entry.CreatedAt.Format("2006-01-02 15:04"),
			entry.ChangeType,
			entry.FieldName,
			entry.UserID,
		)
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s", time.Now().UTC().Format(time.RFC1123)), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
