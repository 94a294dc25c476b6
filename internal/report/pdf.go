// Package report renders an analysis report as a paginated PDF. It is purely
// presentational: fields go in, bytes come out, no decisions are made here.
package report

import (
	"bytes"
	"fmt"
	"time"

	"codescope/internal/analysis"

	"github.com/jung-kurt/gofpdf"
)

// Fields is the flat record the renderer consumes. It mirrors the analysis
// report plus the originally submitted code and an optional title.
type Fields struct {
	Title                string                      `json:"title"`
	DetectedLanguage     string                      `json:"detected_language"`
	QualityScore         int                         `json:"quality_score"`
	MaintainabilityIndex int                         `json:"maintainability_index"`
	ReadabilityScore     int                         `json:"readability_score"`
	IntegrityCheck       string                      `json:"integrity_check"`
	PlagiarismCheck      string                      `json:"plagiarism_check"`
	OriginalCode         string                      `json:"original_code"`
	FinalCode            string                      `json:"final_code"`
	TargetComplexity     string                      `json:"target_complexity"`
	ErrorTable           []analysis.ErrorEntry       `json:"error_table"`
	CodeExplanation      []analysis.ExplanationEntry `json:"code_explanation"`
	Complexity           analysis.Complexity         `json:"complexity"`
}

// Render produces the PDF byte stream: title header, status fields, code
// blocks, error log, complexity tables, and the line-by-line explanation.
func Render(f *Fields) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	title := f.Title
	if title == "" {
		title = "Code Analysis Report"
	}

	// Title header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, time.Now().Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	// Status fields
	sectionHeader(pdf, "Summary")
	statusRow(pdf, "Detected Language", f.DetectedLanguage)
	statusRow(pdf, "Quality Score", fmt.Sprintf("%d / 100", f.QualityScore))
	statusRow(pdf, "Maintainability Index", fmt.Sprintf("%d / 100", f.MaintainabilityIndex))
	statusRow(pdf, "Readability Score", fmt.Sprintf("%d / 100", f.ReadabilityScore))
	statusRow(pdf, "Integrity Check", f.IntegrityCheck)
	statusRow(pdf, "Plagiarism Check", f.PlagiarismCheck)
	statusRow(pdf, "Target Complexity", f.TargetComplexity)
	pdf.Ln(4)

	// Code blocks
	if f.OriginalCode != "" {
		sectionHeader(pdf, "Submitted Code")
		codeBlock(pdf, f.OriginalCode)
		pdf.Ln(4)
	}
	if f.FinalCode != "" {
		sectionHeader(pdf, "Corrected Code")
		codeBlock(pdf, f.FinalCode)
		pdf.Ln(4)
	}

	// Error log
	sectionHeader(pdf, "Error Log")
	if len(f.ErrorTable) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, "No errors detected.", "", 1, "L", false, 0, "")
	} else {
		tableHeader(pdf, []string{"Line", "Error"}, []float64{20, 170})
		pdf.SetFont("Helvetica", "", 9)
		for _, row := range f.ErrorTable {
			pdf.CellFormat(20, 6, fmt.Sprintf("%d", row.Line), "1", 0, "C", false, 0, "")
			pdf.MultiCell(170, 6, row.Error, "1", "L", false)
		}
	}
	pdf.Ln(4)

	// Complexity tables
	sectionHeader(pdf, "Time Complexity")
	complexityTable(pdf, f.Complexity.Time)
	pdf.Ln(2)
	sectionHeader(pdf, "Space Complexity")
	complexityTable(pdf, f.Complexity.Space)
	pdf.Ln(4)

	// Explanation
	if len(f.CodeExplanation) > 0 {
		sectionHeader(pdf, "Line-by-Line Explanation")
		for _, entry := range f.CodeExplanation {
			pdf.SetFont("Courier", "B", 9)
			pdf.MultiCell(0, 5, fmt.Sprintf("%d: %s", entry.Line, entry.Code), "", "L", false)
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 5, entry.Explanation, "", "L", false)
			pdf.Ln(1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func sectionHeader(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(235, 235, 245)
	pdf.CellFormat(0, 8, text, "", 1, "L", true, 0, "")
	pdf.Ln(1)
}

func statusRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(55, 6, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, value, "", "L", false)
}

func codeBlock(pdf *gofpdf.Fpdf, code string) {
	pdf.SetFont("Courier", "", 8)
	pdf.SetFillColor(248, 248, 248)
	pdf.MultiCell(0, 4.5, code, "1", "L", true)
}

func tableHeader(pdf *gofpdf.Fpdf, labels []string, widths []float64) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(220, 220, 230)
	for i, label := range labels {
		pdf.CellFormat(widths[i], 7, label, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func complexityTable(pdf *gofpdf.Fpdf, bounds analysis.ComplexityBounds) {
	tableHeader(pdf, []string{"Best", "Average", "Worst"}, []float64{63, 63, 64})
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(63, 6, bounds.Best, "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 6, bounds.Average, "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 6, bounds.Worst, "1", 1, "C", false, 0, "")
	if bounds.Desc != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, bounds.Desc, "", "L", false)
	}
}
