package report

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/safesight/safesight/internal/domain"
)

// PDFGenerator renders inspection reports as A4 PDFs.
type PDFGenerator struct {
	pageWidth    float64
	pageHeight   float64
	margin       float64
	contentWidth float64
}

// NewPDFGenerator creates a PDF generator with A4 defaults.
func NewPDFGenerator() *PDFGenerator {
	margin := 15.0
	pageWidth := 210.0 // A4 width in mm
	return &PDFGenerator{
		pageWidth:    pageWidth,
		pageHeight:   297.0,
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
	}
}

// Generate renders the report and writes it to w, returning bytes written.
func (g *PDFGenerator) Generate(ctx context.Context, data *Data, w io.Writer) (int64, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	pdf := fpdf.New("P", "mm", "A4", "")

	pdf.SetTitle("Site Inspection Report - "+data.Inspection.CompanyName, true)
	pdf.SetAuthor(data.Inspection.InspectorName, true)
	pdf.SetCreator("SafeSight", true)

	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, data)
	})

	g.addSummary(pdf, data)
	g.addPhotos(pdf, data)

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func (g *PDFGenerator) addSummary(pdf *fpdf.Fpdf, data *Data) {
	pdf.AddPage()

	insp := data.Inspection

	// Navy header bar
	r, gr, b := HexToRGB(BrandColors.Navy)
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(0, 0, g.pageWidth, 50, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetXY(g.margin, 16)
	pdf.Cell(0, 12, "Site Inspection Report")

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetXY(g.margin, 32)
	pdf.Cell(0, 8, insp.CompanyName)

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)

	pdf.SetXY(g.margin, 65)
	g.addLabelValue(pdf, "Inspector", insp.InspectorName)
	g.addLabelValue(pdf, "Started", FormatDateTime(insp.StartedAt))
	if insp.CompletedAt != nil {
		g.addLabelValue(pdf, "Completed", FormatDateTime(*insp.CompletedAt))
	}
	g.addLabelValue(pdf, "Status", insp.Status.String())

	// Findings summary table by risk level
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, "Findings Summary")
	pdf.Ln(10)

	counts := make(map[domain.RiskLevel]int)
	for _, p := range insp.Photos {
		for _, f := range p.Findings {
			counts[f.RiskLevel]++
		}
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	pdf.CellFormat(80, 8, "Risk Level", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Count", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	levels := []domain.RiskLevel{
		domain.RiskLevelHigh,
		domain.RiskLevelMedium,
		domain.RiskLevelLow,
		domain.RiskLevelUnknown,
	}
	for _, level := range levels {
		count := counts[level]
		if count == 0 && level == domain.RiskLevelUnknown {
			continue
		}
		r, gr, b := HexToRGB(RiskColor(level))
		pdf.SetFillColor(r, gr, b)
		pdf.CellFormat(5, 8, "", "1", 0, "C", true, 0, "")
		pdf.SetFillColor(255, 255, 255)
		pdf.CellFormat(75, 8, RiskLabel(level), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", count), "1", 1, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	pdf.CellFormat(80, 8, "Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", insp.TotalFindings()), "1", 1, "C", true, 0, "")
}

func (g *PDFGenerator) addPhotos(pdf *fpdf.Fpdf, data *Data) {
	photos := data.AnalyzedPhotos()
	if len(photos) == 0 {
		return
	}

	pdf.AddPage()
	g.addSectionHeader(pdf, "Photo Findings")

	for i, photo := range photos {
		if pdf.GetY() > 200 {
			pdf.AddPage()
		}

		g.addPhoto(pdf, data, photo, i+1)

		if i < len(photos)-1 {
			pdf.Ln(6)
			r, gr, b := HexToRGB(BrandColors.Border)
			pdf.SetDrawColor(r, gr, b)
			pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
			pdf.Ln(6)
		}
	}
}

func (g *PDFGenerator) addPhoto(pdf *fpdf.Fpdf, data *Data, photo domain.Photo, number int) {
	pdf.SetFont("Helvetica", "B", 12)
	r, gr, b := HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 8, fmt.Sprintf("Photo #%d", number))
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 9)
	r, gr, b = HexToRGB(BrandColors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 5, "Captured: "+FormatDateTime(photo.CapturedAt))
	pdf.Ln(7)

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)

	if img, ok := data.Images[photo.ID.String()]; ok && len(img) > 0 {
		g.embedImage(pdf, photo, img)
	}

	if len(photo.Findings) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 8, "No risks detected in this photo.")
		pdf.Ln(8)
		return
	}

	for _, finding := range photo.Findings {
		g.addFinding(pdf, finding)
	}
}

func (g *PDFGenerator) addFinding(pdf *fpdf.Fpdf, finding domain.Finding) {
	if pdf.GetY() > 250 {
		pdf.AddPage()
	}

	// Risk level marker bar
	r, gr, b := HexToRGB(RiskColor(finding.RiskLevel))
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(g.margin, pdf.GetY(), 3, 6, "F")

	pdf.SetX(g.margin + 6)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 6, RiskLabel(finding.RiskLevel))
	pdf.Ln(7)

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(g.contentWidth, 5, finding.Description, "", "L", false)
	pdf.Ln(2)

	if finding.CorrectiveAction != "" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.Cell(0, 5, "Corrective Action:")
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(g.contentWidth, 5, finding.CorrectiveAction, "", "L", false)
		pdf.Ln(1)
	}

	if finding.PreventiveAction != "" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.Cell(0, 5, "Preventive Action:")
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(g.contentWidth, 5, finding.PreventiveAction, "", "L", false)
	}

	pdf.Ln(4)
}

func (g *PDFGenerator) embedImage(pdf *fpdf.Fpdf, photo domain.Photo, img []byte) {
	imageType := "JPG"
	if photo.ContentType == "image/png" {
		imageType = "PNG"
	}

	name := photo.ID.String()
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(img))
	if pdf.Err() {
		// A corrupt image should not sink the whole report.
		pdf.ClearError()
		return
	}

	imgWidth := 120.0
	if pdf.GetY()+70 > g.pageHeight-20 {
		pdf.AddPage()
	}
	pdf.ImageOptions(name, g.margin, pdf.GetY(), imgWidth, 0, true, fpdf.ImageOptions{ImageType: imageType}, 0, "")
	pdf.Ln(4)
}

func (g *PDFGenerator) addSectionHeader(pdf *fpdf.Fpdf, title string) {
	r, gr, b := HexToRGB(BrandColors.Navy)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(0.5)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.Ln(8)

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
}

func (g *PDFGenerator) addLabelValue(pdf *fpdf.Fpdf, label, value string) {
	if value == "" {
		return
	}
	pdf.SetX(g.margin)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(35, 7, label+":")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 7, value)
	pdf.Ln(7)
}

func (g *PDFGenerator) addFooter(pdf *fpdf.Fpdf, data *Data) {
	pdf.SetY(-15)

	r, gr, b := HexToRGB(BrandColors.Border)
	pdf.SetDrawColor(r, gr, b)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	r, gr, b = HexToRGB(BrandColors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "", 8)

	pdf.Cell(0, 10, "Generated: "+FormatDateTime(data.GeneratedAt))

	pdf.SetX(-g.margin - 30)
	pdf.CellFormat(30, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}
