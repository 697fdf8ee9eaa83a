package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// A4 portrait layout in millimeters. The header and footer are drawn
// with vector calls rather than captured, so they stay crisp regardless
// of the bitmap resolution.
const (
	pageWidthMM    = 210.0
	pageHeightMM   = 297.0
	marginMM       = 10.0
	headerHeightMM = 22.0
	footerHeightMM = 14.0

	usableWidthMM  = pageWidthMM - 2*marginMM
	usableHeightMM = pageHeightMM - 2*marginMM - headerHeightMM - footerHeightMM
)

// PDFOptions controls the decorative chrome around the dashboard bands.
type PDFOptions struct {
	Brand    string
	Title    string
	Operator string
	Now      time.Time
}

// ComposePDF slices the bitmap into page-sized bands and writes a
// paginated A4 document. The pixel-to-millimeter scale is derived once
// from the ratio of bitmap width to usable content width, so every page
// shows the full dashboard width.
func ComposePDF(w io.Writer, img image.Image, opts PDFOptions) error {
	if opts.Brand == "" {
		opts.Brand = "sitewatch"
	}
	if opts.Title == "" {
		opts.Title = "Network Telemetry Report"
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	scale := float64(img.Bounds().Dx()) / usableWidthMM // px per mm
	bandHeightPx := int(usableHeightMM * scale)
	bands, err := Paginate(img, bandHeightPx)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	total := len(bands)
	for i, band := range bands {
		pdf.AddPage()
		drawHeader(pdf, opts, i+1, total)

		var buf bytes.Buffer
		if err := png.Encode(&buf, band.Image); err != nil {
			return fmt.Errorf("export: encode band %d: %w", i+1, err)
		}
		name := fmt.Sprintf("band-%d", i+1)
		imgOpts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, imgOpts, &buf)
		heightMM := float64(band.Height) / scale
		pdf.ImageOptions(name, marginMM, marginMM+headerHeightMM, usableWidthMM, heightMM, false, imgOpts, 0, "")

		drawFooter(pdf, opts, i+1, total)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}

func drawHeader(pdf *fpdf.Fpdf, opts PDFOptions, page, total int) {
	pdf.SetXY(marginMM, marginMM)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(usableWidthMM/2, 8, opts.Brand, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(usableWidthMM/2, 8, fmt.Sprintf("Page %d of %d", page, total), "", 1, "R", false, 0, "")

	pdf.SetX(marginMM)
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(51, 65, 85)
	pdf.CellFormat(usableWidthMM/2, 6, opts.Title, "", 0, "L", false, 0, "")
	operator := opts.Operator
	if operator == "" {
		operator = "unknown operator"
	}
	pdf.CellFormat(usableWidthMM/2, 6,
		fmt.Sprintf("%s — %s", operator, opts.Now.Format("2006-01-02 15:04")),
		"", 1, "R", false, 0, "")

	y := marginMM + headerHeightMM - 2
	pdf.SetDrawColor(226, 232, 240)
	pdf.Line(marginMM, y, pageWidthMM-marginMM, y)
}

func drawFooter(pdf *fpdf.Fpdf, opts PDFOptions, page, total int) {
	y := pageHeightMM - marginMM - footerHeightMM + 4
	pdf.SetDrawColor(226, 232, 240)
	pdf.Line(marginMM, y-2, pageWidthMM-marginMM, y-2)

	pdf.SetXY(marginMM, y)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(148, 163, 184)
	pdf.CellFormat(usableWidthMM/3, 5,
		fmt.Sprintf("© %d %s", opts.Now.Year(), opts.Brand), "", 0, "L", false, 0, "")
	pdf.CellFormat(usableWidthMM/3, 5, "CONFIDENTIAL", "", 0, "C", false, 0, "")
	pdf.CellFormat(usableWidthMM/3, 5, fmt.Sprintf("page %d / %d", page, total), "", 0, "R", false, 0, "")
}
