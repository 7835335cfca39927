// Package render draws certificates as a landscape A4 PDF and a PNG thumbnail.
package render

import (
	"fmt"
	"io"
	"strings"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"github.com/go-pdf/fpdf"
)

// Brand is the issuer identity printed on certificates.
type Brand struct {
	Name      string
	Tagline   string
	Team      string
	VerifyURL string
}

// DefaultBrand is used for any empty Brand field.
var DefaultBrand = Brand{
	Name:      "Maitexa",
	Tagline:   "Professional Coding Assessments",
	Team:      "Maitexa Assessment Team",
	VerifyURL: "maitexa.com/verify",
}

type rgb struct{ r, g, b int }

var (
	primary   = rgb{22, 78, 99}
	secondary = rgb{139, 92, 246}
	muted     = rgb{71, 85, 105}
	paper     = rgb{248, 250, 252}
	scoreFill = rgb{236, 254, 255}
)

// Renderer implements app.CertificateRenderer.
type Renderer struct {
	brand Brand
}

func NewRenderer(brand Brand) *Renderer {
	if brand.Name == "" {
		brand.Name = DefaultBrand.Name
	}
	if brand.Tagline == "" {
		brand.Tagline = DefaultBrand.Tagline
	}
	if brand.Team == "" {
		brand.Team = brand.Name + " Assessment Team"
	}
	if brand.VerifyURL == "" {
		brand.VerifyURL = DefaultBrand.VerifyURL
	}
	return &Renderer{brand: brand}
}

// Title is the heading for cert, chosen by eligibility.
func Title(cert domain.Certificate) string {
	if cert.Excellence {
		return "CERTIFICATE OF EXCELLENCE"
	}
	return "CERTIFICATE OF PARTICIPATION"
}

func achievementLines(brand Brand, cert domain.Certificate) [2]string {
	first := fmt.Sprintf("has successfully completed the %s Coding Assessment", brand.Name)
	if cert.Excellence {
		return [2]string{first, "and demonstrated exceptional technical proficiency"}
	}
	return [2]string{first, "and demonstrated commitment to technical growth"}
}

func initial(name string) string {
	for _, r := range strings.ToUpper(name) {
		return string(r)
	}
	return ""
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "N/A"
	}
	return v
}

// RenderPDF writes the certificate as a single-page landscape A4 PDF.
func (r *Renderer) RenderPDF(w io.Writer, cert domain.Certificate) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(Title(cert), true)
	pdf.SetAuthor(r.brand.Name, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	fill := func(c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
	draw := func(c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
	text := func(c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
	centered := func(s string, y float64) {
		s = tr(s)
		pdf.Text((pageW-pdf.GetStringWidth(s))/2, y, s)
	}

	fill(paper)
	pdf.Rect(0, 0, pageW, pageH, "F")
	draw(primary)
	pdf.SetLineWidth(2)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")
	draw(secondary)
	pdf.SetLineWidth(0.5)
	pdf.Rect(15, 15, pageW-30, pageH-30, "D")

	// header band
	fill(primary)
	pdf.Rect(20, 20, pageW-40, 25, "F")
	pdf.SetFillColor(255, 255, 255)
	pdf.Circle(35, 32.5, 7, "F")
	text(primary)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(31, 38, tr(initial(r.brand.Name)))
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.Text(50, 30, tr(strings.ToUpper(r.brand.Name)))
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(50, 38, tr(r.brand.Tagline))

	text(primary)
	pdf.SetFont("Helvetica", "B", 32)
	centered(Title(cert), 70)

	text(muted)
	pdf.SetFont("Helvetica", "", 14)
	centered("This certifies that", 85)

	text(secondary)
	pdf.SetFont("Helvetica", "B", 28)
	centered(cert.UserName, 105)

	text(muted)
	pdf.SetFont("Helvetica", "", 14)
	lines := achievementLines(r.brand, cert)
	centered(lines[0], 120)
	centered(lines[1], 130)

	fill(scoreFill)
	pdf.Rect(60, 145, pageW-120, 30, "F")
	draw(primary)
	pdf.SetLineWidth(1)
	pdf.Rect(60, 145, pageW-120, 30, "D")
	text(primary)
	pdf.SetFont("Helvetica", "B", 16)
	centered(fmt.Sprintf("SCORE: %d/%d (%d%%)", cert.Score, cert.TotalQuestions, cert.Percentage), 165)

	const detailsY = 190
	leftX, rightX := 40.0, pageW-120
	detail := func(x, y float64, label, value string) {
		text(muted)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(x, y, tr(label))
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Text(x, y+8, tr(value))
	}
	detail(leftX, detailsY, "Company:", orNA(cert.Company))
	detail(leftX, detailsY+20, "Institution:", orNA(cert.Institution))
	detail(rightX, detailsY, "Date of Completion:", app.FormatCertificateDate(cert.CompletedAt))
	detail(rightX, detailsY+20, "Certificate ID:", cert.CertificateID)

	draw(secondary)
	pdf.SetLineWidth(0.5)
	pdf.Line(50, pageH-35, 120, pageH-35)
	text(muted)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(50, pageH-25, "Authorized Signature")
	pdf.Text(50, pageH-20, tr(r.brand.Team))
	verify := tr("This certificate can be verified at " + r.brand.VerifyURL)
	pdf.Text(pageW-pdf.GetStringWidth(verify)-20, pageH-15, verify)

	if cert.Excellence {
		fill(secondary)
		pdf.Circle(pageW-40, 60, 15, "F")
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.Text(pageW-50, 58, "EXCELLENCE")
		pdf.Text(pageW-45, 65, fmt.Sprintf("%d%%+", app.CertificateThreshold))
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout certificate pdf: %w", err)
	}
	return pdf.Output(w)
}
