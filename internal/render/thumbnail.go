package render

import (
	"fmt"
	"image/color"
	"io"
	"sync"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	thumbWidth  = 842
	thumbHeight = 595
)

var (
	fontsOnce sync.Once
	regular   *truetype.Font
	bold      *truetype.Font
	fontsErr  error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regular, fontsErr = truetype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		bold, fontsErr = truetype.Parse(gobold.TTF)
	})
	return fontsErr
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func (c rgb) color() color.Color {
	return color.NRGBA{R: uint8(c.r), G: uint8(c.g), B: uint8(c.b), A: 255}
}

// RenderPNG writes a landscape thumbnail of the certificate.
func (r *Renderer) RenderPNG(w io.Writer, cert domain.Certificate) error {
	if err := loadFonts(); err != nil {
		return fmt.Errorf("load fonts: %w", err)
	}
	const wf, hf = float64(thumbWidth), float64(thumbHeight)
	dc := gg.NewContext(thumbWidth, thumbHeight)

	dc.SetColor(paper.color())
	dc.DrawRectangle(0, 0, wf, hf)
	dc.Fill()

	dc.SetColor(primary.color())
	dc.SetLineWidth(6)
	dc.DrawRectangle(14, 14, wf-28, hf-28)
	dc.Stroke()
	dc.SetColor(secondary.color())
	dc.SetLineWidth(1.5)
	dc.DrawRectangle(26, 26, wf-52, hf-52)
	dc.Stroke()

	dc.SetColor(primary.color())
	dc.DrawRectangle(40, 40, wf-80, 64)
	dc.Fill()
	dc.SetColor(color.White)
	dc.SetFontFace(face(bold, 30))
	dc.DrawStringAnchored(r.brand.Name, 64, 72, 0, 0.5)

	center := func(s string, f *truetype.Font, size, y float64, c color.Color) {
		dc.SetFontFace(face(f, size))
		dc.SetColor(c)
		dc.DrawStringAnchored(s, wf/2, y, 0.5, 0.5)
	}
	center(Title(cert), bold, 34, 160, primary.color())
	center("This certifies that", regular, 18, 210, muted.color())
	center(cert.UserName, bold, 36, 260, secondary.color())
	lines := achievementLines(r.brand, cert)
	center(lines[0], regular, 16, 305, muted.color())
	center(lines[1], regular, 16, 330, muted.color())

	dc.SetColor(scoreFill.color())
	dc.DrawRectangle(170, 360, wf-340, 56)
	dc.Fill()
	dc.SetColor(primary.color())
	dc.SetLineWidth(2)
	dc.DrawRectangle(170, 360, wf-340, 56)
	dc.Stroke()
	center(fmt.Sprintf("SCORE: %d/%d (%d%%)", cert.Score, cert.TotalQuestions, cert.Percentage), bold, 22, 388, primary.color())

	dc.SetFontFace(face(regular, 14))
	dc.SetColor(muted.color())
	dc.DrawString("Certificate ID: "+cert.CertificateID, 60, hf-60)
	dc.DrawStringAnchored(app.FormatCertificateDate(cert.CompletedAt), wf-60, hf-60, 1, 0)

	if cert.Excellence {
		dc.SetColor(secondary.color())
		dc.DrawCircle(wf-110, 160, 44)
		dc.Fill()
		dc.SetColor(color.White)
		dc.SetFontFace(face(bold, 12))
		dc.DrawStringAnchored("EXCELLENCE", wf-110, 152, 0.5, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%d%%+", app.CertificateThreshold), wf-110, 172, 0.5, 0.5)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
