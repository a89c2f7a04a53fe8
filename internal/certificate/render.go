package certificate

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	_ "golang.org/x/image/webp"
)

// Canvas size used when a template has no readable background.
const (
	blankWidth  = 1600
	blankHeight = 1131
)

// Fields is the text drawn onto a certificate.
type Fields struct {
	Name   string
	Course string
	Date   time.Time
}

// Renderer draws certificate PNGs from a template and a background image.
type Renderer struct {
	font *truetype.Font
}

// NewRenderer parses the TTF at fontPath, or the bundled Go font when the
// path is empty.
func NewRenderer(fontPath string) (*Renderer, error) {
	raw := goregular.TTF
	if fontPath != "" {
		b, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		raw = b
	}
	f, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse TTF: %w", err)
	}
	return &Renderer{font: f}, nil
}

func (r *Renderer) face(size int) font.Face {
	return truetype.NewFace(r.font, &truetype.Options{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// Render writes a PNG. Each text field is centred on its template
// coordinate. background may be nil for a blank white canvas.
func (r *Renderer) Render(w io.Writer, t Template, background io.Reader, f Fields) error {
	var dc *gg.Context
	if background != nil {
		img, _, err := image.Decode(background)
		if err != nil {
			return fmt.Errorf("decode background: %w", err)
		}
		dc = gg.NewContextForImage(img)
	} else {
		dc = gg.NewContext(blankWidth, blankHeight)
		dc.SetColor(color.White)
		dc.Clear()
	}

	size := t.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	dc.SetFontFace(r.face(size))
	if t.FontColor != "" {
		dc.SetHexColor(t.FontColor)
	} else {
		dc.SetColor(color.Black)
	}

	dc.DrawStringAnchored(f.Name, float64(t.NameX), float64(t.NameY), 0.5, 0.5)
	dc.DrawStringAnchored(f.Course, float64(t.CourseX), float64(t.CourseY), 0.5, 0.5)
	dc.DrawStringAnchored(f.Date.Format("January 2, 2006"), float64(t.DateX), float64(t.DateY), 0.5, 0.5)

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

// RenderBytes is Render into a buffer.
func (r *Renderer) RenderBytes(t Template, background io.Reader, f Fields) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, t, background, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
