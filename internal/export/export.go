// Package export composes rendered chart surfaces into a single image.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/boddenberg/timesheet-charts-go/internal/chart"
)

// Margin is the fixed spacing around and between panels.
const Margin = 16

// TitleHeight is the vertical space reserved for a panel title.
const TitleHeight = chart.LineHeight + 6

var (
	background = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	ink        = color.RGBA{0x11, 0x18, 0x27, 0xFF}
	muted      = color.RGBA{0x6B, 0x72, 0x80, 0xFF}
)

// Panel is one titled chart surface.
type Panel struct {
	Title string
	Image image.Image
}

// Height returns the composite height for panels: a header line and a
// metadata line, then every panel's title and native height, each block
// separated by Margin.
func Height(panels []Panel) int {
	h := Margin + 2*TitleHeight
	for _, p := range panels {
		h += Margin + TitleHeight + p.Image.Bounds().Dy()
	}
	return h + Margin
}

// Width returns the composite width: the widest panel plus side margins.
func Width(panels []Panel, header, meta string) int {
	w := max(chart.TextWidth(header), chart.TextWidth(meta))
	for _, p := range panels {
		w = max(w, p.Image.Bounds().Dx(), chart.TextWidth(p.Title))
	}
	return w + 2*Margin
}

// Compose stacks panels vertically under a header and a metadata line.
// Panels are copied at their native resolution.
func Compose(panels []Panel, header, meta string) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, Width(panels, header, meta), Height(panels)))
	chart.FillRect(dst, dst.Bounds(), background)

	y := Margin
	chart.DrawText(dst, Margin, y+chart.LineHeight, header, ink)
	y += TitleHeight
	chart.DrawText(dst, Margin, y+chart.LineHeight, meta, muted)
	y += TitleHeight

	for _, p := range panels {
		y += Margin
		chart.DrawText(dst, Margin, y+chart.LineHeight, p.Title, ink)
		y += TitleHeight

		b := p.Image.Bounds()
		r := image.Rect(Margin, y, Margin+b.Dx(), y+b.Dy())
		draw.Draw(dst, r, p.Image, b.Min, draw.Src)
		y += b.Dy()
	}
	return dst
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// PNG returns img encoded as PNG bytes.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
