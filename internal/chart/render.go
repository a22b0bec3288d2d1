package chart

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Plot margins around the bar area.
const (
	marginLeft   = 64
	marginRight  = 12
	marginTop    = 20
	marginBottom = 28
	gridLines    = 4
)

var (
	backgroundColor = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	gridColor       = color.RGBA{0xE5, 0xE7, 0xEB, 0xFF}
	axisColor       = color.RGBA{0x6B, 0x72, 0x80, 0xFF}
	textColor       = color.RGBA{0x37, 0x41, 0x51, 0xFF}
)

// NoDataLabel is drawn on charts with nothing to plot.
const NoDataLabel = "No data"

// PlotArea is the bar area of a w x h surface.
func PlotArea(w, h int) Rect {
	return Rect{
		X: marginLeft,
		Y: marginTop,
		W: math.Max(0, float64(w-marginLeft-marginRight)),
		H: math.Max(0, float64(h-marginTop-marginBottom)),
	}
}

// Render draws l onto dst, replacing its previous content. note, when set,
// is drawn in the top-right corner (used for the "+N more" indicator).
func Render(dst *image.RGBA, l *Layout, note string) {
	b := dst.Bounds()
	FillRect(dst, b, backgroundColor)

	if l == nil || l.Empty {
		w := TextWidth(NoDataLabel)
		DrawText(dst, b.Min.X+(b.Dx()-w)/2, b.Min.Y+(b.Dy()+LineHeight)/2, NoDataLabel, axisColor)
		return
	}

	area := l.Area
	left, right := int(area.X), int(math.Round(area.X+area.W))
	top, bottom := int(area.Y), int(math.Round(area.Y+area.H))

	for i := 0; i <= gridLines; i++ {
		frac := float64(i) / gridLines
		y := int(math.Round(area.Y + area.H - frac*area.H))
		if i > 0 {
			FillRect(dst, image.Rect(left, y, right, y+1), gridColor)
		}
		label := FormatValue(frac * l.Max)
		DrawText(dst, left-6-TextWidth(label), y+4, label, textColor)
	}

	for _, bar := range l.Bars {
		for _, s := range bar.Segments {
			FillRect(dst, pixelRect(s.Rect), s.Color)
		}
	}

	FillRect(dst, image.Rect(left, bottom, right, bottom+1), axisColor)
	FillRect(dst, image.Rect(left-1, top, left, bottom+1), axisColor)

	for _, lbl := range l.Labels {
		w := TextWidth(lbl.Key)
		x := int(math.Round(lbl.X)) - w/2
		if x+w > b.Max.X {
			x = b.Max.X - w
		}
		DrawText(dst, x, bottom+4+LineHeight, lbl.Key, textColor)
	}

	if note != "" {
		DrawText(dst, b.Max.X-marginRight-TextWidth(note), b.Min.Y+LineHeight+2, note, axisColor)
	}
}

// FormatValue renders an axis or hover value compactly.
func FormatValue(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case av >= 10_000:
		return fmt.Sprintf("%.0fk", v/1000)
	case av >= 100:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// pixelRect snaps r to whole pixels, keeping visible segments at least one
// pixel high.
func pixelRect(r Rect) image.Rectangle {
	x0, x1 := int(math.Round(r.X)), int(math.Round(r.X+r.W))
	y0, y1 := int(math.Round(r.Y)), int(math.Round(r.Y+r.H))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 && r.H > 0 {
		y0 = y1 - 1
	}
	return image.Rect(x0, y0, x1, y1)
}
