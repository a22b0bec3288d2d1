package chart

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Face is the fixed-size face used for all chart text.
var Face = basicfont.Face7x13

// LineHeight is the pixel height of one text line.
const LineHeight = 13

// TextWidth measures s in pixels.
func TextWidth(s string) int {
	d := &font.Drawer{Face: Face}
	return d.MeasureString(s).Ceil()
}

// DrawText draws s with its baseline at (x, y).
func DrawText(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: Face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

// FillRect paints r with c.
func FillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}
