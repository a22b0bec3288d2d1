package chart

import (
	"fmt"
	"image/color"
)

// Palette is the fixed series palette. Projects are mapped onto it by name
// hash, so colors repeat once there are more projects than entries.
var Palette = []color.RGBA{
	{0x4F, 0x46, 0xE5, 0xFF},
	{0x10, 0xB9, 0x81, 0xFF},
	{0xF5, 0x9E, 0x0B, 0xFF},
	{0xEF, 0x44, 0x44, 0xFF},
	{0x8B, 0x5C, 0xF6, 0xFF},
	{0x06, 0xB6, 0xD4, 0xFF},
	{0xEC, 0x48, 0x99, 0xFF},
	{0x84, 0xCC, 0x16, 0xFF},
	{0xF9, 0x73, 0x16, 0xFF},
	{0x63, 0x66, 0xF1, 0xFF},
}

// OtherColor fills the folded "+N more" segment.
var OtherColor = color.RGBA{0x9C, 0xA3, 0xAF, 0xFF}

// ColorIndex hashes a project name onto a palette index.
func ColorIndex(project string) int {
	var h uint32
	for _, r := range project {
		h = h*31 + uint32(r)
	}
	return int(h % uint32(len(Palette)))
}

// ColorFor returns the color of a project. It depends on the name only.
func ColorFor(project string) color.RGBA {
	return Palette[ColorIndex(project)]
}

// Hex formats c as #RRGGBB.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
