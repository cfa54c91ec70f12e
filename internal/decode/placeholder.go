package decode

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Placeholder renders a flat gray card with the given labels centered on it.
// It stands in for RAW files whose embedded preview is missing or
// undecodable, so the browsing pipeline never stalls on such files.
func Placeholder(width, height int, labels ...string) *image.RGBA {
	if width <= 0 {
		width = 320
	}
	if height <= 0 {
		height = 240
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0x3a, G: 0x3a, B: 0x3e, A: 0xff}), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 4
	startY := height/2 - lineHeight*len(labels)/2 + face.Metrics().Ascent.Ceil()

	for i, label := range labels {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.RGBA{R: 0xd8, G: 0xd8, B: 0xdc, A: 0xff}),
			Face: face,
		}
		textWidth := d.MeasureString(label).Ceil()
		d.Dot = fixed.P((width-textWidth)/2, startY+i*lineHeight)
		d.DrawString(label)
	}

	return img
}
