package imagecodec

import (
	"image"
	"image/color"
)

// PlaceholderSize is the edge length of the square placeholder icon.
const PlaceholderSize = 64

var (
	placeholderBackground = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	placeholderFrame      = color.RGBA{R: 0x8e, G: 0x8e, B: 0x93, A: 0xff}
	placeholderSun        = color.RGBA{R: 0xff, G: 0xcc, B: 0x00, A: 0xff}
	placeholderHill       = color.RGBA{R: 0x34, G: 0xc7, B: 0x59, A: 0xff}
)

// drawPlaceholder paints a framed landscape: a sun in the upper left and a
// hill along the bottom.
func drawPlaceholder(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	border := size / 16
	if border < 1 {
		border = 1
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, placeholderBackground)
		}
	}

	// Sun.
	cx, cy, r := size/3, size/3, size/8
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, placeholderSun)
			}
		}
	}

	// Hill: a parabola peaking at two thirds of the height.
	peakX, peakY := size*2/3, size*3/5
	for x := border; x < size-border; x++ {
		dx := float64(x - peakX)
		top := peakY + int(dx*dx/float64(size))
		for y := top; y < size-border; y++ {
			if y >= border {
				img.SetRGBA(x, y, placeholderHill)
			}
		}
	}

	// Frame.
	for i := 0; i < size; i++ {
		for b := 0; b < border; b++ {
			img.SetRGBA(i, b, placeholderFrame)
			img.SetRGBA(i, size-1-b, placeholderFrame)
			img.SetRGBA(b, i, placeholderFrame)
			img.SetRGBA(size-1-b, i, placeholderFrame)
		}
	}

	return img
}
