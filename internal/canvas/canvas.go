// Package canvas implements the drawing semantics shared by every view of a
// board: a fixed-size ARGB raster and the two edit operations (stroke
// segments and flood fills) that mutate it. Applying the same ordered edits
// to rasters of the same size always produces identical pixels, which is
// what lets independently replaying clients converge.
package canvas

import (
	"image"
	"image/color"
)

// White is the background of a fresh raster, matching the board color
// clients start from.
const White uint32 = 0xFFFFFFFF

// Raster is a width×height pixel buffer in ARGB order (alpha in the top
// byte). The zero value is not usable; create one with NewRaster.
type Raster struct {
	width  int
	height int
	pix    []uint32
}

// NewRaster returns a raster of the given dimensions with every pixel
// set to White.
func NewRaster(width, height int) *Raster {
	r := &Raster{
		width:  width,
		height: height,
		pix:    make([]uint32, width*height),
	}
	for i := range r.pix {
		r.pix[i] = White
	}
	return r
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int { return r.width }

// Height returns the raster height in pixels.
func (r *Raster) Height() int { return r.height }

// In reports whether (x, y) lies inside the raster.
func (r *Raster) In(x, y int) bool {
	return x >= 0 && x < r.width && y >= 0 && y < r.height
}

// At returns the ARGB pixel at (x, y). The point must be inside the raster.
func (r *Raster) At(x, y int) uint32 {
	return r.pix[y*r.width+x]
}

// Set writes the ARGB pixel at (x, y). Points outside the raster are
// ignored, never an error.
func (r *Raster) Set(x, y int, c uint32) {
	if !r.In(x, y) {
		return
	}
	r.pix[y*r.width+x] = c
}

// Image copies the raster into an *image.RGBA, for encoding.
func (r *Raster) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			p := r.At(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(p >> 16),
				G: uint8(p >> 8),
				B: uint8(p),
				A: uint8(p >> 24),
			})
		}
	}
	return img
}

// Opaque converts a wire color (signed 32-bit ARGB, e.g. -16777216 for
// black) into the fully opaque ARGB pixel value applied to rasters.
func Opaque(c int32) uint32 {
	return 0xFF000000 | uint32(c)&0x00FFFFFF
}
