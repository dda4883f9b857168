package markerbuilder

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// ITU-R BT.601 luma weights. Descriptors are only reproducible across
// implementations when these exact coefficients are used.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// PixelBuffer is a row-major RGBA8 pixel buffer. Stages treat it as
// immutable and return a new buffer when they transform pixels.
type PixelBuffer struct {
	W, H int
	Pix  []uint8 // Interleaved RGBA, len = W*H*4
}

// NewPixelBuffer allocates a zeroed (transparent black) buffer.
func NewPixelBuffer(w, h int) (*PixelBuffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBuffer, w, h)
	}
	return &PixelBuffer{W: w, H: h, Pix: make([]uint8, w*h*4)}, nil
}

// FromImage copies any image.Image into a PixelBuffer. Colours are
// un-premultiplied so that RGB values match what a canvas would report.
func FromImage(img image.Image) (*PixelBuffer, error) {
	bounds := img.Bounds()
	buf, err := NewPixelBuffer(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range buf.H {
			start := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.Pix[rgbaOffset(buf.W, 0, y):], nrgba.Pix[start:start+buf.W*4])
		}
		return buf, nil
	}
	for y := range buf.H {
		for x := range buf.W {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			off := rgbaOffset(buf.W, x, y)
			buf.Pix[off] = c.R
			buf.Pix[off+1] = c.G
			buf.Pix[off+2] = c.B
			buf.Pix[off+3] = c.A
		}
	}
	return buf, nil
}

// Image returns an *image.NRGBA view sharing the buffer's pixels.
func (b *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.W * 4,
		Rect:   image.Rect(0, 0, b.W, b.H),
	}
}

// Clone returns a deep copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	return &PixelBuffer{W: b.W, H: b.H, Pix: append([]uint8(nil), b.Pix...)}
}

// Valid reports whether the pixel slice matches the dimensions.
func (b *PixelBuffer) Valid() bool {
	return b != nil && b.W > 0 && b.H > 0 && len(b.Pix) == b.W*b.H*4
}

// InBounds reports whether (x, y) addresses a pixel.
func (b *PixelBuffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.W && y >= 0 && y < b.H
}

// Luminance returns the BT.601 luma of an RGB sample.
func Luminance(r, g, b uint8) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

// LuminanceAt returns the luma of the pixel at (x, y).
// The caller guards bounds.
func (b *PixelBuffer) LuminanceAt(x, y int) float64 {
	off := rgbaOffset(b.W, x, y)
	return Luminance(b.Pix[off], b.Pix[off+1], b.Pix[off+2])
}

func rgbaOffset(w, x, y int) int {
	return (y*w + x) * 4
}

// ============ GRADIENTS ============

// eightWayOffsets are the neighbours at angle k*pi/4 and distance 2,
// each component rounded to the nearest pixel.
var eightWayOffsets = [8][2]int{
	{2, 0}, {1, 1}, {0, 2}, {-1, 1},
	{-2, 0}, {-1, -1}, {0, -2}, {1, -1},
}

// TwoNeighborGradient returns the absolute luma differences to the right and
// lower neighbours of (x, y) and their Euclidean norm. The caller guarantees
// x+1 < W and y+1 < H.
func (b *PixelBuffer) TwoNeighborGradient(x, y int) (gx, gy, mag float64) {
	l := b.LuminanceAt(x, y)
	gx = math.Abs(b.LuminanceAt(x+1, y) - l)
	gy = math.Abs(b.LuminanceAt(x, y+1) - l)
	return gx, gy, math.Sqrt(gx*gx + gy*gy)
}

// EightWayGradients fills dst with the absolute luma differences between
// (x, y) and its eight compass neighbours. Neighbours outside the image
// contribute 0.
func (b *PixelBuffer) EightWayGradients(x, y int, dst *[8]float64) {
	l := b.LuminanceAt(x, y)
	for k, o := range eightWayOffsets {
		nx, ny := x+o[0], y+o[1]
		if !b.InBounds(nx, ny) {
			dst[k] = 0
			continue
		}
		dst[k] = math.Abs(b.LuminanceAt(nx, ny) - l)
	}
}
