package markerbuilder

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// solidBuffer returns a w x h buffer filled with one opaque colour.
func solidBuffer(t *testing.T, w, h int, r, g, b uint8) *PixelBuffer {
	t.Helper()
	buf, err := NewPixelBuffer(w, h)
	if err != nil {
		t.Fatalf("NewPixelBuffer(%d, %d): %v", w, h, err)
	}
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = r, g, b, 255
	}
	return buf
}

func setPixel(buf *PixelBuffer, x, y int, r, g, b uint8) {
	off := rgbaOffset(buf.W, x, y)
	buf.Pix[off], buf.Pix[off+1], buf.Pix[off+2] = r, g, b
}

// stripeBuffer is 40x40 mid-grey with a black vertical stripe covering
// columns 19 and 20.
func stripeBuffer(t *testing.T) *PixelBuffer {
	t.Helper()
	buf := solidBuffer(t, 40, 40, 128, 128, 128)
	for y := range buf.H {
		setPixel(buf, 19, y, 0, 0, 0)
		setPixel(buf, 20, y, 0, 0, 0)
	}
	return buf
}

// texturedBuffer produces a deterministic, high-frequency pattern.
func texturedBuffer(t *testing.T, w, h int) *PixelBuffer {
	t.Helper()
	buf := solidBuffer(t, w, h, 0, 0, 0)
	for y := range h {
		for x := range w {
			v := uint8((x*37 + y*91 + x*y*7) % 256)
			setPixel(buf, x, y, v, uint8(255-int(v)), uint8((int(v)*3)%256))
		}
	}
	return buf
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reference.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}
