package markerbuilder

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestLuminance(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    float64
	}{
		{0, 0, 0, 0},
		{255, 0, 0, 0.299 * 255},
		{0, 255, 0, 0.587 * 255},
		{0, 0, 255, 0.114 * 255},
		{10, 20, 30, 0.299*10 + 0.587*20 + 0.114*30},
	}
	for _, tt := range tests {
		got := Luminance(tt.r, tt.g, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Luminance(%d, %d, %d) = %v, want %v", tt.r, tt.g, tt.b, got, tt.want)
		}
	}
}

func TestNewPixelBufferInvalid(t *testing.T) {
	for _, size := range [][2]int{{0, 5}, {5, 0}, {-1, 3}} {
		if _, err := NewPixelBuffer(size[0], size[1]); !errors.Is(err, ErrInvalidBuffer) {
			t.Errorf("NewPixelBuffer(%d, %d) error = %v, want ErrInvalidBuffer", size[0], size[1], err)
		}
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 13, 22))
	src.Set(11, 21, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	buf, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if buf.W != 3 || buf.H != 2 {
		t.Fatalf("size = %dx%d, want 3x2", buf.W, buf.H)
	}
	off := rgbaOffset(buf.W, 1, 1)
	got := buf.Pix[off : off+4]
	want := []uint8{200, 100, 50, 255}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel(1,1) = %v, want %v", got, want)
			break
		}
	}
}

func TestFromImageNRGBASubImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.SetNRGBA(2, 3, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	sub := src.SubImage(image.Rect(1, 1, 4, 4))

	buf, err := FromImage(sub)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	off := rgbaOffset(buf.W, 1, 2)
	if got := buf.Pix[off : off+4]; got[0] != 1 || got[1] != 2 || got[2] != 3 || got[3] != 4 {
		t.Errorf("pixel(1,2) = %v, want [1 2 3 4]", got)
	}
}

func TestPixelBufferImageSharesPixels(t *testing.T) {
	buf := solidBuffer(t, 2, 2, 9, 9, 9)
	img := buf.Image()
	img.SetNRGBA(1, 0, color.NRGBA{R: 42, A: 255})
	if buf.Pix[rgbaOffset(2, 1, 0)] != 42 {
		t.Error("Image() should share the pixel slice")
	}
}

func TestTwoNeighborGradient(t *testing.T) {
	buf := solidBuffer(t, 4, 4, 100, 100, 100)
	setPixel(buf, 2, 1, 130, 130, 130)
	setPixel(buf, 1, 2, 60, 60, 60)

	gx, gy, mag := buf.TwoNeighborGradient(1, 1)
	l := Luminance(100, 100, 100)
	wantX := math.Abs(Luminance(130, 130, 130) - l)
	wantY := math.Abs(Luminance(60, 60, 60) - l)
	if gx != wantX || gy != wantY {
		t.Errorf("gradient = (%v, %v), want (%v, %v)", gx, gy, wantX, wantY)
	}
	if want := math.Hypot(wantX, wantY); math.Abs(mag-want) > 1e-9 {
		t.Errorf("magnitude = %v, want %v", mag, want)
	}
}

func TestEightWayGradientsOutOfBounds(t *testing.T) {
	buf := solidBuffer(t, 3, 3, 0, 0, 0)
	setPixel(buf, 2, 0, 255, 255, 255)

	var dirs [8]float64
	buf.EightWayGradients(0, 0, &dirs)
	if dirs[0] != Luminance(255, 255, 255) {
		t.Errorf("east = %v, want %v", dirs[0], Luminance(255, 255, 255))
	}
	// West, north-west, north and south-west neighbours fall outside.
	for _, k := range []int{3, 4, 5, 6} {
		if dirs[k] != 0 {
			t.Errorf("dirs[%d] = %v, want 0 for out-of-bounds neighbour", k, dirs[k])
		}
	}
}
