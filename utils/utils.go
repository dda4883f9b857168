package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"golang.org/x/image/draw"
)

// ============ IMAGE I/O ============

// ReadImage opens and decodes an image file. Any format registered with the
// image package is accepted (JPEG and PNG are linked in).
func ReadImage(path string) (image.Image, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("utils: open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	return DecodeImage(f)
}

func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("utils: decode image: %w", err)
	}
	return img, nil
}

// EncodeJPEG encodes img at the given quality, clamped to 1-100.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	quality = max(1, min(100, quality))
	var b bytes.Buffer
	if err := jpeg.Encode(&b, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("utils: encode jpeg: %w", err)
	}
	return b.Bytes(), nil
}

// SaveJPEG writes img to filename, creating parent directories.
func SaveJPEG(img image.Image, filename string, quality int) error {
	data, err := EncodeJPEG(img, quality)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("utils: create directory: %w", err)
	}
	return os.WriteFile(filename, data, 0o644)
}

// ResizeToFit scales img so that its longest side is at most maxSide,
// keeping the aspect ratio. Images that already fit are returned as is.
func ResizeToFit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if maxSide <= 0 || longest <= maxSide {
		return img
	}
	ratio := float64(maxSide) / float64(longest)
	nw := max(1, int(float64(w)*ratio))
	nh := max(1, int(float64(h)*ratio))
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// ============ PALETTE ============

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	if m == PaletteMethodKMeans {
		return "kmeans"
	}
	return "dominantcolor"
}

// ParsePaletteMethod maps "kmeans" to PaletteMethodKMeans and anything else
// to PaletteMethodDominantColor.
func ParsePaletteMethod(s string) PaletteMethod {
	if s == "kmeans" {
		return PaletteMethodKMeans
	}
	return PaletteMethodDominantColor
}

// ExtractPalette returns up to k representative colours of img, most
// frequent first. An empty kmeans result falls back to dominantcolor; the
// returned method is the one that produced the palette.
func ExtractPalette(img image.Image, k int, method PaletteMethod) ([]colorful.Color, PaletteMethod) {
	if k <= 0 {
		return nil, method
	}
	if method == PaletteMethodKMeans {
		if p := kmeansPalette(img, k); len(p) != 0 {
			return p, PaletteMethodKMeans
		}
	}
	return dominantPalette(img, k), PaletteMethodDominantColor
}

func dominantPalette(img image.Image, k int) []colorful.Color {
	found := dominantcolor.FindWeight(img, k)
	out := make([]colorful.Color, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, col.Clamped())
	}
	return out
}

func kmeansPalette(img image.Image, k int) []colorful.Color {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	// Subsample large references, kmeans cost grows with every observation.
	const maxSamples = 10000
	step := 1
	for (b.Dx()/step)*(b.Dy()/step) > maxSamples {
		step++
	}
	var dataset clusters.Observations
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255,
			})
		}
	}
	k = min(k, len(dataset))
	if k == 0 {
		return nil
	}
	cc, err := kmeans.New().Partition(dataset, k)
	if err != nil {
		return nil
	}
	slices.SortStableFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})
	out := make([]colorful.Color, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		out = append(out, colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped())
	}
	return out
}

// SortPaletteByBrightness orders colours from darkest to brightest by
// relative luminance.
func SortPaletteByBrightness(palette []colorful.Color) {
	slices.SortStableFunc(palette, func(a, b colorful.Color) int {
		la, lb := relativeLuminance(a), relativeLuminance(b)
		switch {
		case la < lb:
			return -1
		case la > lb:
			return 1
		}
		return 0
	})
}

func relativeLuminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// PaletteHex formats every colour as #rrggbb.
func PaletteHex(palette []colorful.Color) []string {
	out := make([]string, len(palette))
	for i, c := range palette {
		out[i] = c.Hex()
	}
	return out
}

// ColorSpread is the mean pairwise CIE Lab distance between palette
// entries. Flat, single-tone references score close to 0.
func ColorSpread(palette []colorful.Color) float64 {
	if len(palette) < 2 {
		return 0
	}
	sum, pairs := 0.0, 0
	for i := range palette {
		for j := i + 1; j < len(palette); j++ {
			sum += palette[i].DistanceLab(palette[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}
