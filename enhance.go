package markerbuilder

import "math"

// Enhance applies a per-channel contrast stretch around mid-grey:
//
//	out = clamp(0, 255, (in-128)*factor + 128)
//
// R, G and B are transformed independently, alpha is copied unchanged.
// The input buffer is not modified.
func Enhance(src *PixelBuffer, factor float64) *PixelBuffer {
	dst := src.Clone()
	for i := 0; i < len(dst.Pix); i += 4 {
		for c := range 3 {
			dst.Pix[i+c] = contrastChannel(src.Pix[i+c], factor)
		}
	}
	return dst
}

func contrastChannel(v uint8, factor float64) uint8 {
	out := (float64(v)-128)*factor + 128
	out = max(0, min(255, out))
	// Halves round to even, like a canvas Uint8ClampedArray store.
	return uint8(math.RoundToEven(out))
}
