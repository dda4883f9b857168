package markerbuilder

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Keypoint is a grid point accepted by the local-contrast test, together
// with its descriptor once one has been built.
type Keypoint struct {
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Scale       float64 `json:"scale"`
	Orientation float64 `json:"orientation"`
	Descriptor  []int   `json:"descriptor"`
}

// GridStep returns the scan step for one axis. A zero step means the image
// is smaller than the grid resolution.
func GridStep(size, divisions int) int {
	if divisions <= 0 {
		return 0
	}
	return size / divisions
}

// Detect scans buf on a regular grid and returns the points whose gradient
// measure exceeds opt.GradientThreshold, in row-major scan order. A border
// of one grid step is never scanned. Adjacent accepted points are kept as
// they are; no suppression is applied.
//
// An image smaller than the grid resolution yields an empty slice.
func Detect(buf *PixelBuffer, opt Options) []Keypoint {
	keypoints := make([]Keypoint, 0)
	stepX := GridStep(buf.W, opt.GridDivisions)
	stepY := GridStep(buf.H, opt.GridDivisions)
	if stepX == 0 || stepY == 0 {
		return keypoints
	}

	var dirs [8]float64
	for y := stepY; y < buf.H-stepY; y += stepY {
		for x := stepX; x < buf.W-stepX; x += stepX {
			switch opt.Gradient {
			case GradientEightWay:
				buf.EightWayGradients(x, y, &dirs)
				idx := floats.MaxIdx(dirs[:])
				strongest := dirs[idx]
				if strongest <= opt.GradientThreshold {
					continue
				}
				keypoints = append(keypoints, Keypoint{
					X:           x,
					Y:           y,
					Scale:       1 + strongest/255,
					Orientation: float64(idx) * math.Pi / 4,
				})
			default:
				gx, gy, mag := buf.TwoNeighborGradient(x, y)
				if mag <= opt.GradientThreshold {
					continue
				}
				keypoints = append(keypoints, Keypoint{
					X:           x,
					Y:           y,
					Scale:       1,
					Orientation: math.Atan2(gy, gx),
				})
			}
		}
	}
	return keypoints
}
