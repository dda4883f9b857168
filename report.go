package markerbuilder

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"github.com/setanarut/markerbuilder/utils"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Report summarises how well a marker is likely to track.
type Report struct {
	Width, Height int
	Features      int
	// Grid points scanned by the detector at GridDivisions and the share that
	// were accepted. Marker files do not record the divisions they were built
	// with, so a report on a loaded marker assumes the caller's options.
	GridDivisions int
	GridPoints    int
	Coverage   float64
	Degenerate bool

	MeanScale        float64
	DescriptorMean   float64
	DescriptorStdDev float64
	// Keypoint counts per 45 degree orientation sector.
	Orientations [8]float64

	Palette     []string
	ColorSpread float64
	Confidence  Confidence
}

// GridPoints returns the number of grid points Detect evaluates for a
// w x h image.
func GridPoints(w, h, divisions int) int {
	stepX, stepY := GridStep(w, divisions), GridStep(h, divisions)
	if stepX == 0 || stepY == 0 {
		return 0
	}
	axis := func(size, step int) int {
		n := 0
		for v := step; v < size-step; v += step {
			n++
		}
		return n
	}
	return axis(w, stepX) * axis(h, stepY)
}

// NewReport computes feature and colour statistics for m. palette may be nil.
func NewReport(m *MarkerSet, opt Options, palette []colorful.Color) Report {
	fs := m.Features
	r := Report{
		Width:      fs.Width,
		Height:     fs.Height,
		Features:      len(fs.Features),
		GridDivisions: opt.GridDivisions,
		GridPoints:    GridPoints(fs.Width, fs.Height, opt.GridDivisions),
	}
	r.Degenerate = r.GridPoints == 0
	if r.GridPoints > 0 {
		r.Coverage = float64(r.Features) / float64(r.GridPoints)
	}

	if len(fs.Features) > 0 {
		scales := make([]float64, 0, len(fs.Features))
		orientations := make([]float64, 0, len(fs.Features))
		var taps []float64
		for _, kp := range fs.Features {
			scales = append(scales, kp.Scale)
			o := math.Mod(kp.Orientation, 2*math.Pi)
			if o < 0 {
				o += 2 * math.Pi
			}
			orientations = append(orientations, o)
			for _, v := range kp.Descriptor {
				taps = append(taps, float64(v))
			}
		}
		r.MeanScale = stat.Mean(scales, nil)
		if len(taps) > 0 {
			r.DescriptorMean = stat.Mean(taps, nil)
		}
		if len(taps) > 1 {
			r.DescriptorStdDev = stat.StdDev(taps, nil)
		}

		slices.Sort(orientations)
		dividers := make([]float64, 9)
		for i := range 8 {
			dividers[i] = float64(i) * math.Pi / 4
		}
		dividers[8] = 2*math.Pi + 1e-9
		stat.Histogram(r.Orientations[:], dividers, orientations, nil)
	}

	if len(palette) > 0 {
		r.Palette = utils.PaletteHex(palette)
		r.ColorSpread = utils.ColorSpread(palette)
	}
	r.Confidence = r.rate()
	return r
}

// rate buckets the marker by feature count, grid coverage and descriptor
// variation. Markers with almost no texture cannot be localized reliably.
func (r Report) rate() Confidence {
	switch {
	case r.Features >= 100 && r.Coverage >= 0.25 && r.DescriptorStdDev >= 2:
		return ConfidenceHigh
	case r.Features >= 20:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// WriteTo prints the report in a human readable form.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "size:        %dx%d\n", r.Width, r.Height)
	fmt.Fprintf(&b, "features:    %d of %d grid points at %d divisions (%.1f%%)\n",
		r.Features, r.GridPoints, r.GridDivisions, r.Coverage*100)
	fmt.Fprintf(&b, "scale:       mean %.3f\n", r.MeanScale)
	fmt.Fprintf(&b, "descriptor:  mean %.2f stddev %.2f\n", r.DescriptorMean, r.DescriptorStdDev)
	fmt.Fprintf(&b, "orientation: %v\n", r.Orientations)
	fmt.Fprintf(&b, "palette:     %v (spread %.1f)\n", r.Palette, r.ColorSpread)
	fmt.Fprintf(&b, "confidence:  %s\n", r.Confidence)
	return b.WriteTo(w)
}
