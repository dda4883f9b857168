package markerbuilder

import (
	"fmt"
	"math"
	"runtime"
)

// GradientMode selects how the detector measures local contrast at a grid point.
type GradientMode int

const (
	// GradientTwoNeighbor compares the point with its right and lower neighbours
	// and combines both differences as a Euclidean norm.
	GradientTwoNeighbor GradientMode = iota
	// GradientEightWay compares the point with 8 neighbours two pixels away and
	// keeps the strongest difference together with its compass direction.
	GradientEightWay
)

func (m GradientMode) String() string {
	switch m {
	case GradientEightWay:
		return "eightway"
	default:
		return "twoneighbor"
	}
}

// RoundingMode controls how real values are mapped to integers, both for
// descriptor sample coordinates and for luminance buckets.
type RoundingMode int

const (
	// Truncate drops the fractional part toward negative infinity (floor).
	Truncate RoundingMode = iota
	// Round rounds to the nearest integer, halves toward positive infinity.
	Round
)

func (m RoundingMode) String() string {
	if m == Round {
		return "round"
	}
	return "truncate"
}

func (m RoundingMode) apply(v float64) float64 {
	if m == Round {
		return math.Floor(v + 0.5)
	}
	return math.Floor(v)
}

// RadiusMode lists the sampling radii used by the descriptor builder.
// Tap i uses Radii[i % len(Radii)].
type RadiusMode struct {
	Radii []float64
}

// Fixed samples every descriptor tap at the same distance r.
func Fixed(r float64) RadiusMode {
	return RadiusMode{Radii: []float64{r}}
}

// Cyclic samples tap i at radii[i % len(radii)].
func Cyclic(radii ...float64) RadiusMode {
	return RadiusMode{Radii: append([]float64(nil), radii...)}
}

func (r RadiusMode) at(i int) float64 {
	return r.Radii[i%len(r.Radii)]
}

type Options struct {
	// Number of grid divisions per axis. The scan step is floor(size/GridDivisions),
	// so larger values probe more points. Base 20, enhanced 30.
	GridDivisions int
	// A grid point becomes a keypoint when its gradient measure is strictly
	// greater than this value (luminance units, 0-255).
	GradientThreshold float64
	Gradient          GradientMode
	// Number of taps per descriptor. Every keypoint in a marker has this length.
	DescriptorLength int
	Radius           RadiusMode
	Rounding         RoundingMode
	// Luminance is divided by this step before rounding into a bucket.
	QuantizerStep float64
	// Contrast factor of the enhancement pre-pass. Values <= 0 or exactly 1
	// disable the pre-pass.
	Contrast float64
	// JPEG quality (1-100) of the image embedded in the .iset file.
	JPEGQuality int
	// JPEG quality of the optional standalone enhanced reference copy.
	EnhancedCopyQuality int
	DPI                 int
	// Longest side limit applied before detection. 0 keeps the source size.
	MaxDimension int
	// Descriptor workers. <= 0 uses GOMAXPROCS.
	Workers int
}

// BaseOptions reproduces the plain generator: coarse grid, two-neighbour
// gradient, fixed radius 5, truncated coordinates and 16-level buckets.
func BaseOptions() Options {
	return Options{
		GridDivisions:       20,
		GradientThreshold:   30,
		Gradient:            GradientTwoNeighbor,
		DescriptorLength:    128,
		Radius:              Fixed(5),
		Rounding:            Truncate,
		QuantizerStep:       16,
		Contrast:            0,
		JPEGQuality:         80,
		EnhancedCopyQuality: 95,
		DPI:                 72,
	}
}

// EnhancedOptions reproduces the contrast-enhanced generator: contrast 1.5,
// finer grid, eight-way gradient, radii cycling 1..8 and 8-level buckets.
func EnhancedOptions() Options {
	return Options{
		GridDivisions:       30,
		GradientThreshold:   25,
		Gradient:            GradientEightWay,
		DescriptorLength:    128,
		Radius:              Cyclic(1, 2, 3, 4, 5, 6, 7, 8),
		Rounding:            Round,
		QuantizerStep:       8,
		Contrast:            1.5,
		JPEGQuality:         90,
		EnhancedCopyQuality: 95,
		DPI:                 72,
	}
}

// PresetOptions returns the named preset ("base" or "enhanced").
func PresetOptions(name string) (Options, error) {
	switch name {
	case "base", "":
		return BaseOptions(), nil
	case "enhanced":
		return EnhancedOptions(), nil
	}
	return Options{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Validate reports the first field that cannot drive the pipeline.
func (o Options) Validate() error {
	switch {
	case o.GridDivisions <= 0:
		return fmt.Errorf("%w: grid divisions %d", ErrInvalidOptions, o.GridDivisions)
	case o.DescriptorLength <= 0:
		return fmt.Errorf("%w: descriptor length %d", ErrInvalidOptions, o.DescriptorLength)
	case len(o.Radius.Radii) == 0:
		return fmt.Errorf("%w: empty radius list", ErrInvalidOptions)
	case o.QuantizerStep <= 0:
		return fmt.Errorf("%w: quantizer step %v", ErrInvalidOptions, o.QuantizerStep)
	case o.JPEGQuality < 1 || o.JPEGQuality > 100:
		return fmt.Errorf("%w: jpeg quality %d", ErrInvalidOptions, o.JPEGQuality)
	case o.Contrast < 0:
		return fmt.Errorf("%w: contrast %v", ErrInvalidOptions, o.Contrast)
	case o.MaxDimension < 0:
		return fmt.Errorf("%w: max dimension %d", ErrInvalidOptions, o.MaxDimension)
	}
	return nil
}

func (o Options) enhances() bool {
	return o.Contrast > 0 && o.Contrast != 1
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}
