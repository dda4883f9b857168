// Package markerbuilder generates natural-feature tracking markers from a
// reference image: a grid of local-contrast keypoints with fixed-length
// luminance descriptors, written as the .fset/.fset3/.iset file set that
// AR tracking runtimes load.
package markerbuilder

import (
	"errors"
	"fmt"
	"image"

	"github.com/setanarut/markerbuilder/utils"
)

type MarkerBuilder struct {
	InputImage image.Image
	// Source is the input after resizing, Buffer the same after the optional
	// contrast pre-pass. Detection and the embedded image both use Buffer.
	Source    *PixelBuffer
	Buffer    *PixelBuffer
	Keypoints []Keypoint
	Marker    *MarkerSet
}

func NewMarkerBuilder(input image.Image) *MarkerBuilder {
	return &MarkerBuilder{InputImage: input}
}

// Build runs resize -> enhance -> detect -> describe -> assemble. Nothing is
// written to disk.
func (mb *MarkerBuilder) Build(opt Options) error {
	if err := opt.Validate(); err != nil {
		return err
	}
	if mb.InputImage == nil {
		return fmt.Errorf("%w: no input image", ErrInvalidBuffer)
	}
	if err := mb.makePixelBuffer(opt.MaxDimension); err != nil {
		return err
	}
	mb.enhance(opt)
	mb.detect(opt)
	mb.Keypoints = Describe(mb.Buffer, mb.Keypoints, opt)

	marker, err := NewMarkerSet(mb.Buffer, mb.Keypoints, opt)
	if err != nil {
		return err
	}
	mb.Marker = marker
	return nil
}

func (mb *MarkerBuilder) makePixelBuffer(maxDimension int) error {
	img := utils.ResizeToFit(mb.InputImage, maxDimension)
	if img != mb.InputImage {
		Logger().Debug("reference resized",
			"from", mb.InputImage.Bounds().Size(), "to", img.Bounds().Size())
	}
	buf, err := FromImage(img)
	if err != nil {
		return err
	}
	mb.Source = buf
	mb.Buffer = buf
	return nil
}

func (mb *MarkerBuilder) enhance(opt Options) {
	if !opt.enhances() {
		return
	}
	mb.Buffer = Enhance(mb.Source, opt.Contrast)
	Logger().Debug("contrast pre-pass applied", "factor", opt.Contrast)
}

func (mb *MarkerBuilder) detect(opt Options) {
	stepX := GridStep(mb.Buffer.W, opt.GridDivisions)
	stepY := GridStep(mb.Buffer.H, opt.GridDivisions)
	mb.Keypoints = Detect(mb.Buffer, opt)
	switch {
	case stepX == 0 || stepY == 0:
		Logger().Warn("image smaller than grid resolution, marker has no features",
			"width", mb.Buffer.W, "height", mb.Buffer.H, "divisions", opt.GridDivisions)
	case len(mb.Keypoints) == 0:
		Logger().Warn("no grid point exceeds the gradient threshold",
			"threshold", opt.GradientThreshold)
	default:
		Logger().Info("features detected", "count", len(mb.Keypoints),
			"gradient", opt.Gradient, "stepX", stepX, "stepY", stepY)
	}
}

// Write persists the marker built by Build.
func (mb *MarkerBuilder) Write(paths Paths) error {
	if mb.Marker == nil {
		return errors.New("markerbuilder: Write called before Build")
	}
	if err := mb.Marker.Write(paths); err != nil {
		return err
	}
	Logger().Info("marker written", "fset", paths.FSet, "fset3", paths.FSet3, "iset", paths.ISet)
	return nil
}

// WriteEnhancedCopy saves the buffer features were detected on as a
// standalone JPEG.
func (mb *MarkerBuilder) WriteEnhancedCopy(path string, quality int) error {
	if mb.Buffer == nil {
		return errors.New("markerbuilder: WriteEnhancedCopy called before Build")
	}
	if err := utils.SaveJPEG(mb.Buffer.Image(), path, quality); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputDirectoryUnwritable, err)
	}
	return nil
}

// Generate loads source, builds a marker and writes it to paths. All
// computation finishes before the first file is touched.
func Generate(source string, paths Paths, opt Options) (*MarkerBuilder, error) {
	img, err := utils.ReadImage(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceImageUnreadable, err)
	}
	mb := NewMarkerBuilder(img)
	if err := mb.Build(opt); err != nil {
		return nil, err
	}
	if err := mb.Write(paths); err != nil {
		return nil, err
	}
	return mb, nil
}
