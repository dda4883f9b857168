package markerbuilder

import (
	"math"

	"golang.org/x/sync/errgroup"
)

// BuildDescriptor samples luma at opt.DescriptorLength angularly spaced taps
// around kp and quantizes each sample into a bucket. Tap i sits at angle
// 2*pi*i/length and radius opt.Radius.at(i); its coordinates are mapped to
// pixels with opt.Rounding. Taps that land outside the image contribute 0.
func BuildDescriptor(buf *PixelBuffer, kp Keypoint, opt Options) []int {
	n := opt.DescriptorLength
	desc := make([]int, n)
	for i := range n {
		angle := float64(i) / float64(n) * 2 * math.Pi
		r := opt.Radius.at(i)
		sx := int(opt.Rounding.apply(float64(kp.X) + math.Cos(angle)*r))
		sy := int(opt.Rounding.apply(float64(kp.Y) + math.Sin(angle)*r))
		if !buf.InBounds(sx, sy) {
			continue
		}
		desc[i] = int(opt.Rounding.apply(buf.LuminanceAt(sx, sy) / opt.QuantizerStep))
	}
	return desc
}

// MaxBucket is the largest value a descriptor entry can take under opt.
func MaxBucket(opt Options) int {
	return int(opt.Rounding.apply(255 / opt.QuantizerStep))
}

// Describe returns a copy of keypoints with descriptors filled in. Work is
// spread over opt.Workers goroutines; every result is stored at its input
// index, so the output order is the scan order.
func Describe(buf *PixelBuffer, keypoints []Keypoint, opt Options) []Keypoint {
	out := make([]Keypoint, len(keypoints))
	var g errgroup.Group
	g.SetLimit(opt.workers())
	for i, kp := range keypoints {
		g.Go(func() error {
			kp.Descriptor = BuildDescriptor(buf, kp, opt)
			out[i] = kp
			return nil
		})
	}
	// The closures never return an error; the group only bounds concurrency.
	_ = g.Wait()
	return out
}
