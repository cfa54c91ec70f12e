package quality

import "image"

// EyeState is the best-effort closed-eye signal.
type EyeState string

const (
	// EyeStateUnavailable means no landmark capability was supplied.
	// This is a normal, fully supported state, not an error.
	EyeStateUnavailable EyeState = "unavailable"
	// EyeStateOpen means eye regions showed normal luminance variance.
	EyeStateOpen EyeState = "open"
	// EyeStateLikelyClosed means eye regions were unusually flat.
	EyeStateLikelyClosed EyeState = "likely_closed"
)

// EyeRegionFinder locates eye regions in a photo. It is an optional
// capability: callers that have no landmark detector simply pass nil.
type EyeRegionFinder interface {
	EyeRegions(img image.Image) ([]image.Rectangle, error)
}

// varianceFloor separates a flat (closed or obscured) eye region from a
// textured open one, on the 0-255 luma scale.
const varianceFloor = 40.0

// CheckEyes evaluates local luminance variance inside detected eye regions.
// A nil finder, a finder error, or zero detected regions all degrade to
// EyeStateUnavailable; the signal never blocks the primary blur score.
func CheckEyes(finder EyeRegionFinder, img image.Image) EyeState {
	if finder == nil {
		return EyeStateUnavailable
	}
	regions, err := finder.EyeRegions(img)
	if err != nil || len(regions) == 0 {
		return EyeStateUnavailable
	}

	for _, region := range regions {
		r := region.Intersect(img.Bounds())
		if r.Empty() {
			continue
		}
		if luminanceVariance(img, r) < varianceFloor {
			return EyeStateLikelyClosed
		}
	}
	return EyeStateOpen
}

func luminanceVariance(img image.Image, r image.Rectangle) float64 {
	var sum, sumSq float64
	var n int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			l := 0.299*float64(cr>>8) + 0.587*float64(cg>>8) + 0.114*float64(cb>>8)
			sum += l
			sumSq += l * l
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}
