// Package framecmp compares rendered frames with golden images. Canvas
// misuse does not crash a backend; it shows up as wrong pixels, so golden
// comparison is how rendered output is checked.
package framecmp

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ErrSizeMismatch is returned when the images differ in size and resizing
// is off.
var ErrSizeMismatch = errors.New("framecmp: image sizes differ")

// Options tune a comparison.
type Options struct {
	// Threshold is the largest per-channel difference (0-255) still counted
	// as equal. It absorbs anti-aliasing noise between rasterizers.
	Threshold uint8
	// Resize scales the actual image to the reference size instead of
	// failing with ErrSizeMismatch.
	Resize bool
}

// Result describes how two images differ.
type Result struct {
	Width  int
	Height int
	// Differing is the number of pixels with a channel delta above the
	// threshold.
	Differing int
	// MaxDelta is the largest channel delta seen.
	MaxDelta uint8
	// Diff marks differing pixels red over a dimmed copy of the actual image.
	Diff *image.NRGBA
}

// Total returns the number of compared pixels.
func (r *Result) Total() int {
	return r.Width * r.Height
}

// Ratio returns the fraction of differing pixels in [0, 1].
func (r *Result) Ratio() float64 {
	if r.Total() == 0 {
		return 0
	}
	return float64(r.Differing) / float64(r.Total())
}

// Within reports whether the differing fraction is at most tolerance.
func (r *Result) Within(tolerance float64) bool {
	return r.Ratio() <= tolerance
}

// String summarizes the result.
func (r *Result) String() string {
	return fmt.Sprintf("%d/%d pixels differ (%.3f%%), max delta %d",
		r.Differing, r.Total(), r.Ratio()*100, r.MaxDelta)
}

// SaveDiff writes the diff image. The format follows the file extension.
func (r *Result) SaveDiff(path string) error {
	if r.Diff == nil {
		return errors.New("framecmp: no diff image")
	}
	if err := imaging.Save(r.Diff, path); err != nil {
		return fmt.Errorf("framecmp: save diff %s: %w", path, err)
	}
	return nil
}

// Compare compares actual with reference. Both are normalized to straight
// alpha first, so a premultiplied frame matches its decoded PNG.
func Compare(actual, reference image.Image, opts Options) (*Result, error) {
	if actual == nil || reference == nil {
		return nil, errors.New("framecmp: nil image")
	}
	ref := imaging.Clone(reference)
	act := imaging.Clone(actual)

	rw, rh := ref.Rect.Dx(), ref.Rect.Dy()
	if aw, ah := act.Rect.Dx(), act.Rect.Dy(); aw != rw || ah != rh {
		if !opts.Resize || rw == 0 || rh == 0 {
			return nil, fmt.Errorf("%w: %dx%d vs reference %dx%d", ErrSizeMismatch, aw, ah, rw, rh)
		}
		act = imaging.Resize(act, rw, rh, imaging.NearestNeighbor)
	}

	res := &Result{
		Width:  rw,
		Height: rh,
		Diff:   image.NewNRGBA(image.Rect(0, 0, rw, rh)),
	}
	for y := 0; y < rh; y++ {
		for x := 0; x < rw; x++ {
			a := act.NRGBAAt(x, y)
			b := ref.NRGBAAt(x, y)
			d := maxDelta(a, b)
			res.MaxDelta = max(res.MaxDelta, d)
			if d > opts.Threshold {
				res.Differing++
				res.Diff.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
				continue
			}
			gray := uint8((uint32(a.R) + uint32(a.G) + uint32(a.B)) / 6)
			res.Diff.SetNRGBA(x, y, color.NRGBA{R: gray, G: gray, B: gray, A: 255})
		}
	}
	return res, nil
}

// CompareFile compares actual with the image stored at path.
func CompareFile(actual image.Image, path string, opts Options) (*Result, error) {
	ref, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("framecmp: open reference %s: %w", path, err)
	}
	return Compare(actual, ref, opts)
}

// WriteGolden stores img as the reference image at path.
func WriteGolden(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("framecmp: write golden %s: %w", path, err)
	}
	return nil
}

func maxDelta(a, b color.NRGBA) uint8 {
	return max(absDiff(a.R, b.R), absDiff(a.G, b.G), absDiff(a.B, b.B), absDiff(a.A, b.A))
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
