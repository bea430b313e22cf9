package framecmp

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCompareIdentical(t *testing.T) {
	img := solid(8, 4, color.RGBA{R: 200, G: 10, B: 10, A: 255})

	res, err := Compare(img, img, Options{})
	require.NoError(t, err)
	assert.Equal(t, 32, res.Total())
	assert.Zero(t, res.Differing)
	assert.Zero(t, res.MaxDelta)
	assert.True(t, res.Within(0))
}

func TestCompareSinglePixel(t *testing.T) {
	ref := solid(10, 10, color.White)
	act := solid(10, 10, color.White)
	act.Set(3, 4, color.Black)

	res, err := Compare(act, ref, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Differing)
	assert.InDelta(t, 0.01, res.Ratio(), 1e-12)
	assert.Equal(t, uint8(255), res.MaxDelta)
	assert.True(t, res.Within(0.01))
	assert.False(t, res.Within(0.005))

	assert.Equal(t, color.NRGBA{R: 255, A: 255}, res.Diff.NRGBAAt(3, 4))
	assert.Equal(t, color.NRGBA{R: 127, G: 127, B: 127, A: 255}, res.Diff.NRGBAAt(0, 0))
	assert.Contains(t, res.String(), "1/100 pixels differ")
}

func TestCompareThreshold(t *testing.T) {
	ref := solid(4, 4, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	act := solid(4, 4, color.RGBA{R: 103, G: 100, B: 98, A: 255})

	res, err := Compare(act, ref, Options{Threshold: 3})
	require.NoError(t, err)
	assert.Zero(t, res.Differing)
	assert.Equal(t, uint8(3), res.MaxDelta)

	res, err = Compare(act, ref, Options{Threshold: 2})
	require.NoError(t, err)
	assert.Equal(t, 16, res.Differing)
}

func TestComparePremultipliedMatchesStraight(t *testing.T) {
	// 50% red, premultiplied and straight.
	pre := solid(2, 2, color.RGBA{R: 128, A: 128})
	straight := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			straight.SetNRGBA(x, y, color.NRGBA{R: 255, A: 128})
		}
	}

	res, err := Compare(pre, straight, Options{})
	require.NoError(t, err)
	assert.Zero(t, res.Differing)
}

func TestCompareSizeMismatch(t *testing.T) {
	ref := solid(10, 10, color.White)
	act := solid(20, 20, color.White)

	_, err := Compare(act, ref, Options{})
	require.ErrorIs(t, err, ErrSizeMismatch)
	assert.Contains(t, err.Error(), "20x20 vs reference 10x10")

	res, err := Compare(act, ref, Options{Resize: true})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Width)
	assert.Zero(t, res.Differing)
}

func TestCompareNil(t *testing.T) {
	_, err := Compare(nil, solid(1, 1, color.White), Options{})
	assert.Error(t, err)
}

func TestCompareFile(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "golden.png")
	ref := solid(6, 6, color.RGBA{G: 255, A: 255})
	require.NoError(t, WriteGolden(ref, golden))

	res, err := CompareFile(ref, golden, Options{})
	require.NoError(t, err)
	assert.Zero(t, res.Differing)

	_, err = CompareFile(ref, filepath.Join(dir, "missing.png"), Options{})
	assert.Error(t, err)
}

func TestSaveDiff(t *testing.T) {
	res, err := Compare(solid(3, 3, color.White), solid(3, 3, color.Black), Options{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "diff.png")
	require.NoError(t, res.SaveDiff(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, (&Result{}).SaveDiff(path))
}
