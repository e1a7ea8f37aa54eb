package pdf

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAssembleProducesPDF(t *testing.T) {
	b := NewBuilder(90)

	out, err := b.Assemble([]image.Image{
		solidPage(100, 140, color.White),
		solidPage(100, 140, color.Black),
	})
	require.NoError(t, err)

	require.Greater(t, len(out), 4)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestAssembleSkipsMissingPages(t *testing.T) {
	b := NewBuilder(90)

	out, err := b.Assemble([]image.Image{
		solidPage(50, 70, color.White),
		nil,
		solidPage(50, 70, color.White),
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestAssembleZeroPagesIsError(t *testing.T) {
	b := NewBuilder(90)

	_, err := b.Assemble(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPages)

	_, err = b.Assemble([]image.Image{nil, nil})
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestScaleToWidthPreservesAspectRatio(t *testing.T) {
	img := solidPage(2400, 3100, color.White)

	scaled := scaleToWidth(img, 1200)

	assert.Equal(t, 1200, scaled.Bounds().Dx())
	assert.Equal(t, 1550, scaled.Bounds().Dy())
}

func TestScaleToWidthLeavesSmallImagesAlone(t *testing.T) {
	img := solidPage(800, 600, color.White)

	assert.Same(t, img, scaleToWidth(img, 1200))
}
