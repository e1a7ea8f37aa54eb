// Package redact paints flagged regions of a page opaque black.
package redact

import (
	"image"
	"image/color"
	"image/draw"
)

// Apply returns a new image identical to src except that every rectangle is
// filled with opaque black. The source image is never mutated, so a failure
// elsewhere in the batch leaves no half-redacted state behind. Overlapping
// rectangles compose as union coverage, and re-applying the same rectangles
// is a visual no-op.
func Apply(src image.Image, rects []image.Rectangle) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	black := image.NewUniform(color.Black)
	for _, r := range rects {
		draw.Draw(dst, r.Intersect(bounds), black, image.Point{}, draw.Src)
	}
	return dst
}
