// Package ocr provides text recognition for scanned document pages.
//
// Recognition is split between a pluggable Engine, which runs the actual OCR,
// and the Recognizer, which owns the coordinate contract consumed by the rest
// of the pipeline. Engines report lines with bounding boxes normalized to
// [0,1] with the origin at the bottom-left corner of the page; the Recognizer
// converts those into pixel coordinates with a top-left origin.
//
// Two engines are provided:
//   - VisionEngine: Google Cloud Vision document text detection
//   - TesseractEngine: local Tesseract via gosseract
//
// The language set of an engine is fixed at construction time, not per call.
package ocr

import (
	"context"
	"image"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"medscan/internal/logger"
)

// PageBreakMarker separates per-page text in a batch transcript.
const PageBreakMarker = "\n\n— Page Break —\n\n"

// Observation is a single recognized line as reported by an Engine.
// The bounding box is normalized to [0,1] with origin bottom-left.
type Observation struct {
	Text   string
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Engine runs OCR on a decoded raster image at the highest accuracy the
// backend offers, with language correction enabled where supported.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]Observation, error)
}

// RecognizedLine is a line of text with its bounding box in pixel
// coordinates, origin top-left.
type RecognizedLine struct {
	Text string
	Box  image.Rectangle
}

// Recognizer converts engine observations into pixel-space lines and
// produces batch transcripts.
type Recognizer struct {
	engine Engine
	log    zerolog.Logger
}

// NewRecognizer wraps an engine.
func NewRecognizer(engine Engine) *Recognizer {
	return &Recognizer{
		engine: engine,
		log:    logger.WithComponent("ocr"),
	}
}

// Recognize returns all recognized lines of a single page with pixel-space
// bounding boxes. A nil image yields an empty line set, not an error, so a
// batch is never aborted by one undecodable page.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) ([]RecognizedLine, error) {
	const op = "Recognize"

	if img == nil {
		return nil, nil
	}

	obs, err := r.engine.Recognize(ctx, img)
	if err != nil {
		return nil, WrapRecognizerError(op, err, "engine recognition failed")
	}

	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	lines := make([]RecognizedLine, 0, len(obs))
	for _, o := range obs {
		lines = append(lines, RecognizedLine{
			Text: o.Text,
			Box:  toPixelRect(o, w, h),
		})
	}
	return lines, nil
}

// RecognizeText returns the plain text of a single page, one recognized
// line per output line.
func (r *Recognizer) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	lines, err := r.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.Text)
	}
	return strings.Join(texts, "\n"), nil
}

// RecognizeBatch recognizes every page and returns the joined transcript
// plus the per-page texts, in input order. A page whose recognition fails
// contributes empty text; the batch itself never fails.
func (r *Recognizer) RecognizeBatch(ctx context.Context, imgs []image.Image) (string, []string, error) {
	perPage := make([]string, len(imgs))
	for i, img := range imgs {
		text, err := r.RecognizeText(ctx, img)
		if err != nil {
			r.log.Warn().Err(err).Int("page", i+1).Msg("Page recognition failed, using empty text")
			continue
		}
		perPage[i] = text
	}
	return strings.Join(perPage, PageBreakMarker), perPage, nil
}

// toPixelRect maps a normalized bottom-left box onto the page's pixel grid
// with a top-left origin.
func toPixelRect(o Observation, imgW, imgH float64) image.Rectangle {
	x := o.X * imgW
	y := (1 - o.Y - o.Height) * imgH
	w := o.Width * imgW
	h := o.Height * imgH
	return image.Rect(
		int(math.Round(x)),
		int(math.Round(y)),
		int(math.Round(x+w)),
		int(math.Round(y+h)),
	)
}
