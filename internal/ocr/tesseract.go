package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine using a local Tesseract installation.
// It needs no network or credentials, at the cost of lower accuracy than
// the cloud engine on degraded scans.
type TesseractEngine struct {
	languages []string
}

// NewTesseractEngine creates a local engine. Languages use Tesseract naming
// ("eng", "deu"); the set is fixed for the lifetime of the engine.
func NewTesseractEngine(languages []string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{languages: languages}
}

// Recognize returns line-level observations in the normalized bottom-left
// contract. Tesseract reports pixel boxes with a top-left origin, so each
// box is flipped here.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) ([]Observation, error) {
	const op = "Recognize"

	if err := ctx.Err(); err != nil {
		return nil, WrapRecognizerError(op, err, "context done before recognition")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, WrapRecognizerError(op, err, "failed to encode page for Tesseract")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, WrapRecognizerError(op, err, fmt.Sprintf("failed to set languages %v", e.languages))
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, WrapRecognizerError(op, err, "failed to load page into Tesseract")
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, WrapRecognizerError(op, ErrRecognitionFailed, fmt.Sprintf("Tesseract call failed: %v", err))
	}

	bounds := img.Bounds()
	imgW := float64(bounds.Dx())
	imgH := float64(bounds.Dy())
	if imgW == 0 || imgH == 0 {
		return nil, nil
	}

	obs := make([]Observation, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		obs = append(obs, Observation{
			Text:   text,
			X:      float64(b.Box.Min.X) / imgW,
			Y:      (imgH - float64(b.Box.Max.Y)) / imgH,
			Width:  float64(b.Box.Dx()) / imgW,
			Height: float64(b.Box.Dy()) / imgH,
		})
	}
	return obs, nil
}
