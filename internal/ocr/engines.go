package ocr

import (
	"context"
	"fmt"
)

// NewEngine constructs the engine named in configuration.
func NewEngine(ctx context.Context, name string, languages []string) (Engine, error) {
	const op = "NewEngine"

	switch name {
	case "vision":
		return NewVisionEngine(ctx, languages)
	case "tesseract":
		return NewTesseractEngine(languages), nil
	default:
		return nil, WrapRecognizerError(op, ErrUnknownEngine, fmt.Sprintf("engine %q", name))
	}
}
