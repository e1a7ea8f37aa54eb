package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// VisionEngine implements Engine using Google Cloud Vision document text detection.
type VisionEngine struct {
	client    *vision.ImageAnnotatorClient
	languages []string
}

// NewVisionEngine creates an engine with credentials from the environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
// The language hint set is fixed for the lifetime of the engine.
func NewVisionEngine(ctx context.Context, languages []string) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	// Check for inline credentials first
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapRecognizerError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapRecognizerError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapRecognizerError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &VisionEngine{
		client:    client,
		languages: languages,
	}, nil
}

// NewVisionEngineWithClient creates an engine with an explicit client (for testing).
func NewVisionEngineWithClient(client *vision.ImageAnnotatorClient, languages []string) *VisionEngine {
	return &VisionEngine{client: client, languages: languages}
}

// Recognize runs document text detection on a single page and returns
// paragraph-level observations in the normalized bottom-left contract.
func (e *VisionEngine) Recognize(ctx context.Context, img image.Image) ([]Observation, error) {
	const op = "Recognize"

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, WrapRecognizerError(op, err, "failed to encode page for Vision API")
	}

	var ictx *visionpb.ImageContext
	if len(e.languages) > 0 {
		ictx = &visionpb.ImageContext{LanguageHints: e.languages}
	}

	// Prepare the request
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: buf.Bytes()},
				Features: []*visionpb.Feature{
					{
						Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION,
					},
				},
				ImageContext: ictx,
			},
		},
	}

	resp, err := e.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapRecognizerError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapRecognizerError(op, ErrRecognitionFailed, "no response from Vision API")
	}

	pageResp := resp.Responses[0]
	if pageResp.Error != nil {
		return nil, WrapRecognizerError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API error: %s", pageResp.Error.Message))
	}

	bounds := img.Bounds()
	return annotationToObservations(pageResp.FullTextAnnotation, float64(bounds.Dx()), float64(bounds.Dy())), nil
}

// annotationToObservations flattens a full text annotation into
// paragraph-level observations in the normalized bottom-left contract.
func annotationToObservations(annotation *visionpb.TextAnnotation, imgW, imgH float64) []Observation {
	if annotation == nil || imgW == 0 || imgH == 0 {
		return nil
	}

	var obs []Observation
	for _, page := range annotation.Pages {
		for _, block := range page.Blocks {
			for _, paragraph := range block.Paragraphs {
				text := paragraphText(paragraph)
				if text == "" || paragraph.BoundingBox == nil {
					continue
				}
				if o, ok := polyToObservation(text, paragraph.BoundingBox, imgW, imgH); ok {
					obs = append(obs, o)
				}
			}
		}
	}
	return obs
}

// Close closes the underlying Vision client.
func (e *VisionEngine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// paragraphText reassembles a paragraph from its symbols, honoring
// detected breaks for spacing.
func paragraphText(p *visionpb.Paragraph) string {
	var sb strings.Builder
	for _, word := range p.Words {
		for _, symbol := range word.Symbols {
			sb.WriteString(symbol.Text)
			if symbol.Property != nil && symbol.Property.DetectedBreak != nil {
				switch symbol.Property.DetectedBreak.Type {
				case visionpb.TextAnnotation_DetectedBreak_SPACE,
					visionpb.TextAnnotation_DetectedBreak_SURE_SPACE:
					sb.WriteString(" ")
				}
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// polyToObservation converts a pixel-vertex bounding poly into the engine's
// normalized bottom-left box contract.
func polyToObservation(text string, poly *visionpb.BoundingPoly, imgW, imgH float64) (Observation, bool) {
	if len(poly.Vertices) == 0 {
		return Observation{}, false
	}
	minX, minY := float64(poly.Vertices[0].X), float64(poly.Vertices[0].Y)
	maxX, maxY := minX, minY
	for _, v := range poly.Vertices[1:] {
		x, y := float64(v.X), float64(v.Y)
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	return Observation{
		Text:   text,
		X:      minX / imgW,
		Y:      (imgH - maxY) / imgH, // flip to bottom-left origin
		Width:  (maxX - minX) / imgW,
		Height: (maxY - minY) / imgH,
	}, true
}
