// Package pdf builds the paginated artifact from redacted page images and
// flattens imported PDF documents back into page rasters.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/tiff" // pdfcpu can hand back TIFF page images

	"github.com/rs/zerolog"

	"medscan/internal/logger"
)

// ErrNoPages is returned when no input page could be placed into the artifact.
var ErrNoPages = errors.New("artifact would have zero pages")

// Builder assembles page images into a single paginated PDF artifact.
type Builder struct {
	jpegQuality int
	log         zerolog.Logger
}

// NewBuilder creates a builder. Pages are embedded as JPEG at the given
// quality, which is shared with the model-attachment encoding so the artifact
// and what the model sees stay legibility-equivalent.
func NewBuilder(jpegQuality int) *Builder {
	return &Builder{
		jpegQuality: jpegQuality,
		log:         logger.WithComponent("pdf"),
	}
}

// Assemble produces one visual page per input image, in input order. A page
// that cannot be encoded is skipped rather than aborting the artifact,
// mirroring the recognizer's per-page fault tolerance. Only a fully empty
// result is an error.
func (b *Builder) Assemble(images []image.Image) ([]byte, error) {
	const op = "Assemble"

	var readers []io.Reader
	for i, img := range images {
		if img == nil {
			b.log.Warn().Int("page", i+1).Msg("Skipping missing page image")
			continue
		}
		var page bytes.Buffer
		if err := jpeg.Encode(&page, img, &jpeg.Options{Quality: b.jpegQuality}); err != nil {
			b.log.Warn().Err(err).Int("page", i+1).Msg("Skipping unencodable page image")
			continue
		}
		readers = append(readers, bytes.NewReader(page.Bytes()))
	}

	if len(readers) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoPages)
	}

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, pdfcpu.DefaultImportConfig(), nil); err != nil {
		return nil, fmt.Errorf("%s: importing page images: %w", op, err)
	}
	return out.Bytes(), nil
}

// ExtractPageImages flattens a scanned PDF into per-page raster images in
// page order, each scaled to targetWidth pixels wide. Pages without an
// extractable image are skipped.
func ExtractPageImages(rs io.ReadSeeker, targetWidth int) ([]image.Image, error) {
	const op = "ExtractPageImages"

	pageImages, err := api.ExtractImagesRaw(rs, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: extracting page images: %w", op, err)
	}

	type numbered struct {
		pageNr int
		img    image.Image
	}
	var pages []numbered
	for _, byObj := range pageImages {
		for _, raw := range byObj {
			img, _, err := image.Decode(raw)
			if err != nil {
				continue
			}
			pages = append(pages, numbered{pageNr: raw.PageNr, img: scaleToWidth(img, targetWidth)})
		}
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].pageNr < pages[j].pageNr })

	out := make([]image.Image, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.img)
	}
	return out, nil
}

// scaleToWidth resizes an image to the fixed import width, preserving aspect
// ratio. Images already at or below the target are returned unchanged.
func scaleToWidth(img image.Image, targetWidth int) image.Image {
	bounds := img.Bounds()
	if targetWidth <= 0 || bounds.Dx() <= targetWidth {
		return img
	}
	targetHeight := bounds.Dy() * targetWidth / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
