package ocr_test

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"medscan/internal/ocr"
)

// Example demonstrates recognizing a single scanned page.
func Example() {
	// Create context with timeout for recognition
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Create the cloud engine - credentials come from the environment
	engine, err := ocr.NewVisionEngine(ctx, []string{"en"})
	if err != nil {
		log.Fatalf("Failed to create OCR engine: %v", err)
	}
	defer engine.Close()

	recognizer := ocr.NewRecognizer(engine)

	f, err := os.Open("scan_page_1.png")
	if err != nil {
		log.Fatalf("Failed to open scan: %v", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		log.Fatalf("Failed to decode scan: %v", err)
	}

	lines, err := recognizer.Recognize(ctx, img)
	if err != nil {
		log.Fatalf("Recognition failed: %v", err)
	}

	for _, line := range lines {
		fmt.Printf("%v: %s\n", line.Box, line.Text)
	}
}

// ExampleRecognizer_RecognizeBatch demonstrates building a transcript from
// several pages at once.
func ExampleRecognizer_RecognizeBatch() {
	ctx := context.Background()

	// The local engine needs no credentials, only a Tesseract install.
	recognizer := ocr.NewRecognizer(ocr.NewTesseractEngine([]string{"eng"}))

	var pages []image.Image
	for _, name := range []string{"scan_page_1.png", "scan_page_2.png"} {
		f, err := os.Open(name)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", name, err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			log.Fatalf("Failed to decode %s: %v", name, err)
		}
		pages = append(pages, img)
	}

	transcript, perPage, err := recognizer.RecognizeBatch(ctx, pages)
	if err != nil {
		log.Fatalf("Batch recognition failed: %v", err)
	}

	fmt.Printf("%d pages, %d transcript characters\n", len(perPage), len(transcript))
}
