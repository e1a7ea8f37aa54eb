package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"medscan/internal/config"
	"medscan/internal/gemini"
	"medscan/internal/logger"
	"medscan/internal/ocr"
	"medscan/internal/pdf"
	"medscan/internal/pipeline"
	"medscan/internal/store"
)

var scanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Run the intake pipeline on page images or PDFs",
	Long: `Process one batch of document pages: recognize text, redact PII,
assemble a paginated PDF, and generate a patient-friendly title and summary.

Image files become one page each; PDF files are flattened to one raster
page per document page at import time.

Required environment variables:
  GEMINI_API_KEY - Gemini API key for summarization
  For the default "vision" OCR engine, Google Cloud credentials:
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
  (set OCR_ENGINE=tesseract to run OCR locally instead)`,
	Example: `  # Scan two photographed pages
  medscan scan --owner jane@example.com page1.jpg page2.jpg

  # Import a PDF and keep the redacted artifact next to it
  medscan scan --owner jane@example.com -o redacted.pdf report.pdf

  # Run without persisting a record
  medscan scan --owner jane@example.com --no-store page1.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("owner", "", "Owner identity for the stored record (default: MEDSCAN_OWNER)")
	scanCmd.Flags().StringP("output", "o", "", "Also write the redacted PDF artifact to this path")
	scanCmd.Flags().Bool("no-store", false, "Do not persist the finished record")
	scanCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")

	owner, _ := cmd.Flags().GetString("owner")
	outputPath, _ := cmd.Flags().GetString("output")
	noStore, _ := cmd.Flags().GetBool("no-store")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if owner == "" {
		owner = cfg.DefaultOwner
	}
	if owner == "" {
		return fmt.Errorf("no owner identity: pass --owner or set MEDSCAN_OWNER")
	}

	pages, err := loadPages(args, cfg.ImportWidthPx, log)
	if err != nil {
		return err
	}

	log.Info().
		Int("pages", len(pages)).
		Str("owner", owner).
		Str("engine", cfg.OCREngine).
		Msg("Starting scan batch")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	engine, err := ocr.NewEngine(ctx, cfg.OCREngine, cfg.OCRLanguages)
	if err != nil {
		return handleScanError(err)
	}

	client, err := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return handleScanError(err)
	}

	var st *store.Store
	if !noStore {
		st, err = store.Open(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("opening report store: %w", err)
		}
		defer st.Close()
	}

	p := pipeline.New(
		ocr.NewRecognizer(engine),
		pdf.NewBuilder(cfg.JPEGQuality),
		client,
		storeOrNil(st),
		pipeline.Options{PageWorkers: cfg.PageWorkers, TranscriptCap: cfg.TranscriptCap},
	)

	report, err := p.Process(ctx, owner, pages)
	if err != nil {
		return handleScanError(err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, report.PDF, 0644); err != nil {
			return fmt.Errorf("writing artifact to %s: %w", outputPath, err)
		}
		log.Info().Str("output", outputPath).Int("bytes", len(report.PDF)).Msg("Artifact written")
	}

	fmt.Printf("Report %s\n", report.ID)
	fmt.Printf("Title:  %s\n", report.Title)
	fmt.Printf("Pages:  %d\n", report.PageCount)
	if report.Summary != "" {
		fmt.Printf("\n%s\n", report.Summary)
	}
	return nil
}

// storeOrNil keeps a typed-nil *store.Store out of the pipeline's interface field.
func storeOrNil(st *store.Store) pipeline.Inserter {
	if st == nil {
		return nil
	}
	return st
}

// loadPages turns the argument list into decoded raster pages, one per
// image file and one per PDF page. A file that cannot be read or decoded
// is skipped with a warning so one bad input does not sink the batch.
func loadPages(paths []string, importWidth int, log zerolog.Logger) ([]image.Image, error) {
	var pages []image.Image
	for _, path := range paths {
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			f, err := os.Open(path)
			if err != nil {
				log.Warn().Err(err).Str("file", path).Msg("Skipping unreadable file")
				continue
			}
			extracted, err := pdf.ExtractPageImages(f, importWidth)
			f.Close()
			if err != nil {
				log.Warn().Err(err).Str("file", path).Msg("Skipping PDF that could not be flattened")
				continue
			}
			pages = append(pages, extracted...)
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping unreadable file")
			continue
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping undecodable image")
			continue
		}
		pages = append(pages, img)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no supported images or PDFs found in the given files")
	}
	return pages, nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling batch")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// handleScanError provides user-friendly error messages for batch failures
func handleScanError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("processing timed out. Try increasing --timeout or scanning fewer pages")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("processing was canceled")
	case errors.Is(err, gemini.ErrMissingAPIKey):
		return fmt.Errorf("no Gemini credential configured. Set GEMINI_API_KEY in your environment or .env file")
	case errors.Is(err, gemini.ErrInvalidResponse):
		return fmt.Errorf("the summarization service returned an unusable response. Check your API key and quota: %w", err)
	case errors.Is(err, gemini.ErrEmptyOutput):
		return fmt.Errorf("the summarization service returned no text for this document: %w", err)
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured. Set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS, or use OCR_ENGINE=tesseract for local recognition")
	case errors.Is(err, pipeline.ErrAllPagesFailed):
		return fmt.Errorf("no page in the batch could be recognized; nothing was saved")
	default:
		return err
	}
}
