// Package pipeline orchestrates one scan batch end to end: concurrent
// per-page recognition and redaction, artifact assembly, transcription,
// summarization, and record construction.
//
// A batch is atomic. Per-page failures are absorbed inside the fan-out
// stage (the page is dropped); any batch-level failure aborts the run
// before anything is persisted.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"medscan/internal/gemini"
	"medscan/internal/logger"
	"medscan/internal/ocr"
	"medscan/internal/pdf"
	"medscan/internal/pii"
	"medscan/internal/redact"
	"medscan/internal/summary"
	"medscan/pkg/models"
)

// Batch-level errors.
var (
	// ErrEmptyBatch is returned when a batch arrives with no pages.
	ErrEmptyBatch = errors.New("scan batch contains no pages")

	// ErrAllPagesFailed is returned when every page of a batch failed
	// recognition and nothing is left to assemble.
	ErrAllPagesFailed = errors.New("every page in the batch failed recognition")
)

// Summarizer is the model call the pipeline depends on.
type Summarizer interface {
	Summarize(ctx context.Context, text, systemInstruction string, images []image.Image) (string, error)
}

// Inserter is the persistence collaborator. Insert is best-effort
// synchronous; the pipeline surfaces failures instead of retrying.
type Inserter interface {
	Insert(ctx context.Context, report *models.Report) error
}

// Options tune per-batch behavior.
type Options struct {
	// PageWorkers bounds the concurrent page fan-out. Zero means one
	// task per page.
	PageWorkers int

	// TranscriptCap limits how many characters of transcript are sent to
	// the model. The full transcript is still stored.
	TranscriptCap int
}

// DefaultTranscriptCap bounds the model input when no cap is configured.
const DefaultTranscriptCap = 25000

// Pipeline sequences the intake stages for incoming scan batches. It holds
// no cross-batch state; concurrent Process calls are independent.
type Pipeline struct {
	recognizer *ocr.Recognizer
	builder    *pdf.Builder
	summarizer Summarizer
	store      Inserter
	opts       Options
}

// New wires a pipeline. The store may be nil, in which case the finished
// record is returned but not persisted.
func New(recognizer *ocr.Recognizer, builder *pdf.Builder, summarizer Summarizer, store Inserter, opts Options) *Pipeline {
	if opts.TranscriptCap <= 0 {
		opts.TranscriptCap = DefaultTranscriptCap
	}
	return &Pipeline{
		recognizer: recognizer,
		builder:    builder,
		summarizer: summarizer,
		store:      store,
		opts:       opts,
	}
}

// Process runs one batch for the given owner identity and returns the
// finished record. Output order is always input order: the Nth artifact
// page and the Nth transcript segment correspond to the Nth input image
// regardless of task completion order.
func (p *Pipeline) Process(ctx context.Context, owner string, pages []image.Image) (*models.Report, error) {
	const op = "Process"

	if len(pages) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyBatch)
	}

	batchLog := logger.WithBatchID(uuid.NewString()).With().
		Str("component", "pipeline").
		Int("pages", len(pages)).
		Logger()
	batchLog.Info().Msg("Batch received")

	redacted, err := p.redactPages(ctx, batchLog, pages)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Drop pages whose recognition failed, preserving order of the rest.
	kept := make([]image.Image, 0, len(redacted))
	for _, img := range redacted {
		if img != nil {
			kept = append(kept, img)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrAllPagesFailed)
	}

	batchLog.Info().Int("kept", len(kept)).Msg("Assembling artifact")
	artifact, err := p.builder.Assemble(kept)
	if err != nil {
		return nil, fmt.Errorf("%s: assembling artifact: %w", op, err)
	}

	// The transcript is taken from the redacted pages so that stored text
	// matches what the document shows.
	batchLog.Info().Msg("Transcribing redacted pages")
	transcript, _, err := p.recognizer.RecognizeBatch(ctx, kept)
	if err != nil {
		return nil, fmt.Errorf("%s: transcribing batch: %w", op, err)
	}

	batchLog.Info().Int("transcript_length", len(transcript)).Msg("Summarizing")
	raw, err := p.summarizer.Summarize(ctx, clip(transcript, p.opts.TranscriptCap), gemini.SummaryPrompt, kept)
	if err != nil {
		return nil, fmt.Errorf("%s: summarizing batch: %w", op, err)
	}

	title, body := summary.Parse(raw)

	report := models.NewReport(title, transcript, body, artifact, len(pages), owner)

	if p.store != nil {
		if err := p.store.Insert(ctx, report); err != nil {
			return nil, fmt.Errorf("%s: persisting record: %w", op, err)
		}
	}

	batchLog.Info().Str("report_id", report.ID).Str("title", report.Title).Msg("Batch completed")
	return report, nil
}

// redactPages runs the Recognize -> Classify -> Redact stage with a bounded,
// unordered fan-out. Results land in a slot per input index, written once,
// so completion order never affects output order. A failed page leaves a
// nil slot and is absorbed here rather than propagated.
func (p *Pipeline) redactPages(ctx context.Context, batchLog zerolog.Logger, pages []image.Image) ([]image.Image, error) {
	redacted := make([]image.Image, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	if p.opts.PageWorkers > 0 {
		g.SetLimit(p.opts.PageWorkers)
	}

	for i, page := range pages {
		g.Go(func() error {
			lines, err := p.recognizer.Recognize(gctx, page)
			if err != nil {
				batchLog.Warn().Err(err).Int("page", i+1).Msg("Dropping page after recognition failure")
				return nil
			}
			rects := pii.Classify(lines)
			if len(rects) > 0 {
				redacted[i] = redact.Apply(page, rects)
			} else {
				redacted[i] = page
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Abandoned batches stop here, after in-flight page tasks drained.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return redacted, nil
}

// clip caps text at n characters without splitting a rune.
func clip(text string, n int) string {
	if len(text) <= n {
		return text
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
