package pipeline

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medscan/internal/ocr"
	"medscan/internal/pdf"
	"medscan/pkg/models"
)

// pageEngine keys canned results on image width so it stays stateless
// across the two recognition passes a batch performs.
type pageEngine struct {
	textByWidth  map[int]string
	failWidths   map[int]bool
	delayByWidth map[int]time.Duration
}

func (e *pageEngine) Recognize(ctx context.Context, img image.Image) ([]ocr.Observation, error) {
	w := img.Bounds().Dx()
	if d := e.delayByWidth[w]; d > 0 {
		time.Sleep(d)
	}
	if e.failWidths[w] {
		return nil, errors.New("scanner jam")
	}
	text, ok := e.textByWidth[w]
	if !ok {
		return nil, nil
	}
	return []ocr.Observation{{Text: text, X: 0, Y: 0.9, Width: 1, Height: 0.1}}, nil
}

type stubSummarizer struct {
	mu       sync.Mutex
	gotText  string
	gotPages []image.Image
	response string
	err      error
}

func (s *stubSummarizer) Summarize(ctx context.Context, text, systemInstruction string, images []image.Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotText = text
	s.gotPages = images
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubStore struct {
	mu       sync.Mutex
	inserted []*models.Report
	err      error
}

func (s *stubStore) Insert(ctx context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, report)
	return nil
}

func page(width int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, width, 140))
}

func newTestPipeline(engine ocr.Engine, summarizer Summarizer, store Inserter) *Pipeline {
	return New(ocr.NewRecognizer(engine), pdf.NewBuilder(90), summarizer, store, Options{PageWorkers: 4})
}

func TestProcessHappyPath(t *testing.T) {
	engine := &pageEngine{textByWidth: map[int]string{
		100: "Hemoglobin 13.2 g/dL",
		101: "Blood pressure stable",
	}}
	summarizer := &stubSummarizer{response: "Healthy Blood\n\nEverything looks fine."}
	store := &stubStore{}
	p := newTestPipeline(engine, summarizer, store)

	report, err := p.Process(context.Background(), "Jane@Example.COM", []image.Image{page(100), page(101)})
	require.NoError(t, err)

	assert.Equal(t, "Healthy Blood", report.Title)
	assert.Equal(t, "Everything looks fine.", report.Summary)
	assert.Equal(t, "Hemoglobin 13.2 g/dL"+ocr.PageBreakMarker+"Blood pressure stable", report.OCRText)
	assert.Equal(t, 2, report.PageCount)
	assert.Equal(t, "jane@example.com", report.OwnerEmail)
	assert.Equal(t, "%PDF", string(report.PDF[:4]))
	assert.NotEmpty(t, report.ID)

	require.Len(t, store.inserted, 1)
	assert.Same(t, report, store.inserted[0])
	assert.Len(t, summarizer.gotPages, 2)
}

func TestProcessPreservesPageOrderUnderConcurrency(t *testing.T) {
	// Earlier pages finish last; output order must still be input order.
	engine := &pageEngine{
		textByWidth: map[int]string{
			100: "first page",
			101: "second page",
			102: "third page",
		},
		delayByWidth: map[int]time.Duration{
			100: 30 * time.Millisecond,
			101: 15 * time.Millisecond,
		},
	}
	summarizer := &stubSummarizer{response: "Ordered Pages\n\nBody."}
	p := newTestPipeline(engine, summarizer, nil)

	report, err := p.Process(context.Background(), "o@x.com", []image.Image{page(100), page(101), page(102)})
	require.NoError(t, err)

	want := "first page" + ocr.PageBreakMarker + "second page" + ocr.PageBreakMarker + "third page"
	assert.Equal(t, want, report.OCRText)
}

func TestProcessDropsFailedPage(t *testing.T) {
	engine := &pageEngine{
		textByWidth: map[int]string{
			100: "first page",
			102: "third page",
		},
		failWidths: map[int]bool{101: true},
	}
	summarizer := &stubSummarizer{response: "Partial Batch\n\nBody."}
	store := &stubStore{}
	p := newTestPipeline(engine, summarizer, store)

	report, err := p.Process(context.Background(), "o@x.com", []image.Image{page(100), page(101), page(102)})
	require.NoError(t, err)

	// Transcript holds only the surviving pages, joined by one marker.
	assert.Equal(t, "first page"+ocr.PageBreakMarker+"third page", report.OCRText)
	// The summarizer saw only the surviving pages as attachments.
	assert.Len(t, summarizer.gotPages, 2)
	// Page count reflects the input batch.
	assert.Equal(t, 3, report.PageCount)
	require.Len(t, store.inserted, 1)
}

func TestProcessAllPagesFailedIsBatchFailure(t *testing.T) {
	engine := &pageEngine{failWidths: map[int]bool{100: true}}
	store := &stubStore{}
	p := newTestPipeline(engine, &stubSummarizer{response: "x\n\ny"}, store)

	_, err := p.Process(context.Background(), "o@x.com", []image.Image{page(100)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllPagesFailed)
	assert.Empty(t, store.inserted)
}

func TestProcessEmptyBatchIsError(t *testing.T) {
	p := newTestPipeline(&pageEngine{}, &stubSummarizer{}, nil)

	_, err := p.Process(context.Background(), "o@x.com", nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestProcessSummarizeFailurePersistsNothing(t *testing.T) {
	engine := &pageEngine{textByWidth: map[int]string{100: "some text"}}
	store := &stubStore{}
	p := newTestPipeline(engine, &stubSummarizer{err: errors.New("model unavailable")}, store)

	_, err := p.Process(context.Background(), "o@x.com", []image.Image{page(100)})
	require.Error(t, err)
	assert.Empty(t, store.inserted, "failed batch must not persist a record")
}

func TestProcessStoreFailureSurfaces(t *testing.T) {
	engine := &pageEngine{textByWidth: map[int]string{100: "some text"}}
	store := &stubStore{err: errors.New("disk full")}
	p := newTestPipeline(engine, &stubSummarizer{response: "T\n\nB"}, store)

	_, err := p.Process(context.Background(), "o@x.com", []image.Image{page(100)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestProcessRedactsPIILines(t *testing.T) {
	// The PII line's box occupies the top of the page; after redaction the
	// page handed to the assembler must differ from the input there.
	engine := &pageEngine{textByWidth: map[int]string{100: "Patient Name: Jane Doe"}}
	summarizer := &stubSummarizer{response: "Redacted\n\nBody."}
	p := newTestPipeline(engine, summarizer, nil)

	src := image.NewRGBA(image.Rect(0, 0, 100, 140))
	for y := 0; y < 140; y++ {
		for x := 0; x < 100; x++ {
			src.Set(x, y, image.White.C)
		}
	}

	report, err := p.Process(context.Background(), "o@x.com", []image.Image{src})
	require.NoError(t, err)
	require.NotNil(t, report)

	// The page handed onward is blacked out inside the flagged line's box.
	// The stub's observation spans Y 0.9-1.0 normalized, so rows 0-13 in
	// pixel space on a 140px-tall page.
	require.Len(t, summarizer.gotPages, 1)
	r, g, b, a := summarizer.gotPages[0].At(50, 5).RGBA()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Zero(t, b)
	assert.EqualValues(t, 0xffff, a)

	// Source page is never mutated in place.
	r, _, _, _ = src.At(50, 5).RGBA()
	assert.EqualValues(t, 0xffff, r)
}

func TestProcessTranscriptCapLimitsModelInput(t *testing.T) {
	long := make([]byte, 0, 600)
	for i := 0; i < 100; i++ {
		long = append(long, []byte("abcdef")...)
	}
	engine := &pageEngine{textByWidth: map[int]string{100: string(long)}}
	summarizer := &stubSummarizer{response: "T\n\nB"}
	p := New(ocr.NewRecognizer(engine), pdf.NewBuilder(90), summarizer, nil, Options{TranscriptCap: 50})

	report, err := p.Process(context.Background(), "o@x.com", []image.Image{page(100)})
	require.NoError(t, err)

	assert.Len(t, summarizer.gotText, 50)
	// Full transcript is still stored.
	assert.Len(t, report.OCRText, 600)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 10))
	assert.Equal(t, "ab", clip("abcdef", 2))
	assert.Equal(t, "é", clip("église", 1), "rune must not be split")
}
