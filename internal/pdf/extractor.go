// Package pdf pulls the plain text out of inspection report PDFs.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Extraction methods.
const (
	MethodFitz      = "fitz"      // MuPDF through go-fitz
	MethodPdftotext = "pdftotext" // poppler's pdftotext binary
	MethodNative    = "native"    // pure Go reader
)

// ErrEmptyPDF is returned for zero-length input.
var ErrEmptyPDF = errors.New("pdf: empty input")

// ErrPageText is returned when a page's text cannot be read. Extraction never
// returns partial text.
var ErrPageText = errors.New("pdf: page text unreadable")

type Config struct {
	Method    string // fitz | pdftotext | native; default fitz
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	MaxPages  int    // 0 = no limit
}

type Result struct {
	Text     string
	Pages    int
	Method   string
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Method == "" {
		cfg.Method = MethodFitz
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner used by the pdftotext method.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Method reports the configured extraction method.
func (e *Extractor) Method() string {
	return e.cfg.Method
}

// Extract returns the text of every page in page order, concatenated. A page
// that cannot be read fails the call with ErrPageText.
func (e *Extractor) Extract(ctx context.Context, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{Method: e.cfg.Method}, ErrEmptyPDF
	}
	start := time.Now()
	e.logger.Debug("pdf.extract.start", "method", e.cfg.Method, "bytes", len(data))

	var (
		res Result
		err error
	)
	switch e.cfg.Method {
	case MethodFitz:
		res, err = e.extractFitz(data)
	case MethodPdftotext:
		res, err = e.extractPdftotext(ctx, data)
	case MethodNative:
		res, err = e.extractNative(data)
	default:
		e.logger.Error("pdf.extract.unsupported_method", "method", e.cfg.Method)
		return Result{Method: e.cfg.Method}, fmt.Errorf("unsupported pdf extraction method: %q", e.cfg.Method)
	}
	res.Method = e.cfg.Method
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("pdf.extract.failed", "method", e.cfg.Method, "error", err, "duration_ms", res.Duration.Milliseconds())
		return res, err
	}

	e.logger.Info("pdf.extract.ok",
		"method", res.Method,
		"pages", res.Pages,
		"text_len", len(res.Text),
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// pageLimit clamps a page count to MaxPages.
func (e *Extractor) pageLimit(n int) int {
	if e.cfg.MaxPages > 0 && n > e.cfg.MaxPages {
		return e.cfg.MaxPages
	}
	return n
}
