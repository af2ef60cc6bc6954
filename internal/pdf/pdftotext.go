package pdf

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// extractPdftotext writes data to a temp file and runs
// pdftotext -enc UTF-8 -eol unix [-l N] <file> -
func (e *Extractor) extractPdftotext(ctx context.Context, data []byte) (Result, error) {
	tmp, err := os.CreateTemp("", "glr-report-*.pdf")
	if err != nil {
		return Result{}, fmt.Errorf("create temp pdf: %w", err)
	}
	defer func(path string) {
		if err := os.Remove(path); err != nil {
			e.logger.Warn("pdf.tempfile.remove_failed", "path", path, "error", err)
		}
	}(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Result{}, fmt.Errorf("write temp pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("close temp pdf: %w", err)
	}

	args := []string{"-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, tmp.Name(), "-")

	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return Result{Warnings: nonEmpty(string(errb))}, fmt.Errorf("pdftotext: %w", err)
	}

	// Each page ends with a form feed.
	raw := string(out)
	pages := strings.Count(raw, "\f")
	if pages == 0 && raw != "" {
		pages = 1
	}
	return Result{
		Text:     strings.ReplaceAll(raw, "\f", ""),
		Pages:    pages,
		Warnings: nonEmpty(strings.TrimSpace(string(errb))),
	}, nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
