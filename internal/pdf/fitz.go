package pdf

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

func (e *Extractor) extractFitz(data []byte) (Result, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		if err := doc.Close(); err != nil {
			e.logger.Warn("pdf.fitz.close_failed", "error", err)
		}
	}()

	n := e.pageLimit(doc.NumPage())
	text, err := joinPages(n, func(page int) (string, error) {
		return doc.Text(page - 1)
	})
	if err != nil {
		return Result{Pages: n}, err
	}
	return Result{Text: text, Pages: n}, nil
}

// joinPages concatenates pages 1..n in order. Any unreadable page fails the
// whole extraction so the model never sees a report with pages missing.
func joinPages(n int, pageText func(page int) (string, error)) (string, error) {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		txt, err := pageText(i)
		if err != nil {
			return "", fmt.Errorf("%w: page %d of %d: %w", ErrPageText, i, n, err)
		}
		b.WriteString(txt)
	}
	return b.String(), nil
}
