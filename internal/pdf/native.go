package pdf

import (
	"bytes"
	"errors"
	"fmt"

	lpdf "github.com/ledongthuc/pdf"
)

func (e *Extractor) extractNative(data []byte) (Result, error) {
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}

	n := e.pageLimit(r.NumPage())
	text, err := joinPages(n, func(page int) (string, error) {
		p := r.Page(page)
		if p.V.IsNull() {
			return "", errors.New("page object missing")
		}
		return p.GetPlainText(nil)
	})
	if err != nil {
		return Result{Pages: n}, err
	}
	return Result{Text: text, Pages: n}, nil
}
