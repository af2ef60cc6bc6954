package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/entity"
	"github.com/joseph-ayodele/glr-generator/internal/repository"
)

// Field review statuses.
const (
	StatusFilled      = "Filled"
	StatusNotObserved = "Not observed"
	StatusMissing     = "Missing"
	StatusBlank       = "Blank"
)

// Excel rejects cell text longer than this.
const maxCellChars = 32767

// Service produces XLSX bytes for adjuster review.
type Service struct {
	runsRepo repository.RunRepository // optional; only RunsXLSX needs it
	logger   *slog.Logger
}

func NewService(runs repository.RunRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runsRepo: runs, logger: logger}
}

// FieldStatus classifies one field of a variant against the extracted values.
func FieldStatus(fields entity.Fields, name string) (string, string) {
	v, ok := fields.Get(name)
	switch {
	case !ok:
		return "", StatusMissing
	case v == "":
		return v, StatusBlank
	case v == constants.NotObserved:
		return v, StatusNotObserved
	default:
		return v, StatusFilled
	}
}

// FieldsXLSX returns a workbook with one row per field of the variant, in
// enumeration order, showing the extracted value and its status.
func (s *Service) FieldsXLSX(ctx context.Context, variant constants.Variant, fields entity.Fields) ([]byte, error) {
	start := time.Now()
	names := constants.FieldsFor(variant)
	if len(names) == 0 {
		return nil, fmt.Errorf("no field list for variant %q", variant)
	}

	f := excelize.NewFile()
	const sheet = "Fields"
	if err := useSheet(f, sheet); err != nil {
		return nil, err
	}

	writeRow(f, sheet, 1, "Field", "Value", "Status")
	counts := map[string]int{}
	for i, name := range names {
		value, status := FieldStatus(fields, name)
		counts[status]++
		writeRow(f, sheet, i+2, name, truncate(value, maxCellChars), status)
	}

	_ = f.SetColWidth(sheet, "A", "A", 30) // field
	_ = f.SetColWidth(sheet, "B", "B", 80) // value
	_ = f.SetColWidth(sheet, "C", "C", 14) // status
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sheet", sheet,
		"variant", variant,
		"rows", len(names),
		"filled", counts[StatusFilled],
		"not_observed", counts[StatusNotObserved],
		"missing", counts[StatusMissing],
		"blank", counts[StatusBlank],
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// RunsXLSX returns the most recent journal entries as a workbook.
func (s *Service) RunsXLSX(ctx context.Context, limit int) ([]byte, error) {
	if s.runsRepo == nil {
		return nil, fmt.Errorf("run journal not configured")
	}
	start := time.Now()

	runs, err := s.runsRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Runs"
	if err := useSheet(f, sheet); err != nil {
		return nil, err
	}

	writeRow(f, sheet, 1, "Run ID", "Started", "Finished", "Template", "Report", "Variant", "Status", "Fields", "Replaced", "Model", "Error")
	for i, r := range runs {
		finished := ""
		if r.FinishedAt != nil {
			finished = r.FinishedAt.UTC().Format(time.RFC3339)
		}
		writeRow(f, sheet, i+2,
			r.ID.String(),
			r.StartedAt.UTC().Format(time.RFC3339),
			finished,
			r.TemplateName,
			r.ReportName,
			deref(r.Variant),
			r.Status,
			r.FieldsExtracted,
			r.TokensReplaced,
			deref(r.ModelName),
			truncate(deref(r.ErrorMessage), 500),
		)
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // id
	_ = f.SetColWidth(sheet, "B", "C", 22) // timestamps
	_ = f.SetColWidth(sheet, "D", "E", 28) // file names
	_ = f.SetColWidth(sheet, "J", "J", 32) // model
	_ = f.SetColWidth(sheet, "K", "K", 60) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sheet", sheet,
		"rows", len(runs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func useSheet(f *excelize.File, sheet string) error {
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	return f.DeleteSheet("Sheet1")
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// truncate limits s to n characters, ending with an ellipsis when cut.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
