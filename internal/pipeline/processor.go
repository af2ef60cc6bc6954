// Package pipeline runs one report-to-GLR generation: read the PDF, classify
// the template, ask the model for the variant's fields and fill the template.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/common"
	"github.com/joseph-ayodele/glr-generator/internal/detect"
	"github.com/joseph-ayodele/glr-generator/internal/docx"
	"github.com/joseph-ayodele/glr-generator/internal/entity"
	"github.com/joseph-ayodele/glr-generator/internal/llm"
	"github.com/joseph-ayodele/glr-generator/internal/pdf"
	"github.com/joseph-ayodele/glr-generator/internal/repository"
)

// TextExtractor is the report reader the processor depends on.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (pdf.Result, error)
}

type Config struct {
	ModelName      string // recorded in the run journal
	MaxUploadBytes int64  // 0 = no limit
}

// Processor holds only immutable collaborators; every call builds its own state.
type Processor struct {
	cfg    Config
	logger *slog.Logger
	pdf    TextExtractor
	model  llm.Client
	runs   repository.RunRepository // optional
}

func NewProcessor(cfg Config, logger *slog.Logger, extractor TextExtractor, model llm.Client, runs repository.RunRepository) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{cfg: cfg, logger: logger, pdf: extractor, model: model, runs: runs}
}

// Request is one template/report pair.
type Request struct {
	Template common.Upload
	Report   common.Upload
}

// Prepared is everything known before the model is called.
type Prepared struct {
	RunID       uuid.UUID
	Variant     constants.Variant
	Prompt      string
	ReportText  string
	ReportPages int

	template *docx.Document
}

// Result is a completed generation.
type Result struct {
	RunID    uuid.UUID
	Variant  constants.Variant
	Prompt   string
	Reply    string
	Fields   entity.Fields
	Stats    docx.FillStats
	Output   []byte
	FileName string
}

// Detect classifies a template without touching the report or the model.
func (p *Processor) Detect(ctx context.Context, template common.Upload) (constants.Variant, error) {
	log := common.LoggerFrom(ctx, p.logger)
	if err := common.ValidateUploads(template, nil, p.cfg.MaxUploadBytes); err != nil {
		log.Warn("pipeline.detect.invalid_upload", "error", err)
		return constants.Unknown, err
	}
	doc, err := openTemplate(template)
	if err != nil {
		log.Warn("pipeline.detect.bad_template", "error", err)
		return constants.Unknown, err
	}
	variant := detect.Document(doc)
	log.Info("pipeline.detect.ok", "template", template.Name, "variant", variant)
	return variant, nil
}

// Prepare validates the uploads, extracts the report text, classifies the
// template and builds the prompt. An Unknown template is an error.
func (p *Processor) Prepare(ctx context.Context, req Request) (*Prepared, error) {
	prep := &Prepared{RunID: uuid.New(), Variant: constants.Unknown}
	ctx = common.WithRunID(ctx, prep.RunID.String())
	if err := p.prepare(ctx, req, prep); err != nil {
		return nil, err
	}
	return prep, nil
}

func (p *Processor) prepare(ctx context.Context, req Request, prep *Prepared) error {
	log := common.LoggerFrom(ctx, p.logger)

	if err := common.ValidateUploads(req.Template, &req.Report, p.cfg.MaxUploadBytes); err != nil {
		log.Warn("pipeline.prepare.invalid_upload", "error", err)
		return err
	}

	report, err := p.pdf.Extract(ctx, req.Report.Data)
	if err != nil {
		log.Error("pipeline.prepare.report_failed", "error", err)
		return common.NewAppError(common.CodeReport, "could not read report text", err)
	}
	prep.ReportText = report.Text
	prep.ReportPages = report.Pages

	doc, err := openTemplate(req.Template)
	if err != nil {
		log.Error("pipeline.prepare.template_failed", "error", err)
		return err
	}
	prep.template = doc

	prep.Variant = detect.Document(doc)
	if prep.Variant == constants.Unknown {
		log.Warn("pipeline.prepare.unknown_template", "template", req.Template.Name)
		return common.NewAppError(common.CodeUnknownTemplate, "template format not recognized", common.ErrTemplateUnknown)
	}

	prep.Prompt, err = llm.BuildPrompt(prep.Variant, prep.ReportText)
	if err != nil {
		return err
	}

	log.Info("pipeline.prepare.ok",
		"variant", prep.Variant,
		"report_pages", prep.ReportPages,
		"report_len", len(prep.ReportText),
		"prompt_len", len(prep.Prompt),
	)
	return nil
}

// Generate runs the whole pipeline once. Any failure halts the run and no
// partial document is returned.
func (p *Processor) Generate(ctx context.Context, req Request) (*Result, error) {
	prep := &Prepared{RunID: uuid.New(), Variant: constants.Unknown}
	ctx = common.WithRunID(ctx, prep.RunID.String())
	log := common.LoggerFrom(ctx, p.logger)
	start := time.Now()

	log.Info("pipeline.generate.start", "template", req.Template.Name, "report", req.Report.Name)
	p.journalStart(ctx, prep.RunID, req)

	res, err := p.generate(ctx, req, prep)
	if err != nil {
		log.Error("pipeline.generate.failed",
			"variant", prep.Variant,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		p.journalFail(ctx, prep.RunID, prep.Variant, err)
		return nil, err
	}

	p.journalFinish(ctx, res)
	log.Info("pipeline.generate.ok",
		"variant", res.Variant,
		"fields", len(res.Fields),
		"replacements", res.Stats.Replacements,
		"paragraphs", res.Stats.Paragraphs,
		"cells", res.Stats.Cells,
		"output_bytes", len(res.Output),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) generate(ctx context.Context, req Request, prep *Prepared) (*Result, error) {
	log := common.LoggerFrom(ctx, p.logger)

	if err := p.prepare(ctx, req, prep); err != nil {
		return nil, err
	}

	reply, err := p.model.Complete(ctx, prep.Prompt)
	if err != nil {
		return nil, common.NewAppError(common.CodeModelCall, "model query failed", err)
	}

	fields := llm.ParseReply(reply)
	if len(fields) == 0 {
		log.Warn("pipeline.parse.empty", "reply_len", len(reply))
	} else {
		log.Debug("pipeline.parse.ok", "fields", fields.Names())
	}

	filled, stats := docx.Fill(prep.template, fields)
	out, err := filled.Bytes()
	if err != nil {
		return nil, common.NewAppError(common.CodeDocument, "could not write filled document", fmt.Errorf("%w: %w", common.ErrInternal, err))
	}

	return &Result{
		RunID:    prep.RunID,
		Variant:  prep.Variant,
		Prompt:   prep.Prompt,
		Reply:    reply,
		Fields:   fields,
		Stats:    stats,
		Output:   out,
		FileName: constants.OutputFileName,
	}, nil
}

func openTemplate(u common.Upload) (*docx.Document, error) {
	doc, err := docx.Open(u.Data)
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidUpload, "template is not a readable .docx", fmt.Errorf("%w: %w", common.ErrInvalidInput, err))
	}
	return doc, nil
}
