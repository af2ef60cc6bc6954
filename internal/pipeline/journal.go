package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/common"
	"github.com/joseph-ayodele/glr-generator/internal/entity"
)

// Journal writes are best effort: a broken journal never fails a run. They
// also outlive request cancellation so a timed-out run is still recorded.

func (p *Processor) journalStart(ctx context.Context, id uuid.UUID, req Request) {
	if p.runs == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	run := &entity.Run{ID: id, TemplateName: req.Template.Name, ReportName: req.Report.Name}
	if p.cfg.ModelName != "" {
		model := p.cfg.ModelName
		run.ModelName = &model
	}
	if err := p.runs.Start(ctx, run); err != nil {
		common.LoggerFrom(ctx, p.logger).Warn("pipeline.journal.start_failed", "error", err)
	}
}

func (p *Processor) journalFinish(ctx context.Context, res *Result) {
	if p.runs == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := p.runs.Finish(ctx, res.RunID, res.Variant, len(res.Fields), res.Stats.Replacements); err != nil {
		common.LoggerFrom(ctx, p.logger).Warn("pipeline.journal.finish_failed", "error", err)
	}
}

func (p *Processor) journalFail(ctx context.Context, id uuid.UUID, variant constants.Variant, cause error) {
	if p.runs == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := p.runs.Fail(ctx, id, variant, cause.Error()); err != nil {
		common.LoggerFrom(ctx, p.logger).Warn("pipeline.journal.fail_failed", "error", err)
	}
}
