package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/entity"
)

// ErrRunNotFound is returned when a run id is not in the journal.
var ErrRunNotFound = errors.New("run not found")

type RunRepository interface {
	Start(ctx context.Context, run *entity.Run) error
	Finish(ctx context.Context, id uuid.UUID, variant constants.Variant, fieldsExtracted, tokensReplaced int) error
	Fail(ctx context.Context, id uuid.UUID, variant constants.Variant, message string) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	List(ctx context.Context, limit int) ([]entity.Run, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Start inserts a RUNNING row. A zero ID or StartedAt is filled in.
func (r *runRepo) Start(ctx context.Context, run *entity.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = r.now()
	}
	run.Status = string(constants.RunStatusRunning)

	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO glr_run (id, template_name, report_name, variant, status, model_name, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		run.ID.String(), run.TemplateName, run.ReportName, nullString(run.Variant),
		run.Status, nullString(run.ModelName), run.StartedAt,
	)
	if err != nil {
		r.log.Error("glr_run.start_failed", "run_id", run.ID, "err", err)
		return err
	}
	r.log.Info("glr_run.started", "run_id", run.ID, "template", run.TemplateName, "report", run.ReportName)
	return nil
}

func (r *runRepo) Finish(ctx context.Context, id uuid.UUID, variant constants.Variant, fieldsExtracted, tokensReplaced int) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE glr_run SET status = ?, variant = ?, fields_extracted = ?, tokens_replaced = ?, finished_at = ?
		 WHERE id = ?`),
		string(constants.RunStatusFilled), variantValue(variant), fieldsExtracted, tokensReplaced, r.now(), id.String(),
	)
	if err := checkUpdated(res, err); err != nil {
		r.log.Error("glr_run.finish_failed", "run_id", id, "err", err)
		return err
	}
	r.log.Info("glr_run.finished", "run_id", id, "status", constants.RunStatusFilled, "fields", fieldsExtracted, "replaced", tokensReplaced)
	return nil
}

func (r *runRepo) Fail(ctx context.Context, id uuid.UUID, variant constants.Variant, message string) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE glr_run SET status = ?, variant = ?, error_message = ?, finished_at = ?
		 WHERE id = ?`),
		string(constants.RunStatusFailed), variantValue(variant), message, r.now(), id.String(),
	)
	if err := checkUpdated(res, err); err != nil {
		r.log.Error("glr_run.fail_failed", "run_id", id, "err", err)
		return err
	}
	r.log.Warn("glr_run.finished", "run_id", id, "status", constants.RunStatusFailed, "error", message)
	return nil
}

const runColumns = `id, template_name, report_name, variant, status, error_message, model_name,
	fields_extracted, tokens_replaced, started_at, finished_at`

func (r *runRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`SELECT `+runColumns+` FROM glr_run WHERE id = ?`), id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs first. limit <= 0 means 50.
func (r *runRepo) List(ctx context.Context, limit int) ([]entity.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, r.db.rebind(
		`SELECT `+runColumns+` FROM glr_run ORDER BY started_at DESC, id LIMIT ?`), limit)
	if err != nil {
		r.log.Error("glr_run.list_failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*entity.Run, error) {
	var (
		run                    entity.Run
		id                     string
		variant, errMsg, model sql.NullString
		finished               sql.NullTime
	)
	if err := s.Scan(&id, &run.TemplateName, &run.ReportName, &variant, &run.Status, &errMsg, &model,
		&run.FieldsExtracted, &run.TokensReplaced, &run.StartedAt, &finished); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad run id %q: %w", id, err)
	}
	run.ID = parsed
	run.Variant = ptrString(variant)
	run.ErrorMessage = ptrString(errMsg)
	run.ModelName = ptrString(model)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func checkUpdated(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptrString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// variantValue stores the variant, or NULL before classification.
func variantValue(v constants.Variant) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(v), Valid: true}
}
