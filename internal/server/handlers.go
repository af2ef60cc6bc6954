package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/common"
	"github.com/joseph-ayodele/glr-generator/internal/entity"
	"github.com/joseph-ayodele/glr-generator/internal/pipeline"
	"github.com/joseph-ayodele/glr-generator/internal/repository"
)

const (
	formTemplate = "template"
	formReport   = "report"

	headerRunID   = "X-GLR-Run-ID"
	headerVariant = "X-GLR-Variant"

	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if s.db != nil {
		if err := repository.HealthCheck(r.Context(), s.db, 2*time.Second, s.logger); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "journal": err.Error()})
			return
		}
		resp["journal"] = "ok"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.readUploads(w, r, formTemplate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	variant, err := s.gen.Detect(r.Context(), uploads[formTemplate])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"variant": variant,
		"fields":  constants.FieldsFor(variant),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	res, ok := s.generate(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", constants.MIMEDocx)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Output)))
	w.Header().Set(headerRunID, res.RunID.String())
	w.Header().Set(headerVariant, string(res.Variant))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Output)
}

type extractResponse struct {
	RunID        uuid.UUID     `json:"run_id"`
	Variant      string        `json:"variant"`
	Reply        string        `json:"reply"`
	Fields       entity.Fields `json:"fields"`
	Replacements int           `json:"replacements"`
}

// handleExtract runs the same pipeline but returns what the model said instead
// of the document. ?format=xlsx returns the field review workbook.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	res, ok := s.generate(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		b, err := s.export.FieldsXLSX(r.Context(), res.Variant, res.Fields)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", mimeXLSX)
		w.Header().Set("Content-Disposition", `attachment; filename="glr_fields.xlsx"`)
		w.Header().Set(headerRunID, res.RunID.String())
		w.Header().Set(headerVariant, string(res.Variant))
		_, _ = w.Write(b)
		return
	}

	fields := res.Fields
	if fields == nil {
		fields = entity.Fields{}
	}
	writeJSON(w, http.StatusOK, extractResponse{
		RunID:        res.RunID,
		Variant:      string(res.Variant),
		Reply:        res.Reply,
		Fields:       fields,
		Replacements: res.Stats.Replacements,
	})
}

// generate reads both uploads and runs the pipeline, writing the error
// response itself on failure.
func (s *Server) generate(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	uploads, err := s.readUploads(w, r, formTemplate, formReport)
	if err != nil {
		s.metrics.observeGeneration("", outcomeFor(err), 0)
		s.writeError(w, r, err)
		return nil, false
	}

	res, err := s.gen.Generate(r.Context(), pipeline.Request{
		Template: uploads[formTemplate],
		Report:   uploads[formReport],
	})
	if err != nil {
		s.metrics.observeGeneration("", outcomeFor(err), 0)
		s.writeError(w, r, err)
		return nil, false
	}
	s.metrics.observeGeneration(string(res.Variant), "filled", res.Stats.Replacements)
	return res, true
}

// readUploads parses a multipart form and returns the named files. A missing
// file comes back as an empty Upload so validation can report it.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request, names ...string) (map[string]common.Upload, error) {
	limit := s.cfg.MaxUploadBytes*int64(len(names)) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, invalidUpload("expected a multipart form upload", err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	out := make(map[string]common.Upload, len(names))
	for _, name := range names {
		file, hdr, err := r.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) {
			out[name] = common.Upload{}
			continue
		}
		if err != nil {
			return nil, invalidUpload("cannot read "+name, err)
		}
		data, err := readAll(file)
		if err != nil {
			return nil, invalidUpload("cannot read "+name, err)
		}
		out[name] = common.Upload{Name: hdr.Filename, Data: data}
	}
	return out, nil
}

func readAll(f multipart.File) ([]byte, error) {
	defer f.Close()
	return io.ReadAll(f)
}

func invalidUpload(msg string, cause error) error {
	return common.NewAppError(common.CodeInvalidUpload, msg, fmt.Errorf("%w: %w", common.ErrInvalidInput, cause))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "NO_JOURNAL", Message: "run journal not configured"})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, common.NewAppError(common.CodeInvalidUpload, "limit must be a positive integer", common.ErrInvalidInput))
			return
		}
		limit = n
	}
	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []entity.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "NO_JOURNAL", Message: "run journal not configured"})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, r, common.NewAppError(common.CodeInvalidUpload, "run id must be a UUID", common.ErrInvalidInput))
		return
	}
	run, err := s.runs.Get(r.Context(), id)
	if errors.Is(err, repository.ErrRunNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "NOT_FOUND", Message: err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunsXLSX(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "NO_JOURNAL", Message: "run journal not configured"})
		return
	}
	b, err := s.export.RunsXLSX(r.Context(), 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", mimeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="glr_runs.xlsx"`)
	_, _ = w.Write(b)
}
