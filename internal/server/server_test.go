package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/docx"
	"github.com/joseph-ayodele/glr-generator/internal/docx/docxtest"
	"github.com/joseph-ayodele/glr-generator/internal/llm"
	"github.com/joseph-ayodele/glr-generator/internal/pdf"
	"github.com/joseph-ayodele/glr-generator/internal/pipeline"
	"github.com/joseph-ayodele/glr-generator/internal/repository"
)

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, []byte) (pdf.Result, error) {
	return pdf.Result{Text: "Insured is Jane Roe. Claim GO-77.", Pages: 1}, nil
}

type stubModel struct {
	reply string
	err   error
	calls int
}

func (s *stubModel) Complete(context.Context, string) (string, error) {
	s.calls++
	return s.reply, s.err
}

var pdfBytes = []byte("%PDF-1.4\n%%EOF\n")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func guideOneTemplate() []byte {
	return docxtest.Build(
		docxtest.P("GuideOne Insurance - General Loss Report") +
			docxtest.P("Insured: [XM8_INSURED_NAME]") +
			docxtest.Table([]string{"Claim #", "[XM8_CLAIM_NUMBER]"}),
	)
}

type fixture struct {
	srv   *Server
	model *stubModel
	runs  repository.RunRepository
	h     http.Handler
}

func newFixture(t *testing.T, model *stubModel) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.Migrate(ctx, db))
	runs := repository.NewRunRepository(db, quietLogger())

	proc := pipeline.NewProcessor(pipeline.Config{MaxUploadBytes: 1 << 20}, quietLogger(), stubExtractor{}, model, runs)
	srv := New(Config{MaxUploadBytes: 1 << 20}, proc, runs, db, quietLogger())
	return &fixture{srv: srv, model: model, runs: runs, h: srv.Router()}
}

type part struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, url string, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGenerateReturnsDocx(t *testing.T) {
	f := newFixture(t, &stubModel{reply: "[XM8_INSURED_NAME]: Jane Roe\n[XM8_CLAIM_NUMBER]: GO-77\n"})

	rec := f.do(multipartRequest(t, "/api/v1/generate",
		part{"template", "guideone.docx", guideOneTemplate()},
		part{"report", "photos.pdf", pdfBytes},
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, constants.MIMEDocx, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="generated_glr.docx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "GuideOne", rec.Header().Get(headerVariant))
	assert.NotEmpty(t, rec.Header().Get(headerRunID))

	doc, err := docx.Open(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "GuideOne Insurance - General Loss Report\nInsured: Jane Roe\nClaim #\nGO-77", doc.Text())

	runs, err := f.runs.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rec.Header().Get(headerRunID), runs[0].ID.String())
	assert.Equal(t, "FILLED", runs[0].Status)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("unknown template is 422", func(t *testing.T) {
		f := newFixture(t, &stubModel{})
		rec := f.do(multipartRequest(t, "/api/v1/generate",
			part{"template", "letter.docx", docxtest.Build(docxtest.P("Hello"))},
			part{"report", "photos.pdf", pdfBytes},
		))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "UNKNOWN_TEMPLATE", decode(t, rec)["error"])
		assert.Zero(t, f.model.calls)
	})

	t.Run("model failure is 502 with provider body", func(t *testing.T) {
		f := newFixture(t, &stubModel{err: &llm.CallError{Status: 402, Body: `{"error":{"message":"Insufficient credits"}}`}})
		rec := f.do(multipartRequest(t, "/api/v1/generate",
			part{"template", "g.docx", guideOneTemplate()},
			part{"report", "photos.pdf", pdfBytes},
		))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "MODEL_CALL_FAILED", body["error"])
		assert.EqualValues(t, 402, body["provider_status"])
		assert.Contains(t, body["provider_body"], "Insufficient credits")
	})

	t.Run("wrong report type is 400", func(t *testing.T) {
		f := newFixture(t, &stubModel{})
		rec := f.do(multipartRequest(t, "/api/v1/generate",
			part{"template", "g.docx", guideOneTemplate()},
			part{"report", "photos.png", []byte("\x89PNG\r\n\x1a\n")},
		))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_UPLOAD", decode(t, rec)["error"])
	})

	t.Run("missing report is 400", func(t *testing.T) {
		f := newFixture(t, &stubModel{})
		rec := f.do(multipartRequest(t, "/api/v1/generate", part{"template", "g.docx", guideOneTemplate()}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not multipart is 400", func(t *testing.T) {
		f := newFixture(t, &stubModel{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		assert.Equal(t, http.StatusBadRequest, f.do(req).Code)
	})
}

func TestExtract(t *testing.T) {
	reply := "[XM8_INSURED_NAME]: Jane Roe\n[XM8_CLAIM_NUMBER]: Not observed\n"

	t.Run("json", func(t *testing.T) {
		f := newFixture(t, &stubModel{reply: reply})
		rec := f.do(multipartRequest(t, "/api/v1/extract",
			part{"template", "g.docx", guideOneTemplate()},
			part{"report", "photos.pdf", pdfBytes},
		))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got extractResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "GuideOne", got.Variant)
		assert.Equal(t, reply, got.Reply)
		assert.Equal(t, map[string]string{"XM8_INSURED_NAME": "Jane Roe", "XM8_CLAIM_NUMBER": "Not observed"}, got.Fields.Map())
		assert.Equal(t, 2, got.Replacements)
	})

	t.Run("xlsx", func(t *testing.T) {
		f := newFixture(t, &stubModel{reply: reply})
		rec := f.do(multipartRequest(t, "/api/v1/extract?format=xlsx",
			part{"template", "g.docx", guideOneTemplate()},
			part{"report", "photos.pdf", pdfBytes},
		))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, mimeXLSX, rec.Header().Get("Content-Type"))

		wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer wb.Close()
		rows, err := wb.GetRows("Fields")
		require.NoError(t, err)
		assert.Len(t, rows, len(constants.FieldsFor(constants.GuideOne))+1)
	})
}

func TestDetect(t *testing.T) {
	f := newFixture(t, &stubModel{})
	rec := f.do(multipartRequest(t, "/api/v1/detect", part{"template", "g.docx", guideOneTemplate()}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "GuideOne", body["variant"])
	assert.Len(t, body["fields"], len(constants.FieldsFor(constants.GuideOne)))
}

func TestRunsEndpoints(t *testing.T) {
	f := newFixture(t, &stubModel{reply: "[XM8_INSURED_NAME]: Jane Roe"})
	gen := f.do(multipartRequest(t, "/api/v1/generate",
		part{"template", "g.docx", guideOneTemplate()},
		part{"report", "photos.pdf", pdfBytes},
	))
	require.Equal(t, http.StatusOK, gen.Code)
	runID := gen.Header().Get(headerRunID)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode(t, rec)["runs"].([]any)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].(map[string]any)["id"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+runID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "g.docx", decode(t, rec)["template_name"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs/6f1c1c8e-0000-4000-8000-000000000000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeXLSX, rec.Header().Get("Content-Type"))
}

func TestHealthIndexAndMetrics(t *testing.T) {
	f := newFixture(t, &stubModel{})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok", "journal": "ok"}, decode(t, rec))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="template"`)
	assert.Contains(t, rec.Body.String(), `name="report"`)

	f.do(multipartRequest(t, "/api/v1/generate", part{"template", "l.docx", docxtest.Build(docxtest.P("Hi"))}, part{"report", "r.pdf", pdfBytes}))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := rec.Body.String()
	assert.Contains(t, metrics, `glr_generations_total{outcome="unknown_template",variant="none"} 1`)
	assert.Contains(t, metrics, `glr_http_requests_total{code="422",method="POST",route="/api/v1/generate"} 1`)
}
