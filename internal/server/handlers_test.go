package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/entity"
	"github.com/ledgerflow/ledgerflow/internal/export"
)

type stubDocs struct {
	byID map[uuid.UUID]*entity.Document
	last *entity.Document
}

func (s *stubDocs) Create(_ context.Context, doc *entity.Document) error {
	doc.ID = uuid.New()
	s.last = doc
	return nil
}

func (s *stubDocs) UpsertByHash(ctx context.Context, doc *entity.Document) (*entity.Document, bool, error) {
	if err := s.Create(ctx, doc); err != nil {
		return nil, false, err
	}
	return doc, false, nil
}

func (s *stubDocs) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	doc, ok := s.byID[id]
	if !ok {
		return nil, common.NewAppError("NOT_FOUND", "document "+id.String(), common.ErrNotFound)
	}
	return doc, nil
}

func (s *stubDocs) ListByTenant(context.Context, uuid.UUID, int) ([]*entity.Document, error) {
	return nil, nil
}
func (s *stubDocs) SetStatus(context.Context, uuid.UUID, constants.DocStatus) error { return nil }
func (s *stubDocs) MarkFailed(context.Context, uuid.UUID, string) error             { return nil }
func (s *stubDocs) SaveClassification(context.Context, uuid.UUID, *entity.ClassificationResult) error {
	return nil
}
func (s *stubDocs) SaveExtractedData(context.Context, uuid.UUID, []entity.Record, []string) error {
	return nil
}
func (s *stubDocs) ResetForReprocess(context.Context, uuid.UUID) error { return nil }
func (s *stubDocs) Delete(context.Context, uuid.UUID) error            { return nil }

type stubJournal struct{}

func (stubJournal) InsertBatch(context.Context, []entity.JournalEntry) (int64, error) { return 0, nil }
func (stubJournal) CountByDocument(context.Context, uuid.UUID) (int, error)           { return 0, nil }
func (stubJournal) ListByDocument(context.Context, uuid.UUID) ([]entity.JournalEntry, error) {
	return nil, nil
}
func (stubJournal) ListByTenant(context.Context, uuid.UUID, *time.Time, *time.Time) ([]entity.JournalEntry, error) {
	return nil, nil
}
func (stubJournal) DeleteByDocument(context.Context, uuid.UUID) (int64, error) { return 0, nil }

type stubAudit struct{}

func (stubAudit) Record(context.Context, entity.AuditEvent) {}
func (stubAudit) ListByDocument(context.Context, uuid.UUID) ([]entity.AuditEvent, error) {
	return nil, nil
}

func testService(t *testing.T, docs *stubDocs) *Service {
	t.Helper()
	cfg := &common.Config{}
	cfg.Server.MaxUploadBytes = 1 << 20
	cfg.Server.UploadDir = t.TempDir()
	return NewService(cfg, nil, nil, docs, stubJournal{}, stubAudit{}, nil, nil, nil,
		export.NewService(stubJournal{}, nil))
}

func multipartUpload(t *testing.T, tenantID, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("tenant_id", tenantID))
	require.NoError(t, w.WriteField("uploaded_by", "tester"))
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandleUpload(t *testing.T) {
	docs := &stubDocs{}
	svc := testService(t, docs)
	router := svc.Router()

	body, contentType := multipartUpload(t, uuid.NewString(), "sales_register.csv", "a,b\n1,2\n")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, docs.last)
	assert.Equal(t, "sales_register.csv", docs.last.Filename)
	assert.NotEmpty(t, docs.last.ContentHash)

	var resp struct {
		Deduplicated bool `json:"deduplicated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Deduplicated)
}

func TestHandleUpload_RejectsBadTenant(t *testing.T) {
	svc := testService(t, &stubDocs{})
	body, contentType := multipartUpload(t, "not-a-uuid", "x.csv", "a\n")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpload_RejectsUnsupportedExtension(t *testing.T) {
	svc := testService(t, &stubDocs{})
	body, contentType := multipartUpload(t, uuid.NewString(), "malware.exe", "mz")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestHandleGetDocument(t *testing.T) {
	id := uuid.New()
	docs := &stubDocs{byID: map[uuid.UUID]*entity.Document{
		id: {ID: id, Filename: "sales.csv", Status: constants.StatusCompleted},
	}}
	svc := testService(t, docs)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/"+id.String(), nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var doc entity.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, constants.StatusCompleted, doc.Status)
}

func TestHandleGetDocument_NotFound(t *testing.T) {
	svc := testService(t, &stubDocs{byID: map[uuid.UUID]*entity.Document{}})
	req := httptest.NewRequest(http.MethodGet, "/v1/documents/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetDocument_BadID(t *testing.T) {
	svc := testService(t, &stubDocs{})
	req := httptest.NewRequest(http.MethodGet, "/v1/documents/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExportJournal_CSV(t *testing.T) {
	svc := testService(t, &stubDocs{})
	req := httptest.NewRequest(http.MethodGet, "/v1/journal/export?tenant_id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Date,Description")
}

func TestHandleExportJournal_BadFormat(t *testing.T) {
	svc := testService(t, &stubDocs{})
	req := httptest.NewRequest(http.MethodGet, "/v1/journal/export?tenant_id="+uuid.NewString()+"&format=pdf", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
