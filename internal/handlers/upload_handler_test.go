package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "coinwise/internal/errors"
	"coinwise/internal/models"
	"coinwise/internal/pagination"
	"coinwise/internal/services"
)

type mockIngestService struct {
	submitFn  func(ctx context.Context, userID, text string) (*models.StatementUpload, error)
	processFn func(ctx context.Context, uploadID string) error
	getFn     func(userID, uploadID string) (*models.StatementUpload, error)
	listFn    func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.StatementUpload], error)
}

func (m *mockIngestService) SubmitStatement(ctx context.Context, userID, text string) (*models.StatementUpload, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, userID, text)
	}
	return &models.StatementUpload{Base: models.Base{ID: testUploadID}, UserID: userID, Status: models.UploadStatusCompleted}, nil
}

func (m *mockIngestService) ProcessUpload(ctx context.Context, uploadID string) error {
	if m.processFn != nil {
		return m.processFn(ctx, uploadID)
	}
	return nil
}

func (m *mockIngestService) GetUpload(userID, uploadID string) (*models.StatementUpload, error) {
	if m.getFn != nil {
		return m.getFn(userID, uploadID)
	}
	return &models.StatementUpload{Base: models.Base{ID: uploadID}, UserID: userID}, nil
}

func (m *mockIngestService) GetUserUploads(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.StatementUpload], error) {
	if m.listFn != nil {
		return m.listFn(userID, page)
	}
	return &pagination.PageResponse[models.StatementUpload]{Data: []models.StatementUpload{}, Page: 1, PageSize: 20}, nil
}

var _ services.IngestServicer = (*mockIngestService)(nil)

const testUploadID = "0190c2a4-33f7-7cde-8a3b-444444444444"

func setupUploadRouter(svc services.IngestServicer) *gin.Engine {
	handler := NewUploadHandler(svc, &mockAuditService{})
	r := gin.New()
	r.Use(injectUserID(testUserID))
	r.POST("/uploads", handler.UploadStatement)
	r.GET("/uploads", handler.GetUploads)
	r.GET("/uploads/:id", handler.GetUpload)
	return r
}

func TestUploadHandler_UploadStatement(t *testing.T) {
	t.Run("returns 202 with the upload", func(t *testing.T) {
		r := setupUploadRouter(&mockIngestService{})

		rec := doRequest(r, "POST", "/uploads", `{"text":"ACCOUNT STATEMENT ..."}`)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		upload := result["upload"].(map[string]interface{})
		if upload["id"] != testUploadID {
			t.Errorf("expected upload ID in response, got %v", upload["id"])
		}
	})

	t.Run("returns 400 when text missing", func(t *testing.T) {
		r := setupUploadRouter(&mockIngestService{})

		rec := doRequest(r, "POST", "/uploads", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("surfaces too-short statement error", func(t *testing.T) {
		svc := &mockIngestService{
			submitFn: func(_ context.Context, _, _ string) (*models.StatementUpload, error) {
				return nil, apperrors.ErrStatementTooShort
			},
		}
		r := setupUploadRouter(svc)

		rec := doRequest(r, "POST", "/uploads", `{"text":"short"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "STATEMENT_TOO_SHORT")
	})
}

func TestUploadHandler_GetUpload(t *testing.T) {
	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockIngestService{
			getFn: func(_, _ string) (*models.StatementUpload, error) {
				return nil, apperrors.ErrUploadNotFound
			},
		}
		r := setupUploadRouter(svc)

		rec := doRequest(r, "GET", "/uploads/"+testUploadID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed ID", func(t *testing.T) {
		r := setupUploadRouter(&mockIngestService{})

		rec := doRequest(r, "GET", "/uploads/xyz", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
