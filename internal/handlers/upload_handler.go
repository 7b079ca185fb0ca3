package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "coinwise/internal/errors"
	"coinwise/internal/pagination"
	"coinwise/internal/services"
)

// UploadHandler handles bank statement upload requests.
type UploadHandler struct {
	ingestService services.IngestServicer
	auditService  services.AuditServicer
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(ingestService services.IngestServicer, auditService services.AuditServicer) *UploadHandler {
	return &UploadHandler{ingestService: ingestService, auditService: auditService}
}

// UploadStatementRequest represents the statement upload payload.
type UploadStatementRequest struct {
	Text string `json:"text" binding:"required"`
}

// UploadStatement handles submitting a bank statement for processing.
// @Summary     Upload a bank statement
// @Description Submit raw statement text for parsing; transactions are extracted and stored
// @Tags        uploads
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UploadStatementRequest true "Statement text"
// @Success     202 {object} models.StatementUpload "Upload accepted"
// @Failure     400 {object} ErrorResponse "Text too short or not a bank statement"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Statement could not be parsed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /uploads [post]
func (h *UploadHandler) UploadStatement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UploadStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	upload, err := h.ingestService.SubmitStatement(c.Request.Context(), userID, req.Text)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPLOAD_STATEMENT", "statement_upload", upload.ID, c.ClientIP(),
		map[string]interface{}{"status": upload.Status})

	c.JSON(http.StatusAccepted, gin.H{"upload": upload})
}

// GetUpload handles retrieving the status of an upload.
// @Summary     Get upload by ID
// @Description Get the processing status and results of a statement upload
// @Tags        uploads
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Upload ID"
// @Success     200 {object} models.StatementUpload "Upload details"
// @Failure     400 {object} ErrorResponse "Invalid upload ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Upload not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /uploads/{id} [get]
func (h *UploadHandler) GetUpload(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	uploadID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	upload, err := h.ingestService.GetUpload(userID, uploadID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"upload": upload})
}

// GetUploads handles listing the user's statement uploads.
// @Summary     Get uploads
// @Description Get a paginated list of the user's statement uploads
// @Tags        uploads
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.StatementUpload] "Paginated uploads"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /uploads [get]
func (h *UploadHandler) GetUploads(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.ingestService.GetUserUploads(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
