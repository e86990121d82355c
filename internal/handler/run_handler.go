package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ticketscan/internal/domain"
	"ticketscan/internal/service"
)

// RunHandler handles extraction run endpoints.
type RunHandler struct {
	runService    service.RunService
	exportService service.ExportService
	maxUploadSize int64
}

// NewRunHandler creates a new RunHandler. maxUploadSizeMB bounds the size of
// each uploaded file.
func NewRunHandler(runService service.RunService, exportService service.ExportService, maxUploadSizeMB int64) *RunHandler {
	return &RunHandler{
		runService:    runService,
		exportService: exportService,
		maxUploadSize: maxUploadSizeMB * 1024 * 1024,
	}
}

// Create handles POST /api/v1/runs. It accepts a multipart form with one or
// more "files" parts, queues a run, and processes it in the background.
func (h *RunHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORM", "multipart form is required")
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILES", "at least one files part is required")
		return
	}

	for _, fh := range uploads {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
		fileType, ok := domain.AllowedExtensions[ext]
		if !ok {
			HandleError(c, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, fh.Filename))
			return
		}
		// browsers often send octet-stream; when a real type is declared
		// it has to agree with the extension
		if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
			if declared, known := domain.AllowedContentTypes[ct]; !known || declared != fileType {
				HandleError(c, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedFileType, fh.Filename, ct))
				return
			}
		}
		if fh.Size > h.maxUploadSize {
			HandleError(c, fmt.Errorf("%w: %s", domain.ErrFileTooLarge, fh.Filename))
			return
		}
	}

	dir, err := os.MkdirTemp("", "ticketscan-run-*")
	if err != nil {
		HandleError(c, err)
		return
	}

	paths := make([]string, 0, len(uploads))
	for i, fh := range uploads {
		// one subdirectory per upload keeps duplicate basenames apart
		dst := filepath.Join(dir, strconv.Itoa(i), filepath.Base(fh.Filename))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			_ = os.RemoveAll(dir)
			HandleError(c, err)
			return
		}
		paths = append(paths, dst)
	}

	run, err := h.runService.Create(c.Request.Context(), paths)
	if err != nil {
		_ = os.RemoveAll(dir)
		HandleError(c, err)
		return
	}

	// Process outlives the request; give it a fresh context.
	go func() {
		defer func() { _ = os.RemoveAll(dir) }()
		if _, err := h.runService.Process(context.Background(), run, paths, service.BatchOptions{}); err != nil {
			log.Printf("runHandler.Create: processing run %s: %v", run.ID, err)
		}
	}()

	RespondAccepted(c, run)
}

// Get handles GET /api/v1/runs/:id.
func (h *RunHandler) Get(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	run, err := h.runService.Get(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, run)
}

// List handles GET /api/v1/runs.
func (h *RunHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	runs, total, err := h.runService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Files handles GET /api/v1/runs/:id/files.
func (h *RunHandler) Files(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	files, err := h.runService.Files(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, files)
}

// Rows handles GET /api/v1/runs/:id/rows.
func (h *RunHandler) Rows(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	rows, err := h.runService.Rows(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rows)
}

// Export handles GET /api/v1/runs/:id/export?format=xlsx|csv.
// With publish=1 the spreadsheet is also uploaded to the configured
// bucket and its location returned in X-Export-Location.
func (h *RunHandler) Export(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	format := domain.ExportFormat(c.DefaultQuery("format", string(domain.ExportFormatXLSX)))
	contentType, ok := domain.ExportContentTypes[format]
	if !ok {
		HandleError(c, fmt.Errorf("%w: %s", domain.ErrInvalidFormat, format))
		return
	}

	run, err := h.runService.Get(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}
	if run.Status == domain.RunStatusQueued || run.Status == domain.RunStatusRunning {
		HandleError(c, domain.ErrRunActive)
		return
	}

	filename, data, err := h.exportService.ExportRun(c.Request.Context(), runID, format)
	if err != nil {
		HandleError(c, err)
		return
	}

	if publish := c.Query("publish"); publish == "1" || publish == "true" {
		location, err := h.exportService.Publish(c.Request.Context(), filename, data, format)
		if err != nil {
			HandleError(c, err)
			return
		}
		c.Header("X-Export-Location", location)
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// Delete handles DELETE /api/v1/runs/:id.
func (h *RunHandler) Delete(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	if err := h.runService.Delete(c.Request.Context(), runID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": runID})
}

func parseRunID(c *gin.Context) (uuid.UUID, bool) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "run id must be a UUID")
		return uuid.Nil, false
	}
	return runID, true
}
