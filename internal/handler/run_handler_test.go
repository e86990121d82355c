package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticketscan/internal/domain"
	"ticketscan/internal/handler"
	"ticketscan/internal/service"
	"ticketscan/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRunHandler() (*handler.RunHandler, *mocks.MockRunService, *mocks.MockExportService) {
	runSvc := new(mocks.MockRunService)
	exportSvc := new(mocks.MockExportService)
	h := handler.NewRunHandler(runSvc, exportSvc, 50)
	return h, runSvc, exportSvc
}

func multipartBody(t *testing.T, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range filenames {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake scan bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestRunHandler_Create_Accepted(t *testing.T) {
	h, runSvc, _ := newRunHandler()

	run := &domain.Run{ID: uuid.New(), Status: domain.RunStatusQueued, FileCount: 2}
	processed := make(chan struct{})

	runSvc.On("Create", mock.Anything, mock.Anything).Return(run, nil)
	runSvc.On("Process", mock.Anything, run, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { close(processed) }).
		Return([]domain.TicketRow{}, nil)

	body, contentType := multipartBody(t, "a.pdf", "b.png")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/runs", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Create(c)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	select {
	case <-processed:
	case <-time.After(2 * time.Second):
		t.Fatal("background processing never started")
	}
	runSvc.AssertExpectations(t)
}

func TestRunHandler_Create_NoFiles(t *testing.T) {
	h, runSvc, _ := newRunHandler()

	body, contentType := multipartBody(t)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/runs", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	runSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRunHandler_Create_UnsupportedExtension(t *testing.T) {
	h, runSvc, _ := newRunHandler()

	body, contentType := multipartBody(t, "notes.txt")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/runs", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", resp.Error.Code)
	runSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRunHandler_Create_DuplicateNamesStayDistinct(t *testing.T) {
	h, runSvc, _ := newRunHandler()

	run := &domain.Run{ID: uuid.New(), Status: domain.RunStatusQueued, FileCount: 2}
	processed := make(chan struct{})

	runSvc.On("Create", mock.Anything, mock.Anything).Return(run, nil)
	runSvc.On("Process", mock.Anything, run, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { close(processed) }).
		Return([]domain.TicketRow{}, nil)

	body, contentType := multipartBody(t, "scan.pdf", "scan.pdf")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/runs", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Create(c)

	assert.Equal(t, http.StatusAccepted, w.Code)

	paths := runSvc.Calls[0].Arguments.Get(1).([]string)
	require.Len(t, paths, 2)
	assert.NotEqual(t, paths[0], paths[1])

	select {
	case <-processed:
	case <-time.After(2 * time.Second):
		t.Fatal("background processing never started")
	}
}

func TestRunHandler_Create_ContentTypeMismatch(t *testing.T) {
	h, runSvc, _ := newRunHandler()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="files"; filename="scan.pdf"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("not a pdf"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/runs", body)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", resp.Error.Code)
	runSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRunHandler_Get(t *testing.T) {
	h, runSvc, _ := newRunHandler()

	runID := uuid.New()
	run := &domain.Run{ID: runID, Status: domain.RunStatusCompleted, RowCount: 7}
	runSvc.On("Get", mock.Anything, runID).Return(run, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: runID.String()}}

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	runSvc.AssertExpectations(t)
}

func TestRunHandler_Get_InvalidID(t *testing.T) {
	h, _, _ := newRunHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/not-a-uuid", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunHandler_Get_NotFound(t *testing.T) {
	h, runSvc, _ := newRunHandler()

	runID := uuid.New()
	runSvc.On("Get", mock.Anything, runID).Return(nil, domain.ErrNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: runID.String()}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunHandler_List_DefaultPagination(t *testing.T) {
	h, runSvc, _ := newRunHandler()

	runSvc.On("List", mock.Anything, 0, 20).Return([]domain.Run{}, 0, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs", http.NoBody)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	runSvc.AssertExpectations(t)
}

func TestRunHandler_Export_XLSX(t *testing.T) {
	h, runSvc, exportSvc := newRunHandler()

	runID := uuid.New()
	run := &domain.Run{ID: runID, Status: domain.RunStatusCompleted}
	runSvc.On("Get", mock.Anything, runID).Return(run, nil)
	exportSvc.On("ExportRun", mock.Anything, runID, domain.ExportFormatXLSX).
		Return("Ticket_Data_Export_2026-08-30.xlsx", []byte("spreadsheet"), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String()+"/export", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: runID.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ExportContentTypes[domain.ExportFormatXLSX], w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Ticket_Data_Export_")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.Equal(t, "spreadsheet", w.Body.String())
	exportSvc.AssertExpectations(t)
}

func TestRunHandler_Export_Publish(t *testing.T) {
	h, runSvc, exportSvc := newRunHandler()

	runID := uuid.New()
	run := &domain.Run{ID: runID, Status: domain.RunStatusCompleted}
	runSvc.On("Get", mock.Anything, runID).Return(run, nil)
	exportSvc.On("ExportRun", mock.Anything, runID, domain.ExportFormatXLSX).
		Return("Ticket_Data_Export_2026-08-30.xlsx", []byte("spreadsheet"), nil)
	exportSvc.On("Publish", mock.Anything, "Ticket_Data_Export_2026-08-30.xlsx", []byte("spreadsheet"), domain.ExportFormatXLSX).
		Return("s3://exports/Ticket_Data_Export_2026-08-30.xlsx", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String()+"/export?publish=1", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: runID.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s3://exports/Ticket_Data_Export_2026-08-30.xlsx", w.Header().Get("X-Export-Location"))
	assert.Equal(t, "spreadsheet", w.Body.String())
	exportSvc.AssertExpectations(t)
}

func TestRunHandler_Export_WithoutPublishSkipsUpload(t *testing.T) {
	h, runSvc, exportSvc := newRunHandler()

	runID := uuid.New()
	run := &domain.Run{ID: runID, Status: domain.RunStatusCompleted}
	runSvc.On("Get", mock.Anything, runID).Return(run, nil)
	exportSvc.On("ExportRun", mock.Anything, runID, domain.ExportFormatXLSX).
		Return("Ticket_Data_Export_2026-08-30.xlsx", []byte("spreadsheet"), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String()+"/export", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: runID.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Export-Location"))
	exportSvc.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunHandler_Export_RunStillRunning(t *testing.T) {
	h, runSvc, exportSvc := newRunHandler()

	runID := uuid.New()
	run := &domain.Run{ID: runID, Status: domain.RunStatusRunning}
	runSvc.On("Get", mock.Anything, runID).Return(run, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String()+"/export", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: runID.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	exportSvc.AssertNotCalled(t, "ExportRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunHandler_Export_InvalidFormat(t *testing.T) {
	h, _, _ := newRunHandler()

	runID := uuid.New()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String()+"/export?format=ods", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: runID.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunHandler_Export_EmptyRun(t *testing.T) {
	h, runSvc, exportSvc := newRunHandler()

	runID := uuid.New()
	run := &domain.Run{ID: runID, Status: domain.RunStatusCompleted}
	runSvc.On("Get", mock.Anything, runID).Return(run, nil)
	exportSvc.On("ExportRun", mock.Anything, runID, domain.ExportFormatCSV).
		Return("", nil, domain.ErrEmptyResult)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String()+"/export?format=csv", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: runID.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRunHandler_Rows(t *testing.T) {
	h, runSvc, _ := newRunHandler()

	runID := uuid.New()
	rows := []domain.TicketRow{{RunID: runID, SourceFile: "a.png", Page: 1, TicketID: "123456789"}}
	runSvc.On("Rows", mock.Anything, runID).Return(rows, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String()+"/rows", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: runID.String()}}

	h.Rows(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestRunHandler_Delete(t *testing.T) {
	h, runSvc, _ := newRunHandler()

	runID := uuid.New()
	runSvc.On("Delete", mock.Anything, runID).Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/api/v1/runs/"+runID.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: runID.String()}}

	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	runSvc.AssertExpectations(t)
}

var _ service.RunService = (*mocks.MockRunService)(nil)
var _ service.ExportService = (*mocks.MockExportService)(nil)
