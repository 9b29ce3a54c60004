package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"invoiceapi/internal/auth"
	"invoiceapi/internal/http/middleware"
	"invoiceapi/internal/model"
	"invoiceapi/internal/service"
	serviceMocks "invoiceapi/internal/service/mocks"
	"invoiceapi/internal/upload"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegister(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/register", Register(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, "alice", "a@x.com", "pw1").
			Return(&model.User{ID: "user-1", Username: "alice"}, nil).Once()

		req := jsonRequest(http.MethodPost, "/register", map[string]string{
			"username": "alice", "email": "a@x.com", "password": "pw1",
		})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("duplicate identity", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, "alice", "a@x.com", "pw1").
			Return(nil, service.ErrDuplicateIdentity).Once()

		req := jsonRequest(http.MethodPost, "/register", map[string]string{
			"username": "alice", "email": "a@x.com", "password": "pw1",
		})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "DUPLICATE_IDENTITY", body.Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/login", Login(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "a@x.com", "pw1").
			Return(&service.LoginResult{Token: "tok", Username: "alice"}, nil).Once()

		req := jsonRequest(http.MethodPost, "/login", map[string]string{
			"email": "a@x.com", "password": "pw1",
		})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body service.LoginResult
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "tok", body.Token)
		assert.Equal(t, "alice", body.Username)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "a@x.com", "wrong").
			Return(nil, service.ErrInvalidCredentials).Once()

		req := jsonRequest(http.MethodPost, "/login", map[string]string{
			"email": "a@x.com", "password": "wrong",
		})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_CREDENTIALS", body.Error.Code)
	})
}

// protectedApp wires the auth gate in front of the pipeline handlers the way
// RegisterRoutes does.
func protectedApp(invSvc service.InvoiceService, tokens *auth.TokenService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	gate := middleware.RequireAuth(tokens)
	app.Post("/upload", gate, UploadInvoice(invSvc))
	app.Get("/invoices", gate, ListInvoices(invSvc))
	return app
}

func multipartRequest(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadInvoice(t *testing.T) {
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	token, err := tokens.Issue("user-1", "alice")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockInvoiceService)
		no := "INV-1"
		mockSvc.On("Upload", mock.Anything, "user-1", mock.Anything).
			Return(&model.Invoice{ID: "inv-1", UserID: "user-1", OCRData: model.OCRData{InvoiceNo: &no}}, nil).Once()

		app := protectedApp(mockSvc, tokens)
		req := multipartRequest(t, "/upload", "fatura.pdf", []byte("%PDF"))
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Invoice
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "inv-1", result.ID)
		require.NotNil(t, result.OCRData.InvoiceNo)
		assert.Equal(t, "INV-1", *result.OCRData.InvoiceNo)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing token", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockInvoiceService)
		app := protectedApp(mockSvc, tokens)

		req := multipartRequest(t, "/upload", "fatura.pdf", []byte("%PDF"))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "AUTH_REQUIRED", body.Error.Code)
		mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid token", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockInvoiceService)
		app := protectedApp(mockSvc, tokens)

		req := multipartRequest(t, "/upload", "fatura.pdf", []byte("%PDF"))
		req.Header.Set(fiber.HeaderAuthorization, "Bearer bogus")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_TOKEN", body.Error.Code)
		mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no file", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockInvoiceService)
		app := protectedApp(mockSvc, tokens)

		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "FILE_REQUIRED", body.Error.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockInvoiceService)
		mockSvc.On("Upload", mock.Anything, "user-1", mock.Anything).
			Return(nil, upload.ErrFileTooLarge).Once()

		app := protectedApp(mockSvc, tokens)
		req := multipartRequest(t, "/upload", "big.pdf", []byte("%PDF"))
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	})

	t.Run("extraction error stays generic", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockInvoiceService)
		mockSvc.On("Upload", mock.Anything, "user-1", mock.Anything).
			Return(nil, errors.New("ocr extraction failed: exit status 1 (stderr: traceback)")).Once()

		app := protectedApp(mockSvc, tokens)
		req := multipartRequest(t, "/upload", "fatura.pdf", []byte("%PDF"))
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "traceback")
	})
}

func TestErrorHandler_OversizedBody(t *testing.T) {
	// A body the transport layer refuses must still come back as the intake
	// validation contract, not a bare 413.
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Post("/upload", func(c *fiber.Ctx) error {
		return fiber.ErrRequestEntityTooLarge
	})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("x"))
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body errorPayload
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestListInvoices(t *testing.T) {
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	token, err := tokens.Issue("user-1", "alice")
	require.NoError(t, err)

	t.Run("returns caller records", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockInvoiceService)
		mockSvc.On("ListByOwner", mock.Anything, "user-1").
			Return([]model.Invoice{{ID: "inv-2", UserID: "user-1"}, {ID: "inv-1", UserID: "user-1"}}, nil).Once()

		app := protectedApp(mockSvc, tokens)
		req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result []model.Invoice
		json.NewDecoder(resp.Body).Decode(&result)
		require.Len(t, result, 2)
		assert.Equal(t, "inv-2", result[0].ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing token", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockInvoiceService)
		app := protectedApp(mockSvc, tokens)

		req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		mockSvc.AssertNotCalled(t, "ListByOwner", mock.Anything, mock.Anything)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockInvoiceService)
		mockSvc.On("ListByOwner", mock.Anything, "user-1").
			Return(nil, errors.New("db down")).Once()

		app := protectedApp(mockSvc, tokens)
		req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}
