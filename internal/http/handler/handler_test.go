package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rickcedwhat/assignment-checker/internal/model"
	"github.com/rickcedwhat/assignment-checker/internal/office"
	"github.com/rickcedwhat/assignment-checker/internal/service"
	serviceMocks "github.com/rickcedwhat/assignment-checker/internal/service/mocks"
)

type readinessStub bool

func (r readinessStub) Configured() bool { return bool(r) }

// multipartBody builds a multipart form with the given files and fields.
func multipartBody(t *testing.T, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("file", name)
		require.NoError(t, err)
		part.Write(content)
	}
	for key, val := range fields {
		writer.WriteField(key, val)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestRoot(t *testing.T) {
	app := fiber.New()
	app.Get("/", Root())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(readinessStub(true)))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(readinessStub(false)))

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

func TestGetMetadata(t *testing.T) {
	mockSvc := new(serviceMocks.MockMetadataService)
	app := fiber.New()
	app.Post("/get-metadata", GetMetadata(mockSvc))

	t.Run("success", func(t *testing.T) {
		body, ct := multipartBody(t, map[string][]byte{"essay.docx": []byte("zipdata")}, nil)

		expected := &model.IdentityMetadata{Author: "Jane Doe", LastModifiedBy: "John Roe"}
		mockSvc.On("Read", mock.Anything, "essay.docx", []byte("zipdata")).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/get-metadata", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.IdentityMetadata
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "Jane Doe", result.Author)
		assert.Equal(t, "John Roe", result.LastModifiedBy)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/get-metadata", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("unsupported file type", func(t *testing.T) {
		body, ct := multipartBody(t, map[string][]byte{"notes.rtf": []byte("data")}, nil)

		mockSvc.On("Read", mock.Anything, "notes.rtf", mock.Anything).
			Return(nil, office.ErrUnsupportedFormat).Once()

		req := httptest.NewRequest(http.MethodPost, "/get-metadata", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNSUPPORTED_FILE_TYPE", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("corrupt document surfaces the cause", func(t *testing.T) {
		body, ct := multipartBody(t, map[string][]byte{"essay.docx": []byte("junk")}, nil)

		mockSvc.On("Read", mock.Anything, "essay.docx", mock.Anything).
			Return(nil, fmt.Errorf("%w: zip: not a valid zip archive", office.ErrCorruptDocument)).Once()

		req := httptest.NewRequest(http.MethodPost, "/get-metadata", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "CORRUPT_DOCUMENT", res.Error.Code)
		assert.Contains(t, res.Error.Message, "not a valid zip archive")
		mockSvc.AssertExpectations(t)
	})

	t.Run("file too large", func(t *testing.T) {
		body, ct := multipartBody(t, map[string][]byte{"essay.docx": []byte("big")}, nil)

		mockSvc.On("Read", mock.Anything, "essay.docx", mock.Anything).
			Return(nil, service.ErrFileTooLarge).Once()

		req := httptest.NewRequest(http.MethodPost, "/get-metadata", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		body, ct := multipartBody(t, map[string][]byte{"essay.docx": []byte("data")}, nil)

		mockSvc.On("Read", mock.Anything, "essay.docx", mock.Anything).
			Return(nil, errors.New("boom")).Once()

		req := httptest.NewRequest(http.MethodPost, "/get-metadata", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestProcessFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockMetadataService)
	app := fiber.New()
	app.Post("/process-file", ProcessFile(mockSvc))

	t.Run("updates both fields and returns file", func(t *testing.T) {
		body, ct := multipartBody(t,
			map[string][]byte{"essay.docx": []byte("zipdata")},
			map[string]string{"author": "Jane Doe", "last_modified_by": "Jane Doe"})

		res := &service.UpdateResult{
			Data:              []byte("newzip"),
			SuggestedFilename: "essay.docx",
			ContentType:       "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		}
		mockSvc.On("Update", mock.Anything, "essay.docx", []byte("zipdata"),
			mock.MatchedBy(func(upd model.IdentityUpdate) bool {
				return upd.Author != nil && *upd.Author == "Jane Doe" &&
					upd.LastModifiedBy != nil && *upd.LastModifiedBy == "Jane Doe"
			})).Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/process-file", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, res.ContentType, resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="essay.docx"`, resp.Header.Get("Content-Disposition"))

		out, _ := io.ReadAll(resp.Body)
		assert.Equal(t, []byte("newzip"), out)
		mockSvc.AssertExpectations(t)
	})

	t.Run("absent fields stay unset", func(t *testing.T) {
		body, ct := multipartBody(t, map[string][]byte{"essay.docx": []byte("zipdata")}, nil)

		res := &service.UpdateResult{Data: []byte("zip"), SuggestedFilename: "essay.docx"}
		mockSvc.On("Update", mock.Anything, "essay.docx", mock.Anything,
			mock.MatchedBy(func(upd model.IdentityUpdate) bool {
				return upd.Author == nil && upd.LastModifiedBy == nil
			})).Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/process-file", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty field clears the property", func(t *testing.T) {
		body, ct := multipartBody(t,
			map[string][]byte{"essay.docx": []byte("zipdata")},
			map[string]string{"author": ""})

		res := &service.UpdateResult{Data: []byte("zip"), SuggestedFilename: "essay.docx"}
		mockSvc.On("Update", mock.Anything, "essay.docx", mock.Anything,
			mock.MatchedBy(func(upd model.IdentityUpdate) bool {
				return upd.Author != nil && *upd.Author == "" && upd.LastModifiedBy == nil
			})).Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/process-file", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/process-file", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("quotes in filename are escaped in the disposition", func(t *testing.T) {
		name := `my "final" essay.docx`
		body, ct := multipartBody(t, map[string][]byte{name: []byte("zip")}, nil)

		res := &service.UpdateResult{Data: []byte("zip"), SuggestedFilename: name}
		mockSvc.On("Update", mock.Anything, name, mock.Anything, mock.Anything).
			Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/process-file", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `attachment; filename="my \"final\" essay.docx"`,
			resp.Header.Get("Content-Disposition"))
		mockSvc.AssertExpectations(t)
	})

	t.Run("encode failure", func(t *testing.T) {
		body, ct := multipartBody(t, map[string][]byte{"grades.xlsx": []byte("zip")}, nil)

		mockSvc.On("Update", mock.Anything, "grades.xlsx", mock.Anything, mock.Anything).
			Return(nil, office.ErrEncodeFailed).Once()

		req := httptest.NewRequest(http.MethodPost, "/process-file", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestCheckAssignment(t *testing.T) {
	mockSvc := new(serviceMocks.MockGraderService)
	app := fiber.New()
	app.Post("/check-assignment", CheckAssignment(mockSvc))

	t.Run("text only", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		writer.WriteField("instructions_text", "Write an essay.")
		writer.WriteField("submission_text", "My essay.")
		require.NoError(t, writer.Close())

		mockSvc.On("CheckAssignment", mock.Anything, mock.MatchedBy(func(in service.CheckAssignmentInput) bool {
			return in.InstructionsText == "Write an essay." && in.SubmissionText == "My essay." &&
				len(in.InstructionsFiles) == 0 && len(in.SubmissionFiles) == 0
		})).Return("### Requirements Analysis", nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/check-assignment", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]string
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "### Requirements Analysis", result["analysis"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("files are forwarded", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("instructions_files", "rubric.txt")
		part.Write([]byte("rubric"))
		part, _ = writer.CreateFormFile("submission_files", "essay.txt")
		part.Write([]byte("essay"))
		require.NoError(t, writer.Close())

		mockSvc.On("CheckAssignment", mock.Anything, mock.MatchedBy(func(in service.CheckAssignmentInput) bool {
			return len(in.InstructionsFiles) == 1 && in.InstructionsFiles[0].Name == "rubric.txt" &&
				string(in.InstructionsFiles[0].Data) == "rubric" &&
				len(in.SubmissionFiles) == 1 && in.SubmissionFiles[0].Name == "essay.txt"
		})).Return("analysis", nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/check-assignment", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no instructions", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		writer.WriteField("submission_text", "My essay.")
		require.NoError(t, writer.Close())

		mockSvc.On("CheckAssignment", mock.Anything, mock.Anything).
			Return("", service.ErrNoInstructions).Once()

		req := httptest.NewRequest(http.MethodPost, "/check-assignment", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NO_INSTRUCTIONS", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("upstream failure", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		writer.WriteField("instructions_text", "a")
		writer.WriteField("submission_text", "b")
		require.NoError(t, writer.Close())

		mockSvc.On("CheckAssignment", mock.Anything, mock.Anything).
			Return("", errors.New("gemini unavailable")).Once()

		req := httptest.NewRequest(http.MethodPost, "/check-assignment", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestSolveQuestion(t *testing.T) {
	mockSvc := new(serviceMocks.MockGraderService)
	app := fiber.New()
	app.Post("/solve-question", SolveQuestion(mockSvc))

	t.Run("success", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("files", "question.png")
		part.Write([]byte("pngdata"))
		require.NoError(t, writer.Close())

		mockSvc.On("SolveQuestion", mock.Anything, mock.MatchedBy(func(files []service.NamedFile) bool {
			return len(files) == 1 && files[0].Name == "question.png" && string(files[0].Data) == "pngdata"
		})).Return("3. B", nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/solve-question", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]string
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "3. B", result["answer"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("no files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/solve-question", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILES_REQUIRED", res.Error.Code)
	})

	t.Run("no valid images", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("files", "notes.txt")
		part.Write([]byte("text"))
		require.NoError(t, writer.Close())

		mockSvc.On("SolveQuestion", mock.Anything, mock.Anything).
			Return("", service.ErrNoImages).Once()

		req := httptest.NewRequest(http.MethodPost, "/solve-question", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NO_VALID_IMAGES", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	passAuth := func(c *fiber.Ctx) error { return c.Next() }
	RegisterRoutes(app, new(serviceMocks.MockMetadataService), new(serviceMocks.MockGraderService),
		readinessStub(true), passAuth)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		// Fiber returns 405 by default if route exists but method doesn't match
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
