package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mockmate/api/internal/http/handlers"
)

func multipartBody(t *testing.T, field, filename string, size int) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}

	if _, err := fw.Write(bytes.Repeat([]byte("x"), size)); err != nil {
		t.Fatalf("write form file: %v", err)
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	return &buf, mw.FormDataContentType()
}

func TestResumeAnalyzeHandler(t *testing.T) {
	tests := []struct {
		name           string
		field          string
		filename       string
		size           int
		wantStatusCode int
		wantMessage    string
	}{
		{
			name:           "success_pdf",
			field:          "resume",
			filename:       "cv.pdf",
			size:           1024,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "uppercase_extension",
			field:          "resume",
			filename:       "cv.PDF",
			size:           1024,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "wrong_field_name",
			field:          "file",
			filename:       "cv.pdf",
			size:           1024,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "No resume file uploaded.",
		},
		{
			name:           "not_a_pdf",
			field:          "resume",
			filename:       "cv.docx",
			size:           1024,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Only PDF files are allowed!",
		},
		{
			name:           "too_large",
			field:          "resume",
			filename:       "cv.pdf",
			size:           5<<20 + 1,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewResumeHandler(testLogger())
			r := setupRouter(http.MethodPost, "/api/resume/analyze", h.Analyze)

			body, contentType := multipartBody(t, tt.field, tt.filename, tt.size)

			req := httptest.NewRequest(http.MethodPost, "/api/resume/analyze", body)
			req.Header.Set("Content-Type", contentType)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantMessage != "" {
				var resp struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Message != tt.wantMessage {
					t.Fatalf("got message %q, want %q", resp.Message, tt.wantMessage)
				}
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Success       bool     `json:"success"`
					FileName      string   `json:"fileName"`
					ExtractedText string   `json:"extractedText"`
					Suggestions   []string `json:"suggestions"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if !resp.Success || resp.FileName != tt.filename {
					t.Fatalf("unexpected body: %s", w.Body.String())
				}
				if len(resp.Suggestions) != 4 {
					t.Fatalf("got %d suggestions, want 4", len(resp.Suggestions))
				}
				if !strings.HasSuffix(resp.ExtractedText, "...") {
					t.Fatalf("extracted text should be truncated with an ellipsis: %q", resp.ExtractedText)
				}
			}
		})
	}
}

func TestResumeAnalyzeHandler_NoBody(t *testing.T) {
	h := handlers.NewResumeHandler(testLogger())
	r := setupRouter(http.MethodPost, "/api/resume/analyze", h.Analyze)

	req := httptest.NewRequest(http.MethodPost, "/api/resume/analyze", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}
