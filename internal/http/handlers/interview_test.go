package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mockmate/api/internal/ai"
	"github.com/mockmate/api/internal/http/handlers"
)

type stubModel struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
}

func (s *stubModel) Generate(ctx context.Context, prompt string) (string, error) {
	if s.generateFn != nil {
		return s.generateFn(ctx, prompt)
	}

	return "", errors.New("not configured")
}

func newInterviewHandler(client ai.Client) *handlers.InterviewHandler {
	svc := ai.NewService(client, testLogger(), nil)

	return handlers.NewInterviewHandler(svc, testLogger())
}

func TestGetQuestionsHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		client         ai.Client
		wantStatusCode int
		wantQuestions  int
	}{
		{
			name: "success",
			body: `{"jobTitle": "Backend Engineer"}`,
			client: &stubModel{
				generateFn: func(ctx context.Context, prompt string) (string, error) {
					return `["Q1?", "Q2?", "Q3?"]`, nil
				},
			},
			wantStatusCode: http.StatusOK,
			wantQuestions:  3,
		},
		{
			name:           "missing_job_title",
			body:           `{}`,
			client:         &stubModel{},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "blank_job_title",
			body:           `{"jobTitle": "   "}`,
			client:         &stubModel{},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "upstream_failure",
			body: `{"jobTitle": "Backend Engineer"}`,
			client: &stubModel{
				generateFn: func(ctx context.Context, prompt string) (string, error) {
					return "", errors.New("model unavailable")
				},
			},
			wantStatusCode: http.StatusBadGateway,
		},
		{
			// no API key configured: placeholders instead of an error
			name:           "nil_client_placeholders",
			body:           `{"jobTitle": "Backend Engineer"}`,
			client:         nil,
			wantStatusCode: http.StatusOK,
			wantQuestions:  3,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := newInterviewHandler(tt.client)
			r := setupRouter(http.MethodPost, "/api/get-questions", h.GetQuestions)

			req := httptest.NewRequest(http.MethodPost, "/api/get-questions",
				bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantQuestions > 0 {
				var resp struct {
					Success   bool     `json:"success"`
					Questions []string `json:"questions"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if !resp.Success || len(resp.Questions) != tt.wantQuestions {
					t.Fatalf("unexpected body: %s", w.Body.String())
				}
			}
		})
	}
}

func TestAnalyzeHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		client         ai.Client
		wantStatusCode int
		wantClarity    int
	}{
		{
			name: "success_bare_feedback",
			body: `{"question": "Why Go?", "answer": "Because of goroutines."}`,
			client: &stubModel{
				generateFn: func(ctx context.Context, prompt string) (string, error) {
					return `{"clarity": 8, "relevance": 9, "suggestions": ["Expand on channels."]}`, nil
				},
			},
			wantStatusCode: http.StatusOK,
			wantClarity:    8,
		},
		{
			name:           "missing_question",
			body:           `{"answer": "Because of goroutines."}`,
			client:         &stubModel{},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_answer",
			body:           `{"question": "Why Go?"}`,
			client:         &stubModel{},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// upstream failure degrades to zero scores, still a 200
			name: "upstream_failure_degrades",
			body: `{"question": "Why Go?", "answer": "Because of goroutines."}`,
			client: &stubModel{
				generateFn: func(ctx context.Context, prompt string) (string, error) {
					return "", errors.New("model unavailable")
				},
			},
			wantStatusCode: http.StatusOK,
			wantClarity:    0,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := newInterviewHandler(tt.client)
			r := setupRouter(http.MethodPost, "/api/analyze", h.Analyze)

			req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Clarity     int      `json:"clarity"`
					Relevance   int      `json:"relevance"`
					Suggestions []string `json:"suggestions"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Clarity != tt.wantClarity {
					t.Fatalf("got clarity %d, want %d, body=%s", resp.Clarity, tt.wantClarity, w.Body.String())
				}
				if bytes.Contains(w.Body.Bytes(), []byte(`"success"`)) {
					t.Fatalf("analyze response must be the bare feedback object: %s", w.Body.String())
				}
			}
		})
	}
}
