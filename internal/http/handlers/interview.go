package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mockmate/api/internal/ai"
)

// InterviewHandler fronts the AI proxy endpoints.
type InterviewHandler struct {
	ai  *ai.Service
	log *slog.Logger
}

func NewInterviewHandler(svc *ai.Service, log *slog.Logger) *InterviewHandler {
	return &InterviewHandler{ai: svc, log: log}
}

type GetQuestionsRequest struct {
	JobTitle string `json:"jobTitle"`
}

func (h *InterviewHandler) GetQuestions(ctx *gin.Context) {
	var req GetQuestionsRequest

	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.JobTitle) == "" {
		RespondBadRequest(ctx, "Job title is required")
		return
	}

	questions, err := h.ai.GenerateQuestions(ctx.Request.Context(), strings.TrimSpace(req.JobTitle))

	if err != nil {
		if errors.Is(err, ai.ErrGenerationFailed) {
			RespondBadGateway(ctx, "Failed to generate questions")
			return
		}

		h.log.Error("question generation failed", "err", err)
		RespondInternal(ctx, "Failed to generate questions")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"questions": questions,
	})
}

type AnalyzeRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Analyze returns the bare feedback object with no envelope; the frontend
// consumes it directly.
func (h *InterviewHandler) Analyze(ctx *gin.Context) {
	var req AnalyzeRequest

	if err := ctx.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		RespondBadRequest(ctx, "Question and answer are required.")
		return
	}

	feedback := h.ai.AnalyzeResponse(ctx.Request.Context(), req.Question, req.Answer)

	ctx.JSON(http.StatusOK, feedback)
}
