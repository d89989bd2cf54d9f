package handlers

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// maxResumeSize caps uploads at 5MB, matching the frontend's file picker.
const maxResumeSize = 5 << 20

// ResumeHandler accepts a PDF upload and returns canned analysis. Real text
// extraction and model-driven suggestions are not built yet.
// TODO: extract text from the PDF instead of returning the stub snippet.
type ResumeHandler struct {
	log *slog.Logger
}

func NewResumeHandler(log *slog.Logger) *ResumeHandler {
	return &ResumeHandler{log: log}
}

func (h *ResumeHandler) Analyze(ctx *gin.Context) {
	file, err := ctx.FormFile("resume")

	if err != nil {
		RespondBadRequest(ctx, "No resume file uploaded.")
		return
	}

	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		RespondBadRequest(ctx, "Only PDF files are allowed!")
		return
	}

	if file.Size > maxResumeSize {
		RespondBadRequest(ctx, "File too large. Maximum size is 5MB.")
		return
	}

	extracted := stubExtractedText(file.Filename)

	ctx.JSON(http.StatusOK, gin.H{
		"success":       true,
		"fileName":      file.Filename,
		"extractedText": extracted,
		"suggestions": []string{
			"Consider adding more quantifiable achievements.",
			"Tailor your skills section to the job description.",
			"Ensure consistent formatting throughout.",
			"Add a link to your portfolio or LinkedIn profile.",
		},
	})
}

// stubExtractedText fakes the extraction step: a fixed snippet truncated to
// 500 characters with an ellipsis, keyed off the uploaded file name.
func stubExtractedText(fileName string) string {
	text := "Simulated extracted text from " + fileName + ". " +
		"Experienced professional with a strong background in software development, " +
		"team collaboration, and delivering projects on time. Skilled in multiple " +
		"programming languages and frameworks, with a track record of improving " +
		"system performance and mentoring junior engineers. Holds relevant " +
		"certifications and a degree in computer science. Passionate about clean " +
		"code, testing, and continuous learning. Seeking opportunities to apply " +
		"these skills in a challenging role with room to grow and contribute."

	if len(text) > 500 {
		text = text[:500]
	}

	return text + "..."
}
