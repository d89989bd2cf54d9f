package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mockmate/api/internal/observability"
)

var ErrGenerationFailed = errors.New("failed to generate questions")

const (
	cacheCapacity = 50
	cacheKeyLimit = 100
)

// Feedback is the structured analysis of an interview answer.
type Feedback struct {
	Clarity     int      `json:"clarity"`
	Relevance   int      `json:"relevance"`
	Suggestions []string `json:"suggestions"`
}

// degraded is what callers get when the model cannot be reached or its
// output cannot be parsed. Best-effort by design: the interview flow keeps
// going instead of surfacing an upstream failure.
func degraded() Feedback {
	return Feedback{
		Clarity:     0,
		Relevance:   0,
		Suggestions: []string{"could not analyze"},
	}
}

// Service proxies question generation and answer analysis to the model.
// A nil client means no credential was configured: question generation
// falls back to templated placeholders and analysis degrades.
type Service struct {
	client Client
	cache  *Cache
	log    *slog.Logger
	prom   *observability.Prom
}

func NewService(client Client, log *slog.Logger, prom *observability.Prom) *Service {
	return &Service{
		client: client,
		cache:  NewCache(cacheCapacity),
		log:    log,
		prom:   prom,
	}
}

func (s *Service) observeCall(op string, start time.Time, result string) {
	if s.prom == nil {
		return
	}
	s.prom.AICallsTotal.WithLabelValues(op, result).Inc()
	s.prom.AICallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *Service) cacheEvent(event string) {
	if s.prom == nil {
		return
	}
	s.prom.AICacheEvents.WithLabelValues(event).Inc()
}

// GenerateQuestions asks the model for exactly 3 interview questions for the
// given job title, as a JSON array of strings.
func (s *Service) GenerateQuestions(ctx context.Context, jobTitle string) ([]string, error) {
	if s.client == nil {
		s.log.Warn("gemini api key not configured, serving placeholder questions")
		return placeholderQuestions(jobTitle), nil
	}

	prompt := fmt.Sprintf(
		"Give 3 realistic and insightful interview questions for the job role: %q.\n"+
			"Format the output as a JSON array of strings.", jobTitle)

	start := time.Now()

	text, err := s.client.Generate(ctx, prompt)

	if err != nil {
		s.observeCall("generate_questions", start, "error")
		s.log.Error("question generation failed", "jobTitle", jobTitle, "err", err)
		return nil, ErrGenerationFailed
	}

	questions, err := parseQuestions(text)

	if err != nil {
		s.observeCall("generate_questions", start, "error")
		s.log.Error("question parse failed", "jobTitle", jobTitle, "err", err)
		return nil, ErrGenerationFailed
	}

	s.observeCall("generate_questions", start, "ok")
	return questions, nil
}

// AnalyzeResponse scores an answer for clarity and relevance and suggests
// improvements. Results are memoized; failures yield a degraded result
// rather than an error.
func (s *Service) AnalyzeResponse(ctx context.Context, question, answer string) Feedback {
	key := cacheKey(question, answer)

	if f, ok := s.cache.Get(key); ok {
		s.cacheEvent("hit")
		return f
	}

	s.cacheEvent("miss")

	if s.client == nil {
		s.log.Warn("gemini api key not configured, returning degraded analysis")
		return degraded()
	}

	prompt := fmt.Sprintf(
		"Analyze the following interview answer based on the question.\n"+
			"Question: %q\n"+
			"Answer: %q\n"+
			"Provide feedback on clarity and relevance (scores out of 10), and 2-3 actionable suggestions.\n"+
			`Format the output as a JSON object with keys: "clarity" (number), "relevance" (number), "suggestions" (array of strings).`+"\n"+
			`Example: {"clarity": 8, "relevance": 9, "suggestions": ["Suggestion 1.", "Suggestion 2."]}`,
		question, answer)

	start := time.Now()

	text, err := s.client.Generate(ctx, prompt)

	if err != nil {
		s.observeCall("analyze_response", start, "degraded")
		s.log.Error("answer analysis failed", "err", err)
		return degraded()
	}

	feedback, err := parseFeedback(text)

	if err != nil {
		s.observeCall("analyze_response", start, "degraded")
		s.log.Error("answer analysis parse failed", "err", err)
		return degraded()
	}

	s.observeCall("analyze_response", start, "ok")

	if s.cache.Put(key, feedback) {
		s.cacheEvent("clear")
	}

	return feedback
}

// cacheKey truncates question+"-"+answer to its first 100 characters.
// Collisions between long near-identical inputs are acceptable.
func cacheKey(question, answer string) string {
	key := question + "-" + answer

	if len(key) > cacheKeyLimit {
		key = key[:cacheKeyLimit]
	}
	return key
}

// stripFences removes a leading ```json (or bare ```) fence and the closing
// fence the model tends to wrap JSON in.
func stripFences(text string) string {
	out := strings.TrimSpace(text)
	lower := strings.ToLower(out)

	if idx := strings.Index(lower, "```json"); idx != -1 {
		out = out[:idx] + out[idx+len("```json"):]
	}
	out = strings.Replace(out, "```", "", 1)

	return strings.TrimSpace(out)
}

func parseQuestions(text string) ([]string, error) {
	cleaned := stripFences(text)

	// isolate the array: the model sometimes adds prose around it
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")

	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array in model output")
	}

	var questions []string

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &questions); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("model returned an empty question list")
	}

	return questions, nil
}

func parseFeedback(text string) (Feedback, error) {
	cleaned := stripFences(text)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")

	if start == -1 || end == -1 || end <= start {
		return Feedback{}, fmt.Errorf("no JSON object in model output")
	}

	var f Feedback

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &f); err != nil {
		return Feedback{}, fmt.Errorf("parse feedback: %w", err)
	}

	return f, nil
}

// placeholderQuestions keeps the product usable without a model credential.
func placeholderQuestions(jobTitle string) []string {
	return []string{
		fmt.Sprintf("Tell me about your experience with %s.", jobTitle),
		fmt.Sprintf("What are your strengths relevant to a %s role?", jobTitle),
		fmt.Sprintf("Describe a challenging project you worked on as a %s.", jobTitle),
	}
}
