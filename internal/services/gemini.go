package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"udan-bangla-backend/internal/models"
)

// ErrGeneratorUnavailable is returned when no API key was configured.
var ErrGeneratorUnavailable = errors.New("question generator is not configured")

type GeminiService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewGeminiService(apiKey, modelName string, concurrentReqs int) (*GeminiService, error) {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetTopP(0.95)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = questionSchema

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

var questionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"questionText": {Type: genai.TypeString, Description: "The question stem."},
			"options": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "An array of exactly 4 possible answers.",
			},
			"correctAnswerIndex": {Type: genai.TypeInteger, Description: "The zero-based index of the correct answer in the options array."},
			"explanation":        {Type: genai.TypeString, Description: "A brief explanation of why the answer is correct."},
		},
		Required: []string{"questionText", "options", "correctAnswerIndex", "explanation"},
	},
}

func (s *GeminiService) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// GenerateQuestions asks the model for count multiple-choice questions on
// promptContext. Items are returned as parsed; callers validate them. Model
// failures come back as *UpstreamError.
func (s *GeminiService) GenerateQuestions(ctx context.Context, promptContext string, count int) ([]models.Question, error) {
	if s == nil || s.model == nil {
		return nil, ErrGeneratorUnavailable
	}
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	resp, err := s.model.GenerateContent(ctx, genai.Text(buildQuestionPrompt(promptContext, count)))
	if err != nil {
		return nil, &UpstreamError{Message: "Question generation failed", Err: fmt.Errorf("Gemini API error: %w", err)}
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("WARNING: Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	rawText := extractText(resp)
	if rawText == "" {
		return nil, &UpstreamError{Message: "Question generation returned no data"}
	}

	questions, err := parseGeneratedQuestions(rawText)
	if err != nil {
		return nil, &UpstreamError{Message: "Question generation returned malformed output", Err: err}
	}
	log.Printf("Gemini generated %d questions for %q", len(questions), promptContext)
	return questions, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func buildQuestionPrompt(promptContext string, count int) string {
	return fmt.Sprintf(`Generate %d multiple-choice questions about "%s" specifically tailored for West Bengal competitive exams (like WBCS).
Difficulty level: Medium.
Ensure the questions are relevant to the region's history, geography, culture, or general exam syllabus.
Every question must have exactly 4 options and one correct answer given by its zero-based index.
Provide the output in English, but you may use Bengali terms where appropriate.
The output must strictly adhere to the JSON schema.`, count, promptContext)
}

type generatedQuestion struct {
	QuestionText       string   `json:"questionText"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

// parseGeneratedQuestions decodes the model's JSON array, tolerating a
// markdown fence or leading prose around it. Generated items get positional
// IDs of the form gen-<n>.
func parseGeneratedQuestions(rawText string) ([]models.Question, error) {
	rawText = strings.TrimSpace(rawText)
	rawText = strings.TrimPrefix(rawText, "```json")
	rawText = strings.TrimPrefix(rawText, "```")
	rawText = strings.TrimSuffix(rawText, "```")
	rawText = strings.TrimSpace(rawText)

	var items []generatedQuestion
	if err := json.Unmarshal([]byte(rawText), &items); err != nil {
		start := strings.Index(rawText, "[")
		end := strings.LastIndex(rawText, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("failed to parse generated questions: %w", err)
		}
		if err := json.Unmarshal([]byte(rawText[start:end+1]), &items); err != nil {
			return nil, fmt.Errorf("failed to parse generated questions: %w", err)
		}
	}

	questions := make([]models.Question, 0, len(items))
	for i, item := range items {
		questions = append(questions, models.Question{
			ID:           fmt.Sprintf("gen-%d", i),
			Text:         strings.TrimSpace(item.QuestionText),
			Options:      item.Options,
			CorrectIndex: item.CorrectAnswerIndex,
			Explanation:  strings.TrimSpace(item.Explanation),
		})
	}
	return questions, nil
}
