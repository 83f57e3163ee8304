package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/project-management-api/internal/models"
)

type AIService struct {
	client *openai.Client
}

// SuggestedFeature is a feature draft proposed by the model. Nothing is stored.
type SuggestedFeature struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Priority    models.FeaturePriority `json:"priority"`
	Deadline    *time.Time             `json:"deadline"`
	Tags        []string               `json:"tags"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// SuggestFeatures breaks a free-text brief into feature drafts for a project.
func (s *AIService) SuggestFeatures(ctx context.Context, projectName, text string) ([]SuggestedFeature, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := time.Now().Format(time.RFC3339)
	prompt := fmt.Sprintf(`You are a project planning assistant. Split the brief below into concrete features for the project %q.

Current time: %s

Brief:
%s

Return a JSON array only, no prose:
[
  {
    "title": "short feature title",
    "description": "what has to be built",
    "priority": "one of low, medium, high, urgent",
    "deadline": "RFC3339 timestamp such as 2025-10-28T23:59:59Z, or null when the brief gives none",
    "tags": ["short", "labels"]
  }
]

Rules:
- Return [] when the brief contains no work
- Turn relative dates ("tomorrow", "next week") into absolute timestamps`, projectName, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseSuggestedFeatures(resp.Choices[0].Message.Content)
}

// parseSuggestedFeatures decodes the model output, tolerating a fenced code block.
func parseSuggestedFeatures(content string) ([]SuggestedFeature, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var features []SuggestedFeature
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &features); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}
	return features, nil
}
