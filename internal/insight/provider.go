// Package insight asks a language model for a short, supportive reflection
// on an owner's recent moods.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
)

// MaxOutputTokens caps every reflection.
const MaxOutputTokens = 300

const (
	defaultAnthropicModel = "claude-haiku-4-5-20251001"
	defaultOpenAIModel    = "gpt-4o-mini"
)

// Provider generates text from a system prompt and a user prompt.
type Provider interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Settings selects and authenticates a provider. Kind is "openai" or
// "anthropic"; Endpoint overrides the SDK base URL.
type Settings struct {
	Kind     string
	APIKey   string
	Model    string
	Endpoint string
}

// New returns nil, nil when no provider kind is configured.
func New(s Settings) (Provider, error) {
	kind := strings.ToLower(strings.TrimSpace(s.Kind))
	if kind == "" {
		return nil, nil
	}
	apiKey := strings.TrimSpace(s.APIKey)
	if apiKey == "" {
		return nil, errors.New("insight: api key is empty")
	}
	modelID := strings.TrimSpace(s.Model)
	endpoint := strings.TrimRight(strings.TrimSpace(s.Endpoint), "/")

	switch kind {
	case "anthropic":
		if modelID == "" {
			modelID = defaultAnthropicModel
		}
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(endpoint))
		}
		client := anthropicclient.NewClient(opts...)
		return &languageModel{
			name:  kind + "/" + modelID,
			model: jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client)),
		}, nil

	case "openai":
		if modelID == "" {
			modelID = defaultOpenAIModel
		}
		opts := []openaioption.RequestOption{
			openaioption.WithAPIKey(apiKey),
			openaioption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, openaioption.WithBaseURL(endpoint))
		}
		client := openaiclient.NewClient(opts...)
		return &languageModel{
			name:  kind + "/" + modelID,
			model: jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client)),
		}, nil

	default:
		return nil, fmt.Errorf("insight: unsupported provider %q", s.Kind)
	}
}

type languageModel struct {
	name  string
	model jetapi.LanguageModel
}

func (m *languageModel) String() string { return m.name }

func (m *languageModel) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: system})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)})

	resp, err := jetai.GenerateText(ctx, messages,
		jetai.WithModel(m.model),
		jetai.WithMaxOutputTokens(MaxOutputTokens),
	)
	if err != nil {
		return "", fmt.Errorf("insight: %s: %w", m.name, err)
	}
	return textOf(resp)
}

func textOf(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", errors.New("insight: empty response")
	}
	var full strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.(*jetapi.TextBlock); ok {
			full.WriteString(tb.Text)
		}
	}
	text := strings.TrimSpace(full.String())
	if text == "" {
		return "", errors.New("insight: empty response")
	}
	return text, nil
}
