// Package llm wraps chat models used to answer questions over retrieved chunks.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// Provider names a chat model backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Config selects the chat model.
type Config struct {
	Provider        Provider
	Model           string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// UsageRecorder receives timing and token counts of each generation.
type UsageRecorder interface {
	RecordLLMUsage(d time.Duration, inputTokens, outputTokens int64)
}

// Model wraps a langchaingo chat model for text generation.
type Model struct {
	llm       llms.Model
	modelName string
	usage     UsageRecorder
}

// NewModel creates a chat model for the configured provider.
func NewModel(cfg Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	return NewFromLLM(model, cfg.Model), nil
}

// NewFromLLM wraps an already constructed langchaingo model.
func NewFromLLM(model llms.Model, name string) *Model {
	return &Model{llm: model, modelName: name}
}

// WithUsage sets where generation usage is reported.
func (m *Model) WithUsage(u UsageRecorder) *Model {
	m.usage = u
	return m
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	choice := response.Choices[0]
	if m.usage != nil {
		in, out := tokenUsage(choice.GenerationInfo)
		m.usage.RecordLLMUsage(time.Since(start), in, out)
	}
	return choice.Content, nil
}

const answerSystemPrompt = `You are a helpful assistant answering questions about scraped GitHub repositories, Medium articles and LinkedIn profiles.
Answer the user's question based ONLY on the provided context.
If the context doesn't contain enough information to answer the question, say so.
Be concise and cite the numbered sources you used, e.g. [2].`

// SynthesizeAnswer answers question from the retrieved chunks.
func (m *Model) SynthesizeAnswer(ctx context.Context, question string, chunks []models.SearchResult) (string, error) {
	userPrompt := fmt.Sprintf(`Context:
%s

Question: %s

Answer:`, FormatContext(chunks), question)

	return m.GenerateWithSystem(ctx, answerSystemPrompt, userPrompt)
}

// FormatContext renders search results as numbered context blocks.
func FormatContext(chunks []models.SearchResult) string {
	if len(chunks) == 0 {
		return "(no relevant context found)"
	}
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s / %s (doc %s, score %.2f)\n%s",
			i+1, c.Metadata.Source, c.ContentType, c.Metadata.DocID, c.Score, c.Content)
	}
	return b.String()
}

// tokenUsage reads token counts from provider generation info. Providers name
// the keys differently; missing counts are zero.
func tokenUsage(info map[string]any) (int64, int64) {
	return firstInt(info, "PromptTokens", "InputTokens", "prompt_eval_count"),
		firstInt(info, "CompletionTokens", "OutputTokens", "eval_count")
}

func firstInt(info map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
