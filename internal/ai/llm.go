package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ehisj/CustomerAIAgent/internal/config"
	"github.com/ehisj/CustomerAIAgent/internal/logger"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// FallbackAnswer is returned when the LLM is unavailable and the circuit
// breaker is open.
const FallbackAnswer = "I'm experiencing high demand right now. Please try again in a moment."

// ChatClient generates one chat completion from a system prompt and a
// user message.
type ChatClient interface {
	Generate(ctx context.Context, system, user string) (string, error)
	Close() error
}

// NewChatClient builds the configured provider's chat client wrapped in a
// circuit breaker and rate limiter.
func NewChatClient(ctx context.Context, cfg *config.Config) (ChatClient, error) {
	var inner ChatClient
	var err error

	switch cfg.EmbeddingsProvider {
	case "google", "":
		inner, err = newGoogleChat(ctx, cfg.GeminiAPIKey, cfg.GoogleLLMModel)
	case "openai":
		inner, err = newOpenAIChat(cfg.OpenAIAPIKey, cfg.OpenAILLMModel)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.EmbeddingsProvider)
	}
	if err != nil {
		return nil, err
	}

	return newResilientChat(inner), nil
}

// resilientChat wraps a ChatClient with a circuit breaker and a client-side
// rate limiter. When the breaker is open it degrades to a fixed polite
// answer instead of erroring.
type resilientChat struct {
	inner   ChatClient
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func newResilientChat(inner ChatClient) *resilientChat {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "LLM",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &resilientChat{
		inner:   inner,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(1), 5),
	}
}

func (r *resilientChat) Generate(ctx context.Context, system, user string) (string, error) {
	tracer := otel.Tracer("llm-client")
	ctx, span := tracer.Start(ctx, "llm.generate")
	defer span.End()

	span.SetAttributes(attribute.Int("llm.prompt_length", len(system)+len(user)))

	if err := r.limiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("llm.rate_limited", true))
		return "", err
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.inner.Generate(ctx, system, user)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			span.SetAttributes(attribute.Bool("llm.circuit_breaker_open", true))
			return FallbackAnswer, nil
		}
		span.SetAttributes(attribute.Bool("llm.error", true))
		return "", err
	}

	answer := result.(string)
	span.SetAttributes(attribute.Int("llm.answer_length", len(answer)))
	return answer, nil
}

func (r *resilientChat) Close() error {
	return r.inner.Close()
}

type googleChat struct {
	client *genai.Client
	model  string
}

func newGoogleChat(ctx context.Context, apiKey, model string) (*googleChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for LLM")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &googleChat{client: client, model: model}, nil
}

func (g *googleChat) Generate(ctx context.Context, system, user string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(500)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", err
	}

	var answer string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				answer += string(text)
			}
		}
		break
	}
	if answer == "" {
		return "", fmt.Errorf("no content in LLM response")
	}
	return answer, nil
}

func (g *googleChat) Close() error {
	return g.client.Close()
}

type openaiChat struct {
	client *openai.Client
	model  string
}

func newOpenAIChat(apiKey, model string) (*openaiChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY for LLM")
	}
	return &openaiChat{client: openai.NewClient(apiKey), model: model}, nil
}

func (o *openaiChat) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no content in LLM response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *openaiChat) Close() error {
	return nil
}
