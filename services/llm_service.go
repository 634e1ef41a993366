package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ehisj/CustomerAIAgent/internal/ai"
	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/internal/vectorstore"
	"github.com/ehisj/CustomerAIAgent/models"
)

const systemPrompt = `You are Athena, a warm and personable customer service agent. Think of yourself as a friendly colleague who genuinely wants to help - not a robotic assistant.

PERSONALITY:
- Be warm, approachable, and conversational - like talking to a helpful friend
- Show genuine interest in helping the customer solve their problem
- Use natural, everyday language (avoid corporate jargon or overly formal phrases)
- It's okay to use casual expressions like "Got it!", "No problem!", "Happy to help!"
- Acknowledge the customer's feelings when appropriate ("I totally understand that can be frustrating")
- Keep responses concise but not curt - be helpful without overwhelming

CONVERSATION FLOW:
- Greet naturally on first contact, but don't repeat greetings in follow-up messages
- Listen first, then help - make sure you understand what they're asking
- If something is unclear, ask a friendly clarifying question
- End on a positive note - offer further help or wish them well

ACCURACY RULES (non-negotiable):
- Only answer using information from the provided context
- If you don't have the information, be honest: "Hmm, I don't have that info in front of me right now. Could you tell me a bit more about what you're looking for?"
- Never make up facts or guess at specifics like prices, dates, or policies
- If you're only partially sure, say so naturally: "From what I can see..." or "I believe..."

Remember: Being genuinely helpful means being honest. It's better to say "let me find out" than to give wrong information.`

// IsConfident reports whether retrieved chunks are close enough to trust
// as grounding context. An empty result set uses a neutral mean distance
// of 1.0, which never passes. With the default threshold of 0.7 the
// cutoff is a mean cosine distance below 0.3.
func IsConfident(distances []float64, confidenceThreshold float64) bool {
	avg := 1.0
	if len(distances) > 0 {
		sum := 0.0
		for _, d := range distances {
			sum += d
		}
		avg = sum / float64(len(distances))
	}
	return avg < (1 - confidenceThreshold)
}

// Answer is a generated reply plus its retrieval confidence signal.
type Answer struct {
	Response    string
	IsConfident bool
}

// LLMService formats retrieved context into a grounded prompt and asks
// the chat model for an answer.
type LLMService struct {
	chat                ai.ChatClient
	confidenceThreshold float64
}

func NewLLMService(chat ai.ChatClient, confidenceThreshold float64) *LLMService {
	return &LLMService{chat: chat, confidenceThreshold: confidenceThreshold}
}

// GenerateAnswer builds the user message from the retrieved chunks and the
// question. When retrieval confidence is low the prompt warns the model to
// hedge and ask clarifying questions instead of asserting.
func (s *LLMService) GenerateAnswer(ctx context.Context, query string, chunks []vectorstore.Neighbor) (*Answer, error) {
	logger.Info("Generating LLM response", "query", truncate(query, 50))

	distances := make([]float64, len(chunks))
	for i, c := range chunks {
		distances[i] = c.Distance
	}
	confident := IsConfident(distances, s.confidenceThreshold)

	contextText := formatContext(chunks)

	var userMessage string
	if confident {
		userMessage = fmt.Sprintf("Context from our knowledge base:\n\n%s\n\n---\n\nCustomer question: %s", contextText, query)
	} else {
		userMessage = fmt.Sprintf("Context from our knowledge base (Note: retrieval confidence is LOW - be extra careful):\n\n%s\n\n---\n\nCustomer question: %s\n\nIMPORTANT: The retrieved context may not be highly relevant. If you're unsure, acknowledge this and ask clarifying questions.", contextText, query)
	}

	answer, err := s.chat.Generate(ctx, systemPrompt, userMessage)
	if err != nil {
		return nil, fmt.Errorf("LLM failed: %w", err)
	}

	logger.Info("LLM response generated", "isConfident", confident, "responseLength", len(answer))
	return &Answer{Response: answer, IsConfident: confident}, nil
}

// FormatSources converts neighbors into citation entries for API
// responses: source name, a 200 character snippet and the similarity
// score with two decimals.
func FormatSources(chunks []vectorstore.Neighbor) []models.Source {
	sources := make([]models.Source, 0, len(chunks))
	for _, chunk := range chunks {
		source := chunk.Meta.Source
		if source == "" {
			source = "Unknown"
		}
		snippet := chunk.Text
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		sources = append(sources, models.Source{
			Source:    source,
			Snippet:   snippet,
			Relevance: fmt.Sprintf("%.2f", 1-chunk.Distance),
		})
	}
	return sources
}

func formatContext(chunks []vectorstore.Neighbor) string {
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		source := chunk.Meta.Source
		if source == "" {
			source = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("[Source %d: %s]\n%s", i+1, source, chunk.Text))
	}
	return strings.Join(parts, "\n\n---\n\n")
}
