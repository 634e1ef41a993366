package services

import (
	"context"
	"strings"
	"testing"

	"github.com/ehisj/CustomerAIAgent/internal/vectorstore"
)

func TestIsConfident(t *testing.T) {
	cases := []struct {
		name      string
		distances []float64
		threshold float64
		want      bool
	}{
		{"identical chunks", []float64{0.0, 0.0}, 0.7, true},
		{"orthogonal chunks", []float64{1.0, 1.0}, 0.7, false},
		{"empty results", nil, 0.7, false},
		{"empty results permissive threshold", nil, 1.0, false},
		{"mean exactly at cutoff", []float64{0.1, 0.5, 0.3}, 0.7, false},
		{"mean just under cutoff", []float64{0.1, 0.4, 0.3}, 0.7, true},
		{"single near chunk", []float64{0.2}, 0.7, true},
		{"single far chunk", []float64{1.8}, 0.7, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsConfident(c.distances, c.threshold); got != c.want {
				t.Errorf("IsConfident(%v, %v) = %v, want %v", c.distances, c.threshold, got, c.want)
			}
		})
	}
}

// stubChat records the prompts it receives and echoes a canned answer.
type stubChat struct {
	system string
	user   string
}

func (s *stubChat) Generate(ctx context.Context, system, user string) (string, error) {
	s.system = system
	s.user = user
	return "canned answer", nil
}

func (s *stubChat) Close() error { return nil }

func TestGenerateAnswerConfidentPrompt(t *testing.T) {
	chat := &stubChat{}
	svc := NewLLMService(chat, 0.7)

	chunks := []vectorstore.Neighbor{
		{Text: "We ship worldwide.", Meta: vectorstore.ChunkMeta{Source: "shipping.txt"}, Distance: 0.1},
		{Text: "Returns accepted within 30 days.", Meta: vectorstore.ChunkMeta{Source: "returns.txt"}, Distance: 0.2},
	}

	answer, err := svc.GenerateAnswer(context.Background(), "do you ship to Japan?", chunks)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !answer.IsConfident {
		t.Error("expected confident answer for close chunks")
	}
	if answer.Response != "canned answer" {
		t.Errorf("response = %q", answer.Response)
	}

	if !strings.Contains(chat.user, "[Source 1: shipping.txt]") || !strings.Contains(chat.user, "[Source 2: returns.txt]") {
		t.Errorf("prompt missing numbered sources:\n%s", chat.user)
	}
	if strings.Contains(chat.user, "retrieval confidence is LOW") {
		t.Error("confident prompt should not carry the low-confidence warning")
	}
	if !strings.Contains(chat.system, "Athena") {
		t.Error("system prompt missing persona")
	}
}

func TestGenerateAnswerLowConfidencePrompt(t *testing.T) {
	chat := &stubChat{}
	svc := NewLLMService(chat, 0.7)

	chunks := []vectorstore.Neighbor{
		{Text: "Unrelated text.", Meta: vectorstore.ChunkMeta{Source: "misc.txt"}, Distance: 0.9},
	}

	answer, err := svc.GenerateAnswer(context.Background(), "what is your refund policy?", chunks)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if answer.IsConfident {
		t.Error("expected low confidence for distant chunks")
	}
	if !strings.Contains(chat.user, "retrieval confidence is LOW") {
		t.Errorf("low-confidence prompt missing warning:\n%s", chat.user)
	}
}

func TestFormatSources(t *testing.T) {
	long := strings.Repeat("x", 250)
	chunks := []vectorstore.Neighbor{
		{Text: long, Meta: vectorstore.ChunkMeta{Source: "long.txt"}, Distance: 0.25},
		{Text: "short", Distance: 0.5},
	}

	sources := FormatSources(chunks)
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}

	if len(sources[0].Snippet) != 203 || !strings.HasSuffix(sources[0].Snippet, "...") {
		t.Errorf("long snippet not truncated to 200 chars plus ellipsis, len %d", len(sources[0].Snippet))
	}
	if sources[0].Relevance != "0.75" {
		t.Errorf("relevance = %q, want 0.75", sources[0].Relevance)
	}
	if sources[1].Source != "Unknown" {
		t.Errorf("missing source should render as Unknown, got %q", sources[1].Source)
	}
	if sources[1].Snippet != "short" {
		t.Errorf("short snippet should pass through, got %q", sources[1].Snippet)
	}
}
