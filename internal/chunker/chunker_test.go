package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"hello   world", "hello world"},
		{"  hello \n\t world \r\n", "hello world"},
		{"\n\t   ", ""},
		{"", ""},
		{"already clean", "already clean"},
	}

	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSplitShortCircuit(t *testing.T) {
	chunks := Split("hello   world", 500, 50)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "hello world" {
		t.Errorf("expected normalized text back, got %q", chunks[0])
	}
}

func TestSplitExactChunkSize(t *testing.T) {
	text := strings.Repeat("a", 500)
	chunks := Split(text, 500, 50)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for text of exactly chunkSize, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("chunk does not equal input")
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if chunks := Split("", 500, 50); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(chunks))
	}
	if chunks := Split(" \n\t ", 500, 50); len(chunks) != 0 {
		t.Errorf("expected no chunks for whitespace-only input, got %d", len(chunks))
	}
}

func TestSplitNoSpacesTerminates(t *testing.T) {
	// Pure raw-cut fallback path: no spaces, no periods.
	text := strings.Repeat("a", 1200)
	chunks := Split(text, 500, 50)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantLens := []int{500, 500, 300}
	for i, c := range chunks {
		if len(c) != wantLens[i] {
			t.Errorf("chunk %d: len = %d, want %d", i, len(c), wantLens[i])
		}
	}
}

func TestSplitPeriodsWithoutSpaceTerminate(t *testing.T) {
	// Periods with no following space must not match the sentence cut.
	text := strings.Repeat("a.b.c.", 300)
	chunks := Split(text, 500, 50)

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if i < len(chunks)-1 && len(c) > 500 {
			t.Errorf("chunk %d exceeds chunkSize: %d", i, len(c))
		}
	}
}

func TestSplitSentenceBoundary(t *testing.T) {
	text := strings.Repeat("a", 448) + ". " + strings.Repeat("b", 200)
	chunks := Split(text, 500, 50)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "a.") {
		t.Errorf("first chunk should end right after the period, got suffix %q", chunks[0][len(chunks[0])-5:])
	}
	if !strings.HasSuffix(chunks[1], strings.Repeat("b", 200)) {
		t.Errorf("second chunk should carry the remainder")
	}
}

func TestSplitWordBoundary(t *testing.T) {
	// Spaces but no sentence terminators: cuts fall on word boundaries.
	word := "wordsmith" // 9 chars
	text := strings.TrimSpace(strings.Repeat(word+" ", 200))
	chunks := Split(text, 500, 50)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 500 {
			t.Errorf("chunk %d exceeds chunkSize: %d", i, len(c))
		}
		if !strings.HasSuffix(c, word) {
			t.Errorf("chunk %d should end on a whole word, got suffix %q", i, c[len(c)-12:])
		}
	}
}

func TestSplitSizeBound(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	chunks := Split(text, 500, 50)

	for i, c := range chunks {
		if i < len(chunks)-1 && len(c) > 500 {
			t.Errorf("chunk %d: boundary trim may only shorten a window, len = %d", i, len(c))
		}
	}
}

func TestSplitCoversInput(t *testing.T) {
	// Every word is unique so each chunk matches the normalized text at
	// exactly one position and the coverage walk cannot latch onto an
	// earlier duplicate.
	var b strings.Builder
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&b, "word%03d", i)
		switch {
		case i%9 == 8:
			b.WriteString(". ")
		case i%7 == 3:
			b.WriteString("\n\t")
		default:
			b.WriteString(" ")
		}
	}
	text := b.String()
	normalized := Normalize(text)
	chunks := Split(text, 500, 50)

	prevEnd := 0
	for i, c := range chunks {
		abs := strings.Index(normalized, c)
		if abs < 0 {
			t.Fatalf("chunk %d is not a substring of the normalized input", i)
		}
		if abs > prevEnd {
			t.Errorf("gap before chunk %d: starts at %d, previous coverage ended at %d", i, abs, prevEnd)
		}
		if abs+len(c) > prevEnd {
			prevEnd = abs + len(c)
		}
	}

	if prevEnd < len(normalized) {
		t.Errorf("chunks cover %d of %d normalized characters", prevEnd, len(normalized))
	}
}

func TestSplitAdversarialOverlapsTerminate(t *testing.T) {
	inputs := []string{
		strings.Repeat("x", 2000),
		strings.Repeat("y ", 1000),
		strings.Repeat("end. ", 400),
	}
	// Overlap 99 is one short of the chunk size. On the spaced inputs the
	// word cut lands right past the window start, so only the raw re-cut
	// keeps the window advancing.
	for _, in := range inputs {
		for _, overlap := range []int{0, 10, 50, 99} {
			chunks := Split(in, 100, overlap)
			if len(chunks) == 0 {
				t.Errorf("expected chunks for overlap %d", overlap)
			}
		}
	}
}

func TestSplitInvalidParamsFallBackToDefaults(t *testing.T) {
	text := strings.Repeat("a", 600)
	chunks := Split(text, 50, 50) // overlap == chunkSize is invalid
	if len(chunks) != 2 {
		t.Fatalf("expected default 500/50 windows, got %d chunks", len(chunks))
	}
}
