package ai

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ehisj/CustomerAIAgent/internal/config"
	"github.com/ehisj/CustomerAIAgent/internal/logger"

	openai "github.com/sashabaranov/go-openai"
)

// Transcription is the result of a speech-to-text call.
type Transcription struct {
	Text     string
	Language string
}

// SpeechClient wraps OpenAI Whisper (STT) and TTS. Speech always goes
// through OpenAI regardless of the embeddings provider.
type SpeechClient struct {
	client   *openai.Client
	ttsModel string
	ttsVoice string
}

func NewSpeechClient(cfg *config.Config) (*SpeechClient, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY for speech")
	}
	return &SpeechClient{
		client:   openai.NewClient(cfg.OpenAIAPIKey),
		ttsModel: cfg.TTSModel,
		ttsVoice: cfg.TTSVoice,
	}, nil
}

// Transcribe converts the audio file at path to text. The input is first
// re-encoded to mono 16kHz MP3 with ffmpeg so Whisper accepts any browser
// recording format; if ffmpeg fails the original file is sent as-is.
func (s *SpeechClient) Transcribe(ctx context.Context, path string) (*Transcription, error) {
	converted, err := convertToMP3(ctx, path)
	if err != nil {
		logger.Warn("Audio conversion failed, sending original file", "path", path, "error", err)
		converted = path
	}
	if converted != path {
		defer os.Remove(converted)
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: converted,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	language := resp.Language
	if language == "" {
		language = "en"
	}
	return &Transcription{Text: resp.Text, Language: language}, nil
}

// Synthesize renders text to MP3 audio bytes.
func (s *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.ttsModel),
		Input:          text,
		Voice:          openai.SpeechVoice(s.ttsVoice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading synthesized audio: %w", err)
	}
	return audio, nil
}

func convertToMP3(ctx context.Context, inputPath string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("audio file not found: %w", err)
	}

	outputPath := strings.TrimSuffix(inputPath, extOf(inputPath)) + "_converted.mp3"

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-b:a", "64k",
		outputPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg: %v: %s", err, strings.TrimSpace(string(out)))
	}
	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("ffmpeg produced no output file")
	}
	return outputPath, nil
}

func extOf(path string) string {
	if i := strings.LastIndex(path, "."); i != -1 && i > strings.LastIndex(path, "/") {
		return path[i:]
	}
	return ""
}
