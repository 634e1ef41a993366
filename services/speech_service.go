package services

import (
	"context"
	"time"

	"github.com/ehisj/CustomerAIAgent/internal/ai"
	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/utils"

	"github.com/redis/go-redis/v9"
)

// SpeechService fronts Whisper transcription and TTS synthesis, caching
// synthesized audio in Redis keyed by the text hash. The same answer text
// is often replayed (health FAQs, fallback answers), so a cache hit skips
// a paid TTS round trip.
type SpeechService struct {
	client *ai.SpeechClient
	redis  *redis.Client
	ttl    time.Duration
}

func NewSpeechService(client *ai.SpeechClient, redisClient *redis.Client, cacheTTL time.Duration) *SpeechService {
	return &SpeechService{client: client, redis: redisClient, ttl: cacheTTL}
}

// Transcribe converts the uploaded audio file to text.
func (s *SpeechService) Transcribe(ctx context.Context, audioPath string) (*ai.Transcription, error) {
	logger.Info("Starting audio transcription", "file", audioPath)
	return s.client.Transcribe(ctx, audioPath)
}

// Synthesize renders text to MP3, consulting the Redis cache first. Cache
// failures degrade to a direct TTS call.
func (s *SpeechService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	key := ttsCacheKey(text)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			logger.Debug("TTS cache hit", "bytes", len(cached))
			return cached, nil
		}
	}

	logger.Info("Starting TTS", "textLength", len(text))
	audio, err := s.client.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, key, audio, s.ttl).Err(); err != nil {
			logger.Warn("Failed to cache TTS audio", "error", err)
		}
	}
	return audio, nil
}

func ttsCacheKey(text string) string {
	return "tts:" + utils.HashKey(text)
}
