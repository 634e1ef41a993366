package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one question/answer exchange persisted to MongoDB.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"`
	Question       string             `bson:"question" json:"question"`
	Answer         string             `bson:"answer" json:"answer"`
	Sources        []Source           `bson:"sources,omitempty" json:"sources,omitempty"`
	IsConfident    bool               `bson:"is_confident" json:"is_confident"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
}

type ChatRequest struct {
	Message        string `json:"message" binding:"required,min=1,max=2000"`
	ConversationID string `json:"conversation_id,omitempty"`
	IncludeTTS     bool   `json:"includeTts,omitempty"`
}

type ChatResponse struct {
	Response       string   `json:"response"`
	Sources        []Source `json:"sources"`
	IsConfident    bool     `json:"isConfident"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Audio          string   `json:"audio,omitempty"`
	AudioFormat    string   `json:"audioFormat,omitempty"`
}

// VoiceChatResponse additionally carries the Whisper transcript.
type VoiceChatResponse struct {
	Transcript string `json:"transcript"`
	ChatResponse
}

type ConversationHistory struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}
