package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HistoryService persists chat exchanges to MongoDB so a conversation can
// be replayed by its conversation_id.
type HistoryService struct {
	messages *mongo.Collection
}

func NewHistoryService(db *mongo.Database) *HistoryService {
	return &HistoryService{messages: db.Collection("messages")}
}

// SaveExchange records one question/answer pair. History is best-effort
// from the chat route's point of view; callers log failures rather than
// failing the response.
func (h *HistoryService) SaveExchange(ctx context.Context, conversationID, question string, answer *Answer, sources []models.Source) error {
	message := models.Message{
		ConversationID: conversationID,
		Question:       question,
		Answer:         answer.Response,
		Sources:        sources,
		IsConfident:    answer.IsConfident,
		Timestamp:      time.Now().UTC(),
	}

	if _, err := h.messages.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("failed to save exchange: %w", err)
	}
	return nil
}

// GetConversation returns all exchanges of a conversation, oldest first.
func (h *HistoryService) GetConversation(ctx context.Context, conversationID string) (*models.ConversationHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := h.messages.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode conversation: %w", err)
	}

	logger.Debug("Loaded conversation", "conversationId", conversationID, "messages", len(messages))
	return &models.ConversationHistory{ConversationID: conversationID, Messages: messages}, nil
}
