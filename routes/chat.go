package routes

import (
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ehisj/CustomerAIAgent/internal/config"
	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/internal/vectorstore"
	"github.com/ehisj/CustomerAIAgent/models"
	"github.com/ehisj/CustomerAIAgent/services"
	"github.com/ehisj/CustomerAIAgent/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// audio mime types mapped to file extensions Whisper accepts. Codec
// suffixes like ";codecs=opus" are stripped before lookup.
var mimeToExt = map[string]string{
	"audio/webm":  ".webm",
	"audio/mp4":   ".mp4",
	"audio/m4a":   ".m4a",
	"audio/mpeg":  ".mp3",
	"audio/wav":   ".wav",
	"audio/wave":  ".wav",
	"audio/x-wav": ".wav",
	"audio/ogg":   ".ogg",
	"audio/flac":  ".flac",
}

// ChatDeps bundles the collaborators the chat endpoints need. Speech and
// History may be nil when OpenAI or MongoDB is not configured; the routes
// degrade instead of failing.
type ChatDeps struct {
	Config    *config.Config
	Documents *services.DocumentService
	LLM       *services.LLMService
	Speech    *services.SpeechService
	History   *services.HistoryService
	Cache     *services.RetrievalCache
}

func SetupChatRoutes(router *gin.Engine, deps ChatDeps) {
	chat := router.Group("/api/chat")

	chat.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	chat.POST("/text", func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "No message provided", gin.H{"error": err.Error()})
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			utils.RespondWithBadRequest(c, "No message provided", nil)
			return
		}

		logger.Info("Processing text chat", "messageLength", len(req.Message))

		chunks, err := retrieveChunks(c, deps, req.Message)
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}

		answer, err := deps.LLM.GenerateAnswer(c.Request.Context(), req.Message, chunks)
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}

		sources := services.FormatSources(chunks)
		conversationID := req.ConversationID
		if conversationID == "" {
			conversationID = uuid.New().String()
		}
		saveHistory(c, deps, conversationID, req.Message, answer, sources)

		resp := models.ChatResponse{
			Response:       answer.Response,
			Sources:        sources,
			IsConfident:    answer.IsConfident,
			ConversationID: conversationID,
		}

		if req.IncludeTTS {
			if deps.Speech == nil {
				utils.RespondWithUnavailable(c, "Speech is not configured")
				return
			}
			audio, err := deps.Speech.Synthesize(c.Request.Context(), answer.Response)
			if err != nil {
				utils.RespondWithInternalError(c, err.Error(), nil)
				return
			}
			resp.Audio = base64.StdEncoding.EncodeToString(audio)
			resp.AudioFormat = "mp3"
		}

		c.JSON(http.StatusOK, resp)
	})

	chat.POST("/voice", func(c *gin.Context) {
		if deps.Speech == nil {
			utils.RespondWithUnavailable(c, "Speech is not configured")
			return
		}

		file, err := c.FormFile("audio")
		if err != nil {
			utils.RespondWithBadRequest(c, "No audio file provided", nil)
			return
		}
		if file.Size > deps.Config.MaxAudioFileSize {
			utils.RespondWithTooLarge(c, "Audio file exceeds the size limit")
			return
		}

		audioPath := filepath.Join(deps.Config.UploadDir, uniqueAudioName(file))
		if err := c.SaveUploadedFile(file, audioPath); err != nil {
			utils.RespondWithInternalError(c, "Failed to store audio upload", nil)
			return
		}
		defer os.Remove(audioPath)

		logger.Info("Processing voice chat", "fileSize", file.Size)

		transcription, err := deps.Speech.Transcribe(c.Request.Context(), audioPath)
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}
		if strings.TrimSpace(transcription.Text) == "" {
			utils.RespondWithBadRequest(c, "Could not transcribe audio", nil)
			return
		}

		chunks, err := retrieveChunks(c, deps, transcription.Text)
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}

		answer, err := deps.LLM.GenerateAnswer(c.Request.Context(), transcription.Text, chunks)
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}

		audio, err := deps.Speech.Synthesize(c.Request.Context(), answer.Response)
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}

		sources := services.FormatSources(chunks)
		conversationID := c.PostForm("conversation_id")
		if conversationID == "" {
			conversationID = uuid.New().String()
		}
		saveHistory(c, deps, conversationID, transcription.Text, answer, sources)

		c.JSON(http.StatusOK, models.VoiceChatResponse{
			Transcript: transcription.Text,
			ChatResponse: models.ChatResponse{
				Response:       answer.Response,
				Sources:        sources,
				IsConfident:    answer.IsConfident,
				ConversationID: conversationID,
				Audio:          base64.StdEncoding.EncodeToString(audio),
				AudioFormat:    "mp3",
			},
		})
	})

	chat.GET("/conversations/:conversation_id", func(c *gin.Context) {
		if deps.History == nil {
			utils.RespondWithUnavailable(c, "Conversation history is not configured")
			return
		}

		history, err := deps.History.GetConversation(c.Request.Context(), c.Param("conversation_id"))
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}
		c.JSON(http.StatusOK, history)
	})
}

func retrieveChunks(c *gin.Context, deps ChatDeps, query string) ([]vectorstore.Neighbor, error) {
	ctx := c.Request.Context()

	if cached, ok := deps.Cache.Get(ctx, query, deps.Config.TopK); ok {
		return cached, nil
	}

	chunks, err := deps.Documents.QueryRelevant(ctx, query, deps.Config.TopK)
	if err != nil {
		return nil, err
	}
	deps.Cache.Put(ctx, query, deps.Config.TopK, chunks)
	return chunks, nil
}

// saveHistory is best-effort: a history write failure never fails the
// chat response.
func saveHistory(c *gin.Context, deps ChatDeps, conversationID, question string, answer *services.Answer, sources []models.Source) {
	if deps.History == nil {
		return
	}
	if err := deps.History.SaveExchange(c.Request.Context(), conversationID, question, answer, sources); err != nil {
		logger.Warn("Failed to save conversation exchange", "conversationId", conversationID, "error", err)
	}
}

// uniqueAudioName builds a collision-free filename whose extension is
// derived from the upload's mime type, since Whisper keys format
// detection off the extension.
func uniqueAudioName(file *multipart.FileHeader) string {
	baseMime := strings.TrimSpace(strings.Split(file.Header.Get("Content-Type"), ";")[0])
	ext, ok := mimeToExt[baseMime]
	if !ok {
		ext = filepath.Ext(file.Filename)
		if ext == "" {
			ext = ".webm"
		}
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.New().String()[:8], ext)
}
