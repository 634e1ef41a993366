package routes

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ehisj/CustomerAIAgent/internal/config"
	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/services"
	"github.com/ehisj/CustomerAIAgent/utils"

	"github.com/gin-gonic/gin"
)

// plain-text formats the raw ingest endpoint accepts. Richer formats go
// through /api/documents/upload, which runs the parsers.
var ingestExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
}

const maxIngestFileSize = 10 * 1024 * 1024

type ingestTextRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// IngestDeps bundles what the raw ingest endpoints need.
type IngestDeps struct {
	Config    *config.Config
	Documents *services.DocumentService
	Cache     *services.RetrievalCache
}

func SetupIngestRoutes(router *gin.Engine, deps IngestDeps) {
	ingest := router.Group("/api/ingest")

	// POST /api/ingest takes a small plain-text file.
	ingest.POST("", func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided", nil)
			return
		}
		if file.Size > maxIngestFileSize {
			utils.RespondWithTooLarge(c, "File exceeds the size limit")
			return
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !ingestExtensions[ext] {
			utils.RespondWithBadRequest(c, "File type "+ext+" not allowed", gin.H{"allowed": []string{".txt", ".md", ".json"}})
			return
		}

		logger.Info("Ingesting document", "filename", file.Filename)

		content, err := readUpload(file)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read upload", nil)
			return
		}

		result, err := deps.Documents.IngestDocument(c.Request.Context(), string(content), services.IngestMeta{
			Source:   file.Filename,
			Filetype: strings.TrimPrefix(ext, "."),
		})
		if err != nil {
			respondIngestError(c, err)
			return
		}
		deps.Cache.Invalidate(c.Request.Context())

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"filename":    file.Filename,
			"documentId":  result.DocumentID,
			"chunksAdded": result.ChunksAdded,
		})
	})

	// POST /api/ingest/text takes raw text in the request body.
	ingest.POST("/text", func(c *gin.Context) {
		var req ingestTextRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
			utils.RespondWithBadRequest(c, "No text provided", nil)
			return
		}

		source := req.Source
		if source == "" {
			source = "manual_input"
		}

		logger.Info("Ingesting text", "source", source, "length", len(req.Text))

		result, err := deps.Documents.IngestDocument(c.Request.Context(), req.Text, services.IngestMeta{
			Source:   source,
			Filetype: "txt",
		})
		if err != nil {
			respondIngestError(c, err)
			return
		}
		deps.Cache.Invalidate(c.Request.Context())

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"source":      source,
			"documentId":  result.DocumentID,
			"chunksAdded": result.ChunksAdded,
		})
	})

	// DELETE /api/ingest destroys the whole collection.
	ingest.DELETE("", func(c *gin.Context) {
		if err := deps.Documents.ClearCollection(c.Request.Context()); err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}
		deps.Cache.Invalidate(c.Request.Context())

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Collection cleared"})
	})
}
