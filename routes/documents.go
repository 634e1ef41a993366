package routes

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ehisj/CustomerAIAgent/internal/config"
	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/internal/queue"
	"github.com/ehisj/CustomerAIAgent/services"
	"github.com/ehisj/CustomerAIAgent/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// DocumentDeps bundles what the document management endpoints need.
// Queue may be nil; the async upload endpoint then reports unavailable.
type DocumentDeps struct {
	Config    *config.Config
	Documents *services.DocumentService
	Cache     *services.RetrievalCache
	Queue     *asynq.Client
}

func SetupDocumentRoutes(router *gin.Engine, deps DocumentDeps) {
	documents := router.Group("/api/documents")

	// POST /api/documents/upload parses the file inline and ingests it
	// before responding.
	documents.POST("/upload", func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided", nil)
			return
		}
		if file.Size > deps.Config.MaxFileSize {
			utils.RespondWithTooLarge(c, "File exceeds the size limit")
			return
		}

		logger.Info("Processing document upload", "filename", file.Filename, "size", file.Size)

		content, err := readUpload(file)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read upload", nil)
			return
		}

		doc, err := services.ExtractText(content, file.Filename)
		if err != nil {
			respondIngestError(c, err)
			return
		}

		uploadedAt := time.Now().UTC().Format(time.RFC3339)
		result, err := deps.Documents.IngestDocument(c.Request.Context(), doc.Text, services.IngestMeta{
			DocumentID: uuid.New().String(),
			Source:     file.Filename,
			Filetype:   doc.Filetype,
			UploadedAt: uploadedAt,
		})
		if err != nil {
			respondIngestError(c, err)
			return
		}
		deps.Cache.Invalidate(c.Request.Context())

		logger.Info("Document uploaded successfully", "documentId", result.DocumentID, "filename", file.Filename, "chunksInserted", result.ChunksAdded)

		c.JSON(http.StatusOK, gin.H{
			"documentId":     result.DocumentID,
			"filename":       file.Filename,
			"filetype":       doc.Filetype,
			"chunksInserted": result.ChunksAdded,
			"uploadedAt":     uploadedAt,
		})
	})

	// POST /api/documents/upload/async stores the file and hands it to
	// the worker, returning the pre-assigned documentId immediately.
	documents.POST("/upload/async", func(c *gin.Context) {
		if deps.Queue == nil {
			utils.RespondWithUnavailable(c, "Async ingest is not configured")
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided", nil)
			return
		}
		if file.Size > deps.Config.MaxFileSize {
			utils.RespondWithTooLarge(c, "File exceeds the size limit")
			return
		}

		filePath := filepath.Join(deps.Config.UploadDir,
			fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.New().String()[:8], filepath.Ext(file.Filename)))
		if err := c.SaveUploadedFile(file, filePath); err != nil {
			utils.RespondWithInternalError(c, "Failed to store upload", nil)
			return
		}

		documentID := uuid.New().String()
		task, err := queue.NewIngestTask(filePath, file.Filename, documentID)
		if err != nil {
			os.Remove(filePath)
			utils.RespondWithInternalError(c, "Failed to build ingest task", nil)
			return
		}
		if _, err := deps.Queue.EnqueueContext(c.Request.Context(), task); err != nil {
			os.Remove(filePath)
			utils.RespondWithInternalError(c, "Failed to enqueue ingest", nil)
			return
		}

		logger.Info("Document queued for ingest", "documentId", documentID, "filename", file.Filename)
		c.JSON(http.StatusAccepted, gin.H{
			"documentId": documentID,
			"filename":   file.Filename,
			"status":     "queued",
		})
	})

	documents.GET("", func(c *gin.Context) {
		docs, err := deps.Documents.ListDocuments(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"documents": docs,
			"total":     len(docs),
		})
	})

	documents.GET("/stats", func(c *gin.Context) {
		stats, err := deps.Documents.GetCollectionStats(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	documents.DELETE("/:documentId", func(c *gin.Context) {
		documentID := c.Param("documentId")

		result, err := deps.Documents.DeleteDocument(c.Request.Context(), documentID)
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}
		if !result.Deleted {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}
		deps.Cache.Invalidate(c.Request.Context())

		c.JSON(http.StatusOK, result)
	})
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// respondIngestError maps caller mistakes (empty or unsupported
// documents) to 400 and everything else to 500.
func respondIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyInput), errors.Is(err, services.ErrEmptyDocument):
		utils.RespondWithBadRequest(c, "Document appears to be empty", nil)
	case errors.Is(err, services.ErrUnsupportedFormat):
		utils.RespondWithBadRequest(c, err.Error(), gin.H{"supported": services.SupportedExtensions})
	default:
		utils.RespondWithInternalError(c, err.Error(), nil)
	}
}
