package controller

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plantops/manualrag/services"
)

// AdminController manages the source document set: upload, delete, list,
// and full reindex. Every mutation rebuilds the whole index; there are no
// partial updates.
type AdminController struct {
	reindexer services.Reindexer
	rawDir    string
	logger    *zap.Logger
}

func NewAdminController(reindexer services.Reindexer, rawDir string, logger *zap.Logger) *AdminController {
	return &AdminController{
		reindexer: reindexer,
		rawDir:    rawDir,
		logger:    logger,
	}
}

// AuthRequired compares the bearer token against the configured secret.
// Anything but an exact match aborts with 401 before the handler runs.
func AuthRequired(adminToken string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if token != adminToken {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Unauthorized"})
			return
		}
		ctx.Next()
	}
}

// Reindex is the gin handler for POST /admin/reindex.
func (c *AdminController) Reindex(ctx *gin.Context) {
	if err := c.reindexer.Reindex(ctx.Request.Context()); err != nil {
		c.logger.Error("admin reindex failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "reindexed"})
}

// ReindexSSE is the gin handler for POST /admin/reindex-sse. It streams
// progress events until the rebuild finishes or the client disconnects.
func (c *AdminController) ReindexSSE(ctx *gin.Context) {
	events := c.reindexer.ReindexWithProgress(ctx.Request.Context())
	ctx.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		ctx.SSEvent(event.Event, event.Data)
		return true
	})
}

// Upload is the gin handler for POST /admin/upload. The uploaded PDF lands
// in the raw directory and the whole corpus is rebuilt.
func (c *AdminController) Upload(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid upload: " + err.Error()})
		return
	}

	// Base strips any path components a client might smuggle in.
	filename := filepath.Base(file.Filename)
	dest := filepath.Join(c.rawDir, filename)
	if err := ctx.SaveUploadedFile(file, dest); err != nil {
		c.logger.Error("failed to save uploaded file", zap.String("filename", filename), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	if err := c.reindexer.Reindex(ctx.Request.Context()); err != nil {
		c.logger.Error("reindex after upload failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "uploaded", "filename": filename})
}

// DeleteDocument is the gin handler for DELETE /admin/document/:doc_id. It
// removes every raw file whose name starts with doc_id, then rebuilds.
func (c *AdminController) DeleteDocument(ctx *gin.Context) {
	docID := filepath.Base(ctx.Param("doc_id"))

	entries, err := os.ReadDir(c.rawDir)
	if err != nil {
		c.logger.Error("failed to read raw directory", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), docID) {
			continue
		}
		if err := os.Remove(filepath.Join(c.rawDir, entry.Name())); err != nil {
			c.logger.Error("failed to remove file", zap.String("filename", entry.Name()), zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}
	}

	if err := c.reindexer.Reindex(ctx.Request.Context()); err != nil {
		c.logger.Error("reindex after delete failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "deleted", "doc_id": docID})
}

// ListDocuments is the gin handler for GET /admin/documents.
func (c *AdminController) ListDocuments(ctx *gin.Context) {
	entries, err := os.ReadDir(c.rawDir)
	if err != nil {
		c.logger.Error("failed to read raw directory", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	documents := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			documents = append(documents, entry.Name())
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"documents": documents})
}
