package indexer

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler wraps Indexer in a gin HTTP handler for the ingestion
// endpoints: index, delete and commit-and-upload.
type Handler struct {
	Indexer *Indexer
}

// RegisterRoutes wires the handler's endpoints onto router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/index", h.handleIndex)
	router.POST("/delete", h.handleDelete)
	router.POST("/commit", h.handleCommit)
}

type indexRequest struct {
	Document map[string]interface{} `json:"document"`
}

type deleteRequest struct {
	ID string `json:"id"`
}

func (h *Handler) handleIndex(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Indexer.IndexDocument(req.Document); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "indexed"})
}

func (h *Handler) handleDelete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	if err := h.Indexer.DeleteDocument(req.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) handleCommit(c *gin.Context) {
	if err := h.Indexer.CommitAndUpload(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "committed"})
}
