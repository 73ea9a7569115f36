package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuongbtq/content-ingest/internal/api/dto"
	"github.com/cuongbtq/content-ingest/internal/domain"
	"github.com/cuongbtq/content-ingest/internal/storage"
)

// GetContent handles GET /api/v1/content/:content_id
func (h *ContentHandler) GetContent(c *gin.Context) {
	contentID := c.Param("content_id")
	if _, err := uuid.Parse(contentID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "content_id must be a valid UUID",
		})
		return
	}

	record, err := h.content.GetByID(c.Request.Context(), contentID)
	if err != nil {
		if errors.Is(err, domain.ErrContentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Content not found",
			})
			return
		}
		h.logger.Error("Failed to get content", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get content",
		})
		return
	}

	c.JSON(http.StatusOK, contentToDTO(record, true))
}

// ListContent handles GET /api/v1/content
func (h *ContentHandler) ListContent(c *gin.Context) {
	var req dto.ListContentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeContentCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.ContentFilter{
		SourceID: req.SourceID,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	records, err := h.content.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list content", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list content",
		})
		return
	}

	hasMore := len(records) > req.PageSize
	if hasMore {
		records = records[:req.PageSize]
	}

	out := make([]dto.ContentDTO, len(records))
	for i := range records {
		out[i] = contentToDTO(&records[i], false)
	}

	var nextCursor string
	if hasMore {
		last := records[len(records)-1]
		nextCursor = EncodeContentCursor(&storage.ContentCursor{
			CollectedAt: last.CollectedAt,
			ContentID:   last.ContentID,
		})
	}

	c.JSON(http.StatusOK, dto.ListContentResponse{
		Content:    out,
		NextCursor: nextCursor,
	})
}
