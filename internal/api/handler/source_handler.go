package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuongbtq/content-ingest/internal/api/dto"
	"github.com/cuongbtq/content-ingest/internal/domain"
)

// CreateSource handles POST /api/v1/sources
func (h *SourceHandler) CreateSource(c *gin.Context) {
	var req dto.CreateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	src := domain.NewSourceConfig(uuid.New().String(), req.AdapterType, req.Name, req.Config)
	src.Credentials = req.Credentials

	if err := h.sources.Create(c.Request.Context(), src); err != nil {
		h.logger.Error("Failed to create source", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create source",
		})
		return
	}

	h.logger.Info("Source created",
		slog.String("source_id", src.SourceID),
		slog.String("adapter_type", src.AdapterType),
	)

	c.JSON(http.StatusCreated, sourceToDTO(src))
}

// GetSource handles GET /api/v1/sources/:source_id
func (h *SourceHandler) GetSource(c *gin.Context) {
	sourceID := c.Param("source_id")
	if _, err := uuid.Parse(sourceID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "source_id must be a valid UUID",
		})
		return
	}

	src, err := h.sources.GetByID(c.Request.Context(), sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Source not found",
			})
			return
		}
		h.logger.Error("Failed to get source", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get source",
		})
		return
	}

	c.JSON(http.StatusOK, sourceToDTO(src))
}

// ListSources handles GET /api/v1/sources
func (h *SourceHandler) ListSources(c *gin.Context) {
	sources, err := h.sources.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list sources", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list sources",
		})
		return
	}

	out := make([]dto.SourceDTO, len(sources))
	for i := range sources {
		out[i] = sourceToDTO(&sources[i])
	}

	c.JSON(http.StatusOK, gin.H{"sources": out})
}

// UpdateSource handles PUT /api/v1/sources/:source_id
func (h *SourceHandler) UpdateSource(c *gin.Context) {
	sourceID := c.Param("source_id")
	if _, err := uuid.Parse(sourceID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "source_id must be a valid UUID",
		})
		return
	}

	var req dto.UpdateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	src, err := h.sources.GetByID(c.Request.Context(), sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Source not found",
			})
			return
		}
		h.logger.Error("Failed to get source", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get source",
		})
		return
	}

	credentials := src.Credentials
	if req.Credentials != "" {
		credentials = req.Credentials
	}
	src.Update(req.Name, req.Config, credentials)

	if err := h.sources.Save(c.Request.Context(), src); err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Source was modified concurrently, retry",
			})
			return
		}
		h.logger.Error("Failed to save source", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save source",
		})
		return
	}

	c.JSON(http.StatusOK, sourceToDTO(src))
}

// ActivateSource handles POST /api/v1/sources/:source_id/activate
func (h *SourceHandler) ActivateSource(c *gin.Context) {
	h.setSourceActive(c, true)
}

// DeactivateSource handles POST /api/v1/sources/:source_id/deactivate
func (h *SourceHandler) DeactivateSource(c *gin.Context) {
	h.setSourceActive(c, false)
}

func (h *SourceHandler) setSourceActive(c *gin.Context, active bool) {
	sourceID := c.Param("source_id")
	if _, err := uuid.Parse(sourceID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "source_id must be a valid UUID",
		})
		return
	}

	src, err := h.sources.GetByID(c.Request.Context(), sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Source not found",
			})
			return
		}
		h.logger.Error("Failed to get source", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get source",
		})
		return
	}

	prevVersion := src.Version
	if active {
		src.Activate()
	} else {
		src.Deactivate()
	}

	if src.Version != prevVersion {
		if err := h.sources.Save(c.Request.Context(), src); err != nil {
			if errors.Is(err, domain.ErrConcurrencyConflict) {
				c.JSON(http.StatusConflict, gin.H{
					"error": "Source was modified concurrently, retry",
				})
				return
			}
			h.logger.Error("Failed to save source", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to save source",
			})
			return
		}

		h.logger.Info("Source activation changed",
			slog.String("source_id", src.SourceID),
			slog.Bool("is_active", src.IsActive),
		)
	}

	c.JSON(http.StatusOK, sourceToDTO(src))
}
