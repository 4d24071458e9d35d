// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"photo-ingest-service/internal/app/service"
	"photo-ingest-service/internal/transport/httpserver/dto"
)

// PhotoHandler handles entity photo read requests.
type PhotoHandler struct {
	service *service.PhotoService
	logger  *zap.Logger
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(svc *service.PhotoService, logger *zap.Logger) *PhotoHandler {
	return &PhotoHandler{
		service: svc,
		logger:  logger,
	}
}

// GetEntityPhotos handles GET /api/v1/entities/:id/photos
func (h *PhotoHandler) GetEntityPhotos(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "entity id is required",
			Code:  "MISSING_ID",
		})
	}

	view, err := h.service.GetEntityPhotos(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrEntityNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "entity not found",
				Code:  "NOT_FOUND",
			})
		}

		h.logger.Error("get entity photos failed", zap.String("entity_id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to get entity photos",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromEntityPhotos(view))
}
