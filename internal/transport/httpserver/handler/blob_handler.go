package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"photo-ingest-service/internal/domain"
	"photo-ingest-service/internal/transport/httpserver/dto"
)

// BlobHandler serves stored photo bytes under their stable public URLs.
type BlobHandler struct {
	store  domain.ObjectStore
	logger *zap.Logger
}

// NewBlobHandler creates a new BlobHandler.
func NewBlobHandler(store domain.ObjectStore, logger *zap.Logger) *BlobHandler {
	return &BlobHandler{
		store:  store,
		logger: logger,
	}
}

// Get handles GET /photos/*
//
// Object keys are deterministic per (entity, provider, reference) and their
// content only changes through re-migration, so responses are cacheable for
// a long window.
func (h *BlobHandler) Get(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "photo key is required",
			Code:  "MISSING_KEY",
		})
	}

	data, contentType, err := h.store.Get(c.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "photo not found",
				Code:  "NOT_FOUND",
			})
		}

		h.logger.Error("photo read failed", zap.String("key", key), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to read photo",
			Code:  "INTERNAL_ERROR",
		})
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")

	return c.Send(data)
}
