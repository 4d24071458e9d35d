package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"photo-ingest-service/internal/app/service"
	"photo-ingest-service/internal/domain"
	"photo-ingest-service/internal/imagecheck"
	"photo-ingest-service/internal/job"
	"photo-ingest-service/internal/transport/httpserver/dto"
	"photo-ingest-service/internal/validator"
)

// AdminHandler handles operational endpoints: batch and per-entity
// migration, URL validation and cache inspection.
type AdminHandler struct {
	runner       *job.MigrationRunner
	migrationSvc *service.MigrationService
	photoSvc     *service.PhotoService
	entities     domain.EntityRepository
	checker      *imagecheck.Checker
	source       domain.PhotoSource
	validator    *validator.Validator
	logger       *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	runner *job.MigrationRunner,
	migrationSvc *service.MigrationService,
	photoSvc *service.PhotoService,
	entities domain.EntityRepository,
	checker *imagecheck.Checker,
	source domain.PhotoSource,
	v *validator.Validator,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		runner:       runner,
		migrationSvc: migrationSvc,
		photoSvc:     photoSvc,
		entities:     entities,
		checker:      checker,
		source:       source,
		validator:    v,
		logger:       logger,
	}
}

// MigrateBatch handles POST /api/v1/admin/migrate
func (h *AdminHandler) MigrateBatch(c *fiber.Ctx) error {
	var req dto.MigrateBatchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "invalid request body",
				Code:  "INVALID_BODY",
			})
		}
		if err := h.validator.Validate(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error:   "validation failed",
				Code:    "VALIDATION_ERROR",
				Details: err,
			})
		}
	}

	h.logger.Info("manual migration batch triggered", zap.Int("batch_size", req.BatchSize))

	result, err := h.runner.RunBatchSize(c.Context(), req.BatchSize)
	if err != nil {
		if errors.Is(err, service.ErrSourceNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: "photo provider is not configured",
				Code:  "PROVIDER_NOT_CONFIGURED",
			})
		}

		h.logger.Error("migration batch failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "migration batch failed",
			Code:  "MIGRATION_FAILED",
		})
	}

	return c.JSON(dto.FromMigrationJobResult(result))
}

// MigrateEntity handles POST /api/v1/admin/entities/:id/migrate
//
// Re-runs migration for one entity regardless of the batch selection
// predicate. Upsert semantics make this safe for already migrated entities;
// it exists to pick up references that failed during a batch run.
func (h *AdminHandler) MigrateEntity(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "entity id is required",
			Code:  "MISSING_ID",
		})
	}

	var req dto.MigrateEntityRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "invalid request body",
				Code:  "INVALID_BODY",
			})
		}
		if err := h.validator.Validate(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error:   "validation failed",
				Code:    "VALIDATION_ERROR",
				Details: err,
			})
		}
	}

	entity, err := h.entities.GetByID(c.Context(), id)
	if err != nil {
		h.logger.Error("entity lookup failed", zap.String("entity_id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to load entity",
			Code:  "INTERNAL_ERROR",
		})
	}
	if entity == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "entity not found",
			Code:  "NOT_FOUND",
		})
	}

	if req.ProviderID != "" && req.ProviderID != entity.ProviderID {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: "provider id does not match the entity",
			Code:  "PROVIDER_MISMATCH",
		})
	}

	// Caller-supplied references replace the entity's outstanding ones for
	// this run, so individual failed references can be re-driven.
	if len(req.References) > 0 {
		refs := make([]domain.PhotoReference, len(req.References))
		for i, ref := range req.References {
			refs[i] = ref.ToDomain()
		}
		entity.PhotoRefs = refs
	}

	if req.InvalidateCache {
		if err := h.photoSvc.InvalidateEntity(c.Context(), id); err != nil {
			h.logger.Warn("cache invalidation failed", zap.String("entity_id", id), zap.Error(err))
		}
	}

	h.logger.Info("manual entity migration triggered", zap.String("entity_id", id))

	result, err := h.migrationSvc.MigrateEntity(c.Context(), entity)
	if err != nil {
		if errors.Is(err, service.ErrSourceNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: "photo provider is not configured",
				Code:  "PROVIDER_NOT_CONFIGURED",
			})
		}

		h.logger.Error("entity migration failed", zap.String("entity_id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "entity migration failed",
			Code:  "MIGRATION_FAILED",
		})
	}

	return c.JSON(dto.FromMigrationResult(result))
}

// ValidateURLs handles POST /api/v1/admin/validate
func (h *AdminHandler) ValidateURLs(c *fiber.Ctx) error {
	var req dto.ValidateURLsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	results := h.checker.ValidateMany(c.Context(), req.URLs)

	return c.JSON(dto.FromValidationResults(req.URLs, results))
}

// CacheStats handles GET /api/v1/admin/cache/stats
func (h *AdminHandler) CacheStats(c *fiber.Ctx) error {
	stats, err := h.photoSvc.CacheStats(c.Context())
	if err != nil {
		h.logger.Error("cache stats failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to read cache stats",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromCacheStats(stats))
}

// InvalidateEntityCache handles DELETE /api/v1/admin/entities/:id/cache
func (h *AdminHandler) InvalidateEntityCache(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "entity id is required",
			Code:  "MISSING_ID",
		})
	}

	if err := h.photoSvc.InvalidateEntity(c.Context(), id); err != nil {
		h.logger.Error("cache invalidation failed", zap.String("entity_id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to invalidate cache",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ProviderHealth handles GET /api/v1/admin/provider/health
func (h *AdminHandler) ProviderHealth(c *fiber.Ctx) error {
	if err := h.source.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"provider": h.source.Name(),
			"status":   "unreachable",
			"error":    err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"provider": h.source.Name(),
		"status":   "ok",
	})
}
