package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"photo-ingest-service/internal/app/service"
	"photo-ingest-service/internal/domain"
)

// DashboardHandler handles dashboard-related HTTP requests.
type DashboardHandler struct {
	photos   domain.PhotoRepository
	photoSvc *service.PhotoService
	logger   *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(photos domain.PhotoRepository, photoSvc *service.PhotoService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		photos:   photos,
		photoSvc: photoSvc,
		logger:   logger,
	}
}

// Render handles GET /dashboard
// Renders the dashboard HTML page using Fiber's template engine.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	count, _ := h.photos.Count(c.Context())

	stats, err := h.photoSvc.CacheStats(c.Context())
	if err != nil {
		h.logger.Warn("dashboard cache stats unavailable", zap.Error(err))
		stats = &domain.CacheStats{ByQualityBucket: map[string]int{}}
	}

	return c.Render("pages/dashboard", fiber.Map{
		"Title":            "Photo Ingest Dashboard",
		"PhotoCount":       count,
		"CacheEntries":     stats.TotalEntries,
		"CacheExpired":     stats.ExpiredEntries,
		"DistinctEntities": stats.DistinctEntities,
		"QualityBuckets":   stats.ByQualityBucket,
	}, "layouts/base")
}
