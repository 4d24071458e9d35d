package dto

import (
	"time"

	"photo-ingest-service/internal/app/service"
	"photo-ingest-service/internal/domain"
)

// StoredPhotoResponse represents a single durably stored photo.
type StoredPhotoResponse struct {
	ReferenceID  string `json:"reference_id"`
	StoredURL    string `json:"stored_url"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	QualityScore int    `json:"quality_score"`
	UploadedAt   string `json:"uploaded_at"`
}

// FromStoredPhoto converts a domain.StoredPhoto to its response form.
func FromStoredPhoto(p domain.StoredPhoto) StoredPhotoResponse {
	return StoredPhotoResponse{
		ReferenceID:  p.ReferenceID,
		StoredURL:    p.StoredURL,
		Width:        p.Width,
		Height:       p.Height,
		QualityScore: p.QualityScore,
		UploadedAt:   p.UploadedAt.Format(time.RFC3339),
	}
}

// EntityPhotosResponse represents an entity's photo set on the read path.
type EntityPhotosResponse struct {
	EntityID    string                `json:"entity_id"`
	Name        string                `json:"name"`
	Type        string                `json:"type"`
	Photos      []StoredPhotoResponse `json:"photos"`
	BestQuality int                   `json:"best_quality"`

	// Source reports which tier served the set: cache or database.
	Source string `json:"source"`

	// NeedsMigration signals that stored URLs are missing because migration
	// has not run yet, not because the entity has no photos.
	NeedsMigration bool `json:"needs_migration,omitempty"`
}

// FromEntityPhotos converts the service read view to its response form.
func FromEntityPhotos(v *service.EntityPhotos) EntityPhotosResponse {
	photos := make([]StoredPhotoResponse, len(v.Photos))
	for i, p := range v.Photos {
		photos[i] = FromStoredPhoto(p)
	}

	return EntityPhotosResponse{
		EntityID:       v.Entity.ID,
		Name:           v.Entity.Name,
		Type:           string(v.Entity.Type),
		Photos:         photos,
		BestQuality:    v.BestQuality,
		Source:         v.Source,
		NeedsMigration: v.NeedsMigration,
	}
}

// ValidationResultResponse represents the validation outcome for one URL.
type ValidationResultResponse struct {
	URL           string `json:"url"`
	IsValid       bool   `json:"is_valid"`
	ErrorKind     string `json:"error_kind,omitempty"`
	ContentType   string `json:"content_type,omitempty"`
	FileSizeBytes int64  `json:"file_size_bytes,omitempty"`
}

// ValidateURLsResponse represents the batch validation outcome, ordered as
// requested.
type ValidateURLsResponse struct {
	Results []ValidationResultResponse `json:"results"`
	Valid   int                        `json:"valid"`
	Invalid int                        `json:"invalid"`
}

// FromValidationResults converts checker results to the response form,
// preserving the request order.
func FromValidationResults(urls []string, results map[string]domain.ValidationResult) ValidateURLsResponse {
	resp := ValidateURLsResponse{
		Results: make([]ValidationResultResponse, 0, len(urls)),
	}

	for _, u := range urls {
		r := results[u]

		resp.Results = append(resp.Results, ValidationResultResponse{
			URL:           u,
			IsValid:       r.IsValid,
			ErrorKind:     string(r.ErrorKind),
			ContentType:   r.ContentType,
			FileSizeBytes: r.FileSizeBytes,
		})

		if r.IsValid {
			resp.Valid++
		} else {
			resp.Invalid++
		}
	}

	return resp
}

// MigrationResultResponse represents the outcome of one entity migration.
// Count is the number of references stored this run, Total the number
// attempted; Success means no reference was attempted or at least one stuck.
type MigrationResultResponse struct {
	Success      bool                  `json:"success"`
	EntityID     string                `json:"entity_id"`
	StoredPhotos []StoredPhotoResponse `json:"stored_photos"`
	Count        int                   `json:"count"`
	Total        int                   `json:"total"`
}

// FromMigrationResult converts a domain.MigrationResult to its response form.
func FromMigrationResult(r *domain.MigrationResult) MigrationResultResponse {
	photos := make([]StoredPhotoResponse, len(r.StoredPhotos))
	for i, p := range r.StoredPhotos {
		photos[i] = FromStoredPhoto(p)
	}

	return MigrationResultResponse{
		Success:      r.Attempted == 0 || len(r.StoredPhotos) > 0,
		EntityID:     r.EntityID,
		StoredPhotos: photos,
		Count:        len(r.StoredPhotos),
		Total:        r.Attempted,
	}
}

// MigrationJobResponse represents the outcome of a batch migration run.
type MigrationJobResponse struct {
	Success  bool `json:"success"`
	Migrated int  `json:"migrated"`
	Failed   int  `json:"failed"`
	Total    int  `json:"total"`
	HasMore  bool `json:"has_more"`
}

// FromMigrationJobResult converts a batch result to its response form. The
// run itself completed, so Success is about outcomes: it is false only when
// entities were attempted and none got a photo stored.
func FromMigrationJobResult(r *domain.MigrationJobResult) MigrationJobResponse {
	return MigrationJobResponse{
		Success:  r.TotalAttempted == 0 || r.MigratedCount > 0,
		Migrated: r.MigratedCount,
		Failed:   r.FailedCount,
		Total:    r.TotalAttempted,
		HasMore:  r.HasMore,
	}
}

// CacheStatsResponse represents the derived persisted-tier cache view.
type CacheStatsResponse struct {
	TotalEntries     int            `json:"total_entries"`
	ExpiredEntries   int            `json:"expired_entries"`
	DistinctEntities int            `json:"distinct_entities"`
	ByQualityBucket  map[string]int `json:"by_quality_bucket"`
}

// FromCacheStats converts domain.CacheStats to its response form.
func FromCacheStats(s *domain.CacheStats) CacheStatsResponse {
	return CacheStatsResponse{
		TotalEntries:     s.TotalEntries,
		ExpiredEntries:   s.ExpiredEntries,
		DistinctEntities: s.DistinctEntities,
		ByQualityBucket:  s.ByQualityBucket,
	}
}

// HealthResponse represents health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
