// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import "photo-ingest-service/internal/domain"

// ValidateURLsRequest represents the request body for batch URL validation.
// The batch is capped: validation holds provider connections open and the
// checker's concurrency limiter should bound a single request, not starve
// the queue.
type ValidateURLsRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=50,dive,url,max=2000"`
}

// PhotoReferenceRequest is an external provider reference supplied by the
// caller.
type PhotoReferenceRequest struct {
	ReferenceID string `json:"reference_id" validate:"required,max=300"`
	Width       int    `json:"width" validate:"omitempty,min=0"`
	Height      int    `json:"height" validate:"omitempty,min=0"`
	Attribution string `json:"attribution" validate:"omitempty,max=500"`
}

// ToDomain converts the reference to its domain form.
func (r PhotoReferenceRequest) ToDomain() domain.PhotoReference {
	return domain.PhotoReference{
		ReferenceID: r.ReferenceID,
		Width:       r.Width,
		Height:      r.Height,
		Attribution: r.Attribution,
	}
}

// MigrateBatchRequest represents the optional request body for a manual
// batch run. BatchSize overrides the scheduler's configured size for this
// run only.
type MigrateBatchRequest struct {
	BatchSize int `json:"batch_size" validate:"omitempty,min=1,max=100"`
}

// MigrateEntityRequest represents the optional request body for per-entity
// migration. When References is set, those references are migrated instead of
// the entity's outstanding ones (the re-drive path for references that failed
// during a batch run).
type MigrateEntityRequest struct {
	ProviderID string                  `json:"provider_id" validate:"omitempty,max=50"`
	References []PhotoReferenceRequest `json:"references" validate:"omitempty,max=100,dive"`

	// InvalidateCache drops the entity's cache record before migrating so
	// the read path cannot serve the pre-migration set afterwards.
	InvalidateCache bool `json:"invalidate_cache"`
}
