package dto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-ingest-service/internal/app/service"
	"photo-ingest-service/internal/domain"
	"photo-ingest-service/internal/validator"
)

func newTestValidator() *validator.Validator {
	return validator.New()
}

// TestValidateURLsRequest_Valid tests accepted validation requests.
func TestValidateURLsRequest_Valid(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name string
		req  ValidateURLsRequest
	}{
		{
			name: "single url",
			req:  ValidateURLsRequest{URLs: []string{"https://example.com/a.jpg"}},
		},
		{
			name: "multiple urls",
			req: ValidateURLsRequest{URLs: []string{
				"https://example.com/a.jpg",
				"http://cdn.example.com/photos/b.png",
			}},
		},
		{
			name: "max batch",
			req:  ValidateURLsRequest{URLs: repeatURL("https://example.com/p.jpg", 50)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, v.Validate(&tt.req))
		})
	}
}

// TestValidateURLsRequest_Invalid tests rejected validation requests.
func TestValidateURLsRequest_Invalid(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name        string
		req         ValidateURLsRequest
		expectField string
	}{
		{
			name:        "missing urls",
			req:         ValidateURLsRequest{},
			expectField: "urls",
		},
		{
			name:        "empty batch",
			req:         ValidateURLsRequest{URLs: []string{}},
			expectField: "urls",
		},
		{
			name:        "batch too large",
			req:         ValidateURLsRequest{URLs: repeatURL("https://example.com/p.jpg", 51)},
			expectField: "urls",
		},
		{
			name:        "not a url",
			req:         ValidateURLsRequest{URLs: []string{"not a url"}},
			expectField: "urls[0]",
		},
		{
			name:        "url too long",
			req:         ValidateURLsRequest{URLs: []string{"https://example.com/" + strings.Repeat("a", 2000)}},
			expectField: "urls[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			require.Error(t, err)

			validationErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "expected ValidationErrors type")

			found := false
			for _, ve := range validationErrs {
				if ve.Field == tt.expectField {
					found = true
				}
			}
			assert.True(t, found, "expected error for field %s, got %v", tt.expectField, validationErrs)
		})
	}
}

func repeatURL(u string, n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = u
	}

	return urls
}

// TestFromValidationResults tests order preservation and counting.
func TestFromValidationResults(t *testing.T) {
	urls := []string{
		"https://example.com/ok.jpg",
		"https://example.com/missing.jpg",
		"https://example.com/huge.jpg",
	}

	results := map[string]domain.ValidationResult{
		"https://example.com/ok.jpg": {
			IsValid:       true,
			ContentType:   "image/jpeg",
			FileSizeBytes: 120000,
		},
		"https://example.com/missing.jpg": {
			IsValid:   false,
			ErrorKind: domain.ErrorKind("HTTP_404"),
		},
		"https://example.com/huge.jpg": {
			IsValid:   false,
			ErrorKind: domain.ErrorKindFileTooLarge,
		},
	}

	resp := FromValidationResults(urls, results)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, 1, resp.Valid)
	assert.Equal(t, 2, resp.Invalid)

	assert.Equal(t, urls[0], resp.Results[0].URL)
	assert.True(t, resp.Results[0].IsValid)
	assert.Equal(t, "image/jpeg", resp.Results[0].ContentType)

	assert.Equal(t, "HTTP_404", resp.Results[1].ErrorKind)
	assert.Equal(t, "FILE_TOO_LARGE", resp.Results[2].ErrorKind)
}

// TestFromEntityPhotos tests the read view conversion.
func TestFromEntityPhotos(t *testing.T) {
	uploaded := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	view := &service.EntityPhotos{
		Entity: &domain.Entity{
			ID:   "entity-1",
			Name: "Test Place",
			Type: domain.EntityTypePlace,
		},
		Photos: []domain.StoredPhoto{{
			EntityID:     "entity-1",
			ReferenceID:  "ref-1",
			StoredURL:    "http://localhost:8080/photos/entity-1/places/ref-1.jpg",
			Width:        800,
			Height:       600,
			QualityScore: 70,
			UploadedAt:   uploaded,
		}},
		BestQuality: 70,
		Source:      service.SourceCache,
	}

	resp := FromEntityPhotos(view)

	assert.Equal(t, "entity-1", resp.EntityID)
	assert.Equal(t, "place", resp.Type)
	assert.Equal(t, "cache", resp.Source)
	assert.Equal(t, 70, resp.BestQuality)
	assert.False(t, resp.NeedsMigration)
	require.Len(t, resp.Photos, 1)
	assert.Equal(t, "2026-08-01T10:00:00Z", resp.Photos[0].UploadedAt)
}

// TestFromMigrationJobResult tests the batch result conversion.
func TestFromMigrationJobResult(t *testing.T) {
	resp := FromMigrationJobResult(&domain.MigrationJobResult{
		MigratedCount:  7,
		FailedCount:    2,
		TotalAttempted: 9,
		HasMore:        true,
	})

	assert.True(t, resp.Success)
	assert.Equal(t, 7, resp.Migrated)
	assert.Equal(t, 2, resp.Failed)
	assert.Equal(t, 9, resp.Total)
	assert.True(t, resp.HasMore)
}

// TestFromMigrationResult tests the per-entity result conversion.
func TestFromMigrationResult(t *testing.T) {
	uploaded := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	resp := FromMigrationResult(&domain.MigrationResult{
		EntityID:  "entity-1",
		Attempted: 2,
		StoredPhotos: []domain.StoredPhoto{{
			EntityID:     "entity-1",
			ReferenceID:  "ref-1",
			StoredURL:    "http://localhost:8080/photos/entity-1/places/ref-1.jpg",
			QualityScore: 60,
			UploadedAt:   uploaded,
		}},
	})

	assert.True(t, resp.Success, "partial success still counts")
	assert.Equal(t, "entity-1", resp.EntityID)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.StoredPhotos, 1)
	assert.Equal(t, "ref-1", resp.StoredPhotos[0].ReferenceID)
}

// TestFromMigrationResult_AllFailed tests the zero-success case.
func TestFromMigrationResult_AllFailed(t *testing.T) {
	resp := FromMigrationResult(&domain.MigrationResult{EntityID: "entity-1", Attempted: 3})

	assert.False(t, resp.Success)
	assert.Equal(t, 0, resp.Count)
	assert.Equal(t, 3, resp.Total)
}
