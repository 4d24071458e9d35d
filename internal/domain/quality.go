package domain

import "strings"

// Quality score tier boundaries (bytes).
const (
	qualitySizeTier1 = 20 * 1024
	qualitySizeTier2 = 100 * 1024
	qualitySizeTier3 = 500 * 1024
)

// QualityScore rates a validated photo on a 0-100 scale.
//
// The score is advisory, used to rank candidate photos for an entity; it is
// never a pass/fail gate.
//
//	invalid result:     0
//	base:               50
//	content type bonus: webp +12, jpeg/jpg +10, png +8
//	file size bonus:    >500KB +15, >100KB +10, >20KB +5
//
// Result is clamped to [0,100].
func QualityScore(r ValidationResult) int {
	if !r.IsValid {
		return 0
	}

	score := 50
	score += contentTypeBonus(r.ContentType)
	score += fileSizeBonus(r.FileSizeBytes)

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}

	return score
}

// contentTypeBonus rewards modern, well-compressed formats.
func contentTypeBonus(contentType string) int {
	ct := strings.ToLower(contentType)

	switch {
	case strings.Contains(ct, "webp"):
		return 12
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return 10
	case strings.Contains(ct, "png"):
		return 8
	default:
		return 0
	}
}

// fileSizeBonus rewards larger files as a proxy for resolution.
// A zero size means the origin declared no Content-Length; no bonus.
func fileSizeBonus(size int64) int {
	switch {
	case size > qualitySizeTier3:
		return 15
	case size > qualitySizeTier2:
		return 10
	case size > qualitySizeTier1:
		return 5
	default:
		return 0
	}
}

// QualityBucket maps a score to its stats bucket label.
func QualityBucket(score int) string {
	switch {
	case score >= 75:
		return "75-100"
	case score >= 50:
		return "50-74"
	case score >= 25:
		return "25-49"
	default:
		return "0-24"
	}
}
