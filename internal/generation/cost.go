package generation

import "nanogallery/internal/domain"

// Image count bounds; requests outside the range are clamped, not rejected
const (
	MinImageCount = 1
	MaxImageCount = 3
)

// PerImageCost returns the credit cost of one image at the given quality tier.
// Unknown tiers return 0; callers validate the tier before computing cost.
func PerImageCost(quality string) int {
	switch quality {
	case domain.QualityStandard:
		return 1
	case domain.QualityHigh:
		return 2
	case domain.QualityUltra:
		return 4
	}
	return 0
}

// Cost is the full price of a batch: per-image cost times requested count
func Cost(quality string, imageCount int) int {
	return PerImageCost(quality) * imageCount
}

// ClampImageCount forces the requested count into [MinImageCount, MaxImageCount]
func ClampImageCount(n int) int {
	if n < MinImageCount {
		return MinImageCount
	}
	if n > MaxImageCount {
		return MaxImageCount
	}
	return n
}
