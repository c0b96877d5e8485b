package domain

import (
	"fmt"
	"strings"
)

// Aspect ratios accepted by the generation endpoint
const (
	AspectSquare    = "1:1"
	AspectPortrait  = "3:4"
	AspectLandscape = "4:3"
	AspectTall      = "9:16"
	AspectWide      = "16:9"
)

// AspectRatios lists every accepted aspect ratio
var AspectRatios = []string{AspectSquare, AspectPortrait, AspectLandscape, AspectTall, AspectWide}

// ValidAspectRatio reports whether s is one of the accepted aspect ratios
func ValidAspectRatio(s string) bool {
	for _, r := range AspectRatios {
		if s == r {
			return true
		}
	}
	return false
}

// Quality tiers, each mapping to a model image size and a per-image credit cost
const (
	QualityStandard = "standard" // 1K output, 1 credit per image
	QualityHigh     = "high"     // 2K output, 2 credits per image
	QualityUltra    = "ultra"    // 4K output, 4 credits per image
)

// ImageSize returns the model-facing size label for a quality tier,
// or "" if the tier is unknown
func ImageSize(quality string) string {
	switch quality {
	case QualityStandard:
		return "1K"
	case QualityHigh:
		return "2K"
	case QualityUltra:
		return "4K"
	}
	return ""
}

// ReferenceImage is one decoded reference image attached to a generation request
type ReferenceImage struct {
	MimeType string // e.g. image/png
	Base64   string // Raw base64 payload without the data URL prefix
}

// ParseDataURL splits a "data:<mime>;base64,<payload>" string into a ReferenceImage.
// Malformed input is a validation error.
func ParseDataURL(s string) (ReferenceImage, error) {
	meta, payload, ok := strings.Cut(s, ",")
	if !ok || payload == "" {
		return ReferenceImage{}, fmt.Errorf("%w: malformed image data URL", ErrValidation)
	}
	if !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return ReferenceImage{}, fmt.Errorf("%w: expected base64 image data URL", ErrValidation)
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	if mime == "" {
		mime = "image/png"
	}
	return ReferenceImage{MimeType: mime, Base64: payload}, nil
}

// DataURL builds the inline data URL representation of an image payload
func DataURL(mimeType, base64Payload string) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64Payload
}
