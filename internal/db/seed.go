package db

import (
	"nanogallery/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// seedTemplates is the system gallery content shown before any user publishes.
// Seeded rows are owned by the system sentinel and enter the catalog already
// approved and published.
var seedTemplates = []domain.Template{
	{
		Title:       "Neon Cyber Samurai",
		Prompt:      "A close-up portrait of a futuristic samurai with neon glowing armor, rain-slicked streets in the background, cyberpunk aesthetic, high detail, 8k resolution, cinematic lighting, teal and magenta color palette.",
		AspectRatio: domain.AspectPortrait,
		ImageURL:    "https://picsum.photos/600/800?random=1",
	},
	{
		Title:       "Ethereal Glass Sculpture",
		Prompt:      "A complex geometric sculpture made of iridescent glass, floating in a void, soft studio lighting, caustics, dispersion of light, minimal background, photorealistic.",
		AspectRatio: domain.AspectSquare,
		ImageURL:    "https://picsum.photos/600/600?random=2",
	},
	{
		Title:       "Vaporwave Sunset",
		Prompt:      "A retro 80s vaporwave landscape, grid floor, purple mountains, large sun on the horizon, palm trees silhouetted, glitch art aesthetic, grainy texture.",
		AspectRatio: domain.AspectWide,
		ImageURL:    "https://picsum.photos/800/450?random=3",
	},
	{
		Title:       "Minimalist Architecture",
		Prompt:      "White minimalist concrete architecture against a deep blue sky, strong shadows, geometric shapes, brutalist influence, ultra-wide angle shot.",
		AspectRatio: domain.AspectLandscape,
		ImageURL:    "https://picsum.photos/800/600?random=4",
	},
	{
		Title:       "Fantasy Forest Spirit",
		Prompt:      "A tiny glowing spirit creature resting on a mossy mushroom in an ancient forest, bokeh background, magical sparkles, macro photography, soft warm light.",
		AspectRatio: domain.AspectSquare,
		ImageURL:    "https://picsum.photos/600/600?random=5",
	},
}

// Seed inserts the system templates once; reruns are no-ops
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.Template{}).Where("owner_id = ?", domain.SystemOwnerID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // Already seeded
	}
	for _, t := range seedTemplates {
		t.OwnerID = domain.SystemOwnerID // System sentinel owner
		t.Author = "System"              // Display author
		t.IsPublished = true             // Seed content is public
		t.Status = domain.StatusApproved // Seed content bypasses moderation
		if err := db.Create(&t).Error; err != nil {
			return err
		}
	}
	logrus.WithFields(logrus.Fields{
		"count": len(seedTemplates), // Seeded rows
	}).Info("System templates seeded")
	return nil
}
