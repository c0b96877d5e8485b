package generation

import (
	"testing"

	"nanogallery/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestPerImageCost(t *testing.T) {
	assert.Equal(t, 1, PerImageCost(domain.QualityStandard))
	assert.Equal(t, 2, PerImageCost(domain.QualityHigh))
	assert.Equal(t, 4, PerImageCost(domain.QualityUltra))
	assert.Equal(t, 0, PerImageCost("plaid"))
}

func TestCost_MultipliesByCount(t *testing.T) {
	tests := []struct {
		quality string
		count   int
		want    int
	}{
		{domain.QualityStandard, 1, 1},
		{domain.QualityStandard, 3, 3},
		{domain.QualityHigh, 2, 4},
		{domain.QualityUltra, 3, 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Cost(tt.quality, tt.count), "cost(%s, %d)", tt.quality, tt.count)
	}
}

func TestClampImageCount(t *testing.T) {
	assert.Equal(t, 1, ClampImageCount(-5))
	assert.Equal(t, 1, ClampImageCount(0))
	assert.Equal(t, 1, ClampImageCount(1))
	assert.Equal(t, 2, ClampImageCount(2))
	assert.Equal(t, 3, ClampImageCount(3))
	assert.Equal(t, 3, ClampImageCount(10))
}
