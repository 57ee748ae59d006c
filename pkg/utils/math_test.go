package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageFloat64(t *testing.T) {
	assert.Equal(t, 7.5, AverageFloat64([]float64{7, 8}))
	assert.Equal(t, 0.0, AverageFloat64(nil), "no scores average to zero")
	assert.InDelta(t, 6.333, AverageFloat64([]float64{9, 6, 4}), 0.001)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 10.0, Clamp(12, 0, 10))
	assert.Equal(t, 0.0, Clamp(-3, 0, 10))
	assert.Equal(t, 6.5, Clamp(6.5, 0, 10))
}
