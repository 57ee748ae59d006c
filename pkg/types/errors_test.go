package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(fmt.Errorf("stt: %w", ErrTranscription)))
	assert.True(t, IsRecoverable(fmt.Errorf("score: %w", ErrScoring)))
	assert.False(t, IsRecoverable(fmt.Errorf("mic: %w", ErrDevice)))
	assert.False(t, IsRecoverable(nil))
}
