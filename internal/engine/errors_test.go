package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/attune/internal/domain"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"validation", domain.NewValidationError("date", "bad"), KindValidation},
		{"wrapped validation", fmt.Errorf("get reading: %w", domain.NewValidationError("date", "bad")), KindValidation},
		{"profile not found", fmt.Errorf("load profile p1: %w", domain.ErrProfileNotFound), KindNotFound},
		{"outcome not found", domain.ErrOutcomeNotFound, KindNotFound},
		{"insufficient", domain.NewInsufficientDataError("p1", 1), KindInsufficientData},
		{"other", errors.New("disk full"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestField(t *testing.T) {
	err := fmt.Errorf("record outcome: %w", domain.NewValidationError("result", "bad"))
	assert.Equal(t, "result", Field(err))
	assert.Empty(t, Field(errors.New("plain")))
}
