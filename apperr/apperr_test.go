package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"NotFound", NotFound("league %d not found", 7), ErrNotFound},
		{"Conflict", Conflict("league name already taken"), ErrConflict},
		{"Forbidden", Forbidden("owner only"), ErrForbidden},
		{"Validation", Validation("bad payload"), ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			wrapped := fmt.Errorf("create league: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.kind)
			assert.Equal(t, tt.err.Error(), Message(wrapped))
		})
	}
	assert.Equal(t, "league 7 not found", NotFound("league %d not found", 7).Error())
	assert.Empty(t, Message(errors.New("boom")))
}
