package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qs-lzh/movie-booking/internal/service"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "conflict", Outcome(fmt.Errorf("%w: seat A1", service.ErrConflict)))
	assert.Equal(t, "invalid_state", Outcome(service.ErrInvalidState))
	assert.Equal(t, "not_found", Outcome(service.ErrNotFound))
	assert.Equal(t, "error", Outcome(errors.New("db down")))
}
