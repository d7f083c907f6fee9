package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", NoRecipients("No WHALE contacts"))
	assert.Equal(t, ErrCodeNoRecipients, CodeOf(wrapped))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("boom")))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "No WHALE contacts", e.Message)
}

func TestIsMatchesOnCode(t *testing.T) {
	err := fmt.Errorf("x: %w", DispatchInProgress())
	assert.True(t, errors.Is(err, New(ErrCodeDispatchInProgress, "")))
	assert.False(t, errors.Is(err, New(ErrCodeLimitExceeded, "")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("pool empty")
	err := ProvisioningFailure(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "pool empty")
}

func TestLimitExceededNeverNegative(t *testing.T) {
	assert.Equal(t, 0, LimitExceeded(-3).Remaining)
	assert.Equal(t, 7, LimitExceeded(7).Remaining)
}
