package types_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchcask/allio/pkg/allio/types"
)

func TestErrorFormatting(t *testing.T) {
	err := types.ErrElementNotFound(types.ElementId(42))
	assert.Equal(t, "[ElementNotFound] element not found: elem:42", err.Error())
}

func TestErrorWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := types.WrapError(types.ErrCodeInternal, "sweep failed", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "PermissionDenied", types.ErrCodePermissionDenied.String())
	assert.Equal(t, "TypeMismatch", types.ErrCodeTypeMismatch.String())
}

func TestErrorAs(t *testing.T) {
	var err error = types.ErrActionFailed(types.ActionPress, "not actionable")

	var target *types.Error
	require.True(t, errors.As(err, &target))
	assert.Equal(t, types.ErrCodeActionFailed, target.Code)
}
