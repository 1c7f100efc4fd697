package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"story-playback/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := apperror.Validation("title_too_long", "title is too long")
	wrapped := fmt.Errorf("create highlight: %w", base)

	assert.True(t, apperror.IsValidation(wrapped))
	assert.False(t, apperror.IsNotFound(wrapped))

	e, ok := apperror.From(wrapped)
	require.True(t, ok)
	assert.Equal(t, "title_too_long", e.Code)
	assert.NotEmpty(t, e.Remedy)
}

func TestTransientKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperror.Transient(cause, "archive_unavailable", "archive is unavailable")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, apperror.KindTransient, apperror.KindOf(err))
	assert.Equal(t, "archive is unavailable: connection refused", err.Error())
	assert.Nil(t, apperror.Transient(nil, "x", "y"))
}

func TestPlainErrorHasNoKind(t *testing.T) {
	assert.Equal(t, apperror.Kind(""), apperror.KindOf(errors.New("boom")))
}
