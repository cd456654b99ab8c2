package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKind(t *testing.T) {
	err := WrapKind(ErrStoreUnavailable, context.DeadlineExceeded, "failed to list posts")

	assert.True(t, IsStoreUnavailable(err))
	assert.False(t, IsAuthFailure(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "failed to list posts", GetMessage(err))
	assert.Equal(t, "failed to list posts: context deadline exceeded", err.Error())

	wrapped := fmt.Errorf("refresh: %w", err)
	assert.True(t, IsStoreUnavailable(wrapped))
	assert.Equal(t, "failed to list posts", GetMessage(wrapped))
}

func TestWrapKind_Nil(t *testing.T) {
	assert.NoError(t, WrapKind(ErrAuthFailure, nil, "x"))
	assert.NoError(t, Wrap(nil, "x"))
}

func TestGetMessage_PlainError(t *testing.T) {
	assert.Equal(t, "", GetMessage(nil))
	assert.Equal(t, "boom", GetMessage(fmt.Errorf("boom")))
}

func TestGetCode(t *testing.T) {
	err := WrapWithCode(ErrNotFound, "EMAIL_NOT_FOUND", "no such user")

	assert.Equal(t, "EMAIL_NOT_FOUND", GetCode(err))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "", GetCode(ErrNotFound))
}
