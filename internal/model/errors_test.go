package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezonia/zatca-phase2/internal/model"
)

func TestError_Message(t *testing.T) {
	err := model.NewError(model.CodeSigning, "failed to sign", errors.New("bad key"))

	assert.Contains(t, err.Error(), "SIGN_ERR")
	assert.Contains(t, err.Error(), "failed to sign")
	assert.Contains(t, err.Error(), "bad key")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := model.NewError(model.CodeAPIConnection, "no response", cause)

	assert.ErrorIs(t, err, cause)
}

func TestHasCode(t *testing.T) {
	err := model.NewError(model.CodeQRCodeGeneration, "too long", nil)

	assert.True(t, model.HasCode(err, model.CodeQRCodeGeneration))
	assert.False(t, model.HasCode(err, model.CodeSigning))
	assert.False(t, model.HasCode(errors.New("plain"), model.CodeSigning))

	// Still matched through wrapping.
	wrapped := fmt.Errorf("context: %w", err)
	assert.True(t, model.HasCode(wrapped, model.CodeQRCodeGeneration))
}

func TestWrapError_PreservesTypedErrors(t *testing.T) {
	typed := model.NewError(model.CodeValidation, "bad input", nil)

	assert.Same(t, typed, model.WrapError(typed, "ignored"))
}

func TestWrapError_WrapsUnknown(t *testing.T) {
	cause := errors.New("boom")

	wrapped := model.WrapError(cause, "pipeline failed")

	assert.Equal(t, model.CodeUnknown, wrapped.Code)
	assert.ErrorIs(t, wrapped, cause)
}
