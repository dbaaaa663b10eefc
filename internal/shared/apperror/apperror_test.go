package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go-skillmatrix/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestToHTTP(t *testing.T) {
	t.Run("domain kinds keep their status", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{apperror.NotFound("Skill not found"), http.StatusNotFound, apperror.CodeNotFound},
			{apperror.Validation("Rating must be between 1 and 5"), http.StatusBadRequest, apperror.CodeInvalidInput},
			{apperror.InvalidState("Rating is not pending"), http.StatusBadRequest, apperror.CodeInvalidState},
			{apperror.Conflict("Skill already rated"), http.StatusBadRequest, apperror.CodeConflict},
			{apperror.Forbidden("Manager mismatch"), http.StatusForbidden, apperror.CodeForbidden},
		}

		for _, tc := range cases {
			got := apperror.ToHTTP(tc.err)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.err.Error(), got.Message)
		}
	})

	t.Run("wrapped app error is unwrapped", func(t *testing.T) {
		err := fmt.Errorf("review: %w", apperror.Forbidden("Manager mismatch"))

		got := apperror.ToHTTP(err)

		assert.Equal(t, http.StatusForbidden, got.Status)
		assert.Equal(t, "Manager mismatch", got.Message)
	})

	t.Run("unknown error hides its message", func(t *testing.T) {
		got := apperror.ToHTTP(errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.Equal(t, apperror.CodeInternalError, got.Code)
		assert.NotContains(t, got.Message, "connection refused")
	})
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("approve: %w", apperror.Conflict("Employee already has active assignment"))

	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
	assert.False(t, apperror.HasCode(err, apperror.CodeNotFound))
	assert.False(t, apperror.HasCode(errors.New("plain"), apperror.CodeConflict))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, apperror.Wrap(nil, apperror.CodeInternalError, "x", http.StatusInternalServerError))

	cause := errors.New("disk full")
	err := apperror.Wrap(cause, apperror.CodeInternalError, "export failed", http.StatusInternalServerError)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "export failed: disk full", err.Error())
}

type ratingInput struct {
	Skill  string `validate:"required"`
	Rating int    `validate:"min=1,max=5"`
}

func TestMapValidationError(t *testing.T) {
	v := validator.New()

	t.Run("required field", func(t *testing.T) {
		err := v.Struct(ratingInput{Rating: 3})

		got := apperror.MapValidationError(err)

		assert.Equal(t, apperror.CodeValidation, got.Code)
		assert.Equal(t, "Skill is required", got.Message)
	})

	t.Run("invalid field", func(t *testing.T) {
		err := v.Struct(ratingInput{Skill: "go", Rating: 9})

		got := apperror.MapValidationError(err)

		assert.Equal(t, "Rating is invalid", got.Message)
	})

	t.Run("non validator error", func(t *testing.T) {
		got := apperror.MapValidationError(errors.New("EOF"))

		assert.Same(t, apperror.ErrInvalidInput, got)
		assert.Equal(t, http.StatusBadRequest, got.HTTPStatus)
		assert.Equal(t, "Invalid input", got.Message)
	})
}
