package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"boutique/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperrors.Missing("zipCode"), http.StatusBadRequest},
		{apperrors.Unauthorized("invalid credentials"), http.StatusUnauthorized},
		{apperrors.InvalidToken(errors.New("bad signature")), http.StatusUnauthorized},
		{apperrors.Forbidden("session expired"), http.StatusForbidden},
		{apperrors.NotFound("product", "1"), http.StatusNotFound},
		{apperrors.Conflict("email", "email already registered"), http.StatusConflict},
		{apperrors.Upstream("insert product", errors.New("connection reset")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, apperrors.HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("create order: %w", apperrors.Missing("zipCode"))

	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, "zipCode", apperrors.FieldOf(err))
}

func TestPublicMessageHidesUpstreamCause(t *testing.T) {
	err := apperrors.Upstream("insert product", errors.New("mongo: server selection timeout"))

	assert.Equal(t, "internal server error", apperrors.PublicMessage(err))
	assert.Contains(t, err.Error(), "server selection timeout")
}
