package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", ValidationError{Msg: "bad"}, http.StatusBadRequest},
		{"unauthenticated", UnauthenticatedError{Reason: ReasonMissingToken}, http.StatusUnauthorized},
		{"forbidden", ForbiddenError{}, http.StatusForbidden},
		{"not found", NotFoundError{Resource: "tour"}, http.StatusNotFound},
		{"invalid credentials", InvalidCredentialsError{}, http.StatusUnauthorized},
		{"reset token", InvalidOrExpiredTokenError{}, http.StatusBadRequest},
		{"conflict", ConflictError{Resource: "email"}, http.StatusConflict},
		{"delivery", DeliveryError{Err: errors.New("smtp down")}, http.StatusInternalServerError},
		{"internal", InternalError{Err: errors.New("boom")}, http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", ForbiddenError{}), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestPublicMessageHidesInternalsInProduction(t *testing.T) {
	err := InternalError{Msg: "query tours", Err: errors.New("dial tcp 10.0.0.1:3306: refused")}

	assert.Equal(t, "Something went wrong", PublicMessage(err, false))
	assert.Contains(t, PublicMessage(err, true), "dial tcp")
}

func TestPublicMessageKeepsOperationalMessage(t *testing.T) {
	err := fmt.Errorf("login: %w", InvalidCredentialsError{})
	assert.Equal(t, "Incorrect email or password", PublicMessage(err, false))

	stale := UnauthenticatedError{Reason: ReasonStaleToken}
	assert.Equal(t, "Token is expired, because user password was changed", PublicMessage(stale, false))
}

func TestDeliveryIsDistinctFromNotFound(t *testing.T) {
	err := DeliveryError{Err: NotFoundError{Resource: "user"}}
	assert.True(t, IsDelivery(err))
	assert.Equal(t, "There was an error sending an email. Try again later", PublicMessage(err, false))
}

func TestAuthReasonOf(t *testing.T) {
	reason, ok := AuthReasonOf(fmt.Errorf("wrap: %w", UnauthenticatedError{Reason: ReasonExpiredToken}))
	assert.True(t, ok)
	assert.Equal(t, ReasonExpiredToken, reason)

	_, ok = AuthReasonOf(errors.New("other"))
	assert.False(t, ok)
}
