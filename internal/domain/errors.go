package domain

import (
	"errors"
	"fmt"
	"net/http"
)

const genericErrorMessage = "Something went wrong"

type NotFoundError struct {
	Resource string
	Msg      string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("No %s was found with this id", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("Duplicate %s. Please use another value", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// AuthReason tells apart the ways a session can fail to authenticate.
type AuthReason string

const (
	ReasonMissingToken AuthReason = "missing_token"
	ReasonInvalidToken AuthReason = "invalid_token"
	ReasonExpiredToken AuthReason = "expired_token"
	ReasonSubjectGone  AuthReason = "subject_gone"
	ReasonStaleToken   AuthReason = "stale_token"
)

var authMessages = map[AuthReason]string{
	ReasonMissingToken: "You are not logged in. Please log in to get access",
	ReasonInvalidToken: "Invalid token. Please log in again",
	ReasonExpiredToken: "Authorization token has expired. Please log in again",
	ReasonSubjectGone:  "User with this token no longer exists.",
	ReasonStaleToken:   "Token is expired, because user password was changed",
}

type UnauthenticatedError struct {
	Reason AuthReason
	Err    error
}

func (e UnauthenticatedError) Error() string {
	if msg, ok := authMessages[e.Reason]; ok {
		return msg
	}
	return "unauthenticated"
}

func (e UnauthenticatedError) Unwrap() error { return e.Err }

type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "You do not have permission to perform this action"
}

type InvalidCredentialsError struct {
	Msg string
}

func (e InvalidCredentialsError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "Incorrect email or password"
}

type InvalidOrExpiredTokenError struct {
	Err error
}

func (e InvalidOrExpiredTokenError) Error() string {
	return "The reset token is incorrect or expired"
}

func (e InvalidOrExpiredTokenError) Unwrap() error { return e.Err }

type DeliveryError struct {
	Err error
}

func (e DeliveryError) Error() string {
	return "There was an error sending an email. Try again later"
}

func (e DeliveryError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "internal error"
	}
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsUnauthenticated(err error) bool {
	var target UnauthenticatedError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsInvalidCredentials(err error) bool {
	var target InvalidCredentialsError
	return errors.As(err, &target)
}

func IsInvalidOrExpiredToken(err error) bool {
	var target InvalidOrExpiredTokenError
	return errors.As(err, &target)
}

func IsDelivery(err error) bool {
	var target DeliveryError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

// AuthReasonOf returns the reason of an UnauthenticatedError in err's chain.
func AuthReasonOf(err error) (AuthReason, bool) {
	var target UnauthenticatedError
	if errors.As(err, &target) {
		return target.Reason, true
	}
	return "", false
}

// typed returns the outermost taxonomy error in err's chain.
func typed(err error) error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch e.(type) {
		case ValidationError, InvalidOrExpiredTokenError, UnauthenticatedError,
			InvalidCredentialsError, ForbiddenError, NotFoundError, ConflictError,
			DeliveryError, InternalError:
			return e
		}
	}
	return nil
}

// HTTPStatus maps an error to the status code sent to clients.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch typed(err).(type) {
	case ValidationError, InvalidOrExpiredTokenError:
		return http.StatusBadRequest
	case UnauthenticatedError, InvalidCredentialsError:
		return http.StatusUnauthorized
	case ForbiddenError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsOperational reports whether err carries a message safe for clients.
func IsOperational(err error) bool {
	switch typed(err).(type) {
	case nil, InternalError:
		return false
	}
	return true
}

// PublicMessage renders err for a client. Internal detail only leaks in dev.
func PublicMessage(err error, dev bool) string {
	if err == nil {
		return ""
	}
	if IsOperational(err) {
		return typed(err).Error()
	}
	if dev {
		return err.Error()
	}
	return genericErrorMessage
}
