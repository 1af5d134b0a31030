package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hosteldesk/hostel_backend/utils"
)

// Error taxonomy for the fee engine. Single-record operations surface
// these directly; batch operations collect them per item instead of
// aborting the whole run.

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Resource string
	Id       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.Id)
}

type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// ConsistencyError reports a fee row whose stored derived columns did not
// match the sums of its children. The reconciler repairs and logs it;
// it is never silently dropped.
type ConsistencyError struct {
	FeeId   int
	Message string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("fee %d inconsistent: %s", e.FeeId, e.Message)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || errors.Is(err, utils.ErrorRecordNotFound)
}

func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, utils.ErrorDuplicateValue)
}

// HTTPStatus maps engine errors onto response codes for the REST layer.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsAuthorization(err):
		return http.StatusForbidden
	case IsNotFound(err):
		return http.StatusNotFound
	case IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
