package api

import (
	"errors"
	"net/http"

	"fastcontrol/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var parse *domain.ParseError
	var dangling *domain.DanglingReferenceError
	var collision *domain.IdentifierCollisionError
	var unavailable *domain.SourceUnavailableError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &validation), errors.As(err, &parse), errors.As(err, &dangling):
		return http.StatusBadRequest
	case errors.As(err, &conflict), errors.As(err, &collision):
		return http.StatusConflict
	case errors.As(err, &unavailable):
		return http.StatusBadGateway
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
