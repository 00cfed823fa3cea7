package httpx

import (
	"net/http"

	apperrors "github.com/Egem97/ttl-apg/internal/errors"
)

// RenderAppError maps the application error taxonomy onto HTTP responses.
// Unknown errors render as a generic 500 so internals never leak to the
// client.
func RenderAppError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status, ok := statusForCode(code)
	if !ok {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "internal",
			"message": "internal server error",
		})
		return
	}
	WriteError(w, ErrorParams{Code: status, ErrCode: string(code), Err: err})
}

// statusForCode returns the HTTP status for a known error code. A failed
// permission check deliberately renders as 403, not 500: the guard fails
// closed and the caller sees a denial.
func statusForCode(code apperrors.ErrorCode) (int, bool) {
	switch code {
	case apperrors.ErrCodeUnauthenticated:
		return http.StatusUnauthorized, true
	case apperrors.ErrCodeForbidden,
		apperrors.ErrCodeCompanyAccessDenied,
		apperrors.ErrCodePermissionCheckFailed:
		return http.StatusForbidden, true
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest, true
	case apperrors.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable, true
	case apperrors.ErrCodeSerialization, apperrors.ErrCodeInternal:
		return http.StatusInternalServerError, true
	default:
		return 0, false
	}
}
