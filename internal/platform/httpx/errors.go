package httpx

import (
	"errors"
	"net/http"

	"github.com/gatehouse-hq/gatehouse/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// A denied access decision is never routed through here; denial is a
// successful response payload, not an error.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
