package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/afocalor/rair-dapp/internal/common"
)

// statusFor maps a service error onto an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidSignature),
		errors.Is(err, common.ErrChallengeExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrVersionConflict),
		errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = common.ErrorInternal.Error()
	}
	writeJSON(w, code, map[string]any{"success": false, "message": msg})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Join(common.ErrorValidation, err)
	}
	return nil
}
