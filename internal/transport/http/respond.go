package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler returns the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := jmlerrors.CodeOf(err)
	writeJSON(w, statusForCode(code), map[string]string{
		"error":   string(code),
		"message": err.Error(),
	})
}

func statusForCode(code jmlerrors.Code) int {
	switch code {
	case jmlerrors.CodeInvalidInput, jmlerrors.CodeInvalidEvent:
		return http.StatusBadRequest
	case jmlerrors.CodeNotFound:
		return http.StatusNotFound
	case jmlerrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
