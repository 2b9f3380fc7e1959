package crud

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/artpar/crudgate/domain/storage"
)

// statusFor maps a classified storage outcome to its HTTP status.
func statusFor(kind storage.Kind) int {
	switch kind {
	case storage.KindBadInput:
		return http.StatusBadRequest
	case storage.KindNotFound:
		return http.StatusNotFound
	case storage.KindConflict:
		return http.StatusConflict
	case storage.KindUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError renders a classified error. Internal failures get a generic
// message; everything else carries the adapter's detail so the client sees
// why the request failed.
func writeError(w http.ResponseWriter, err error) {
	kind := storage.KindOf(err)
	message := "internal server error"
	if kind != storage.KindInternal {
		var se *storage.Error
		if errors.As(err, &se) {
			message = se.Error()
		} else {
			message = err.Error()
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(kind))
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    kind.String(),
			"message": message,
		},
	})
}
