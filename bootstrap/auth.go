package bootstrap

import (
	"encoding/json"
	"net/http"

	"github.com/artpar/crudgate/ports"
)

// tokenAuth is the access-control dependency attached to every generated
// route when auth.token_hash is configured. It compares the `token` query
// parameter (the same parameter the companion client appends) against the
// configured hash. Anything richer is the host's business.
func tokenAuth(hash string, hasher ports.Hasher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("token")
			if token == "" || !hasher.Compare([]byte(hash), token) {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"error": map[string]string{
						"code":    "unauthorized",
						"message": "missing or invalid access token",
					},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
