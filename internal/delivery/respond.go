package delivery

import (
	"encoding/json"
	"net/http"

	"github.com/Vovarama1992/lingua_tutor/internal/apperr"
)

const serviceName = "lingua_tutor"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps a service error onto status and message.
func writeAppError(w http.ResponseWriter, err error) {
	writeError(w, apperr.HTTPStatus(err), apperr.Message(err))
}
