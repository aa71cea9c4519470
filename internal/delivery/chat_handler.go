package delivery

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/lingua_tutor/internal/apperr"
)

type ChatHandler struct {
	translator Translator
	log        *logger.ZapLogger
}

func NewChatHandler(t Translator, log *logger.ZapLogger) *ChatHandler {
	return &ChatHandler{translator: t, log: log}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message  string `json:"message"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	translated, err := h.translator.Translate(r.Context(), req.Message, req.Language)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "error processing chat message", Service: serviceName, Error: err})
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": translated})
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	msgs, err := h.translator.List(r.Context(), r.URL.Query().Get("language"), limit)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "db error", Service: serviceName, Error: err})
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

// fail keeps validation messages, everything else is reported generically.
func (h *ChatHandler) fail(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if apperr.Is(err, apperr.KindInput) {
		writeError(w, status, apperr.Message(err))
		return
	}
	writeError(w, status, "Internal Server Error")
}
