package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/lingua_tutor/internal/metrics"
	"github.com/Vovarama1992/lingua_tutor/internal/tutor"
)

type SessionHandler struct {
	store   SessionStore
	metrics *metrics.Metrics
	log     *logger.ZapLogger
}

func NewSessionHandler(store SessionStore, m *metrics.Metrics, log *logger.ZapLogger) *SessionHandler {
	return &SessionHandler{store: store, metrics: m, log: log}
}

// History returns the dialogue of the caller's session without the system prompt.
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	turns := []tutor.Turn{}

	key, ok := sessionKey(w, r, false)
	if ok {
		if sess, found := h.store.Lookup(key); found {
			for _, t := range sess.Snapshot() {
				if t.Role != tutor.RoleSystem {
					turns = append(turns, t)
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": key,
		"turns":      turns,
	})
}

// Reset forgets the caller's session; the next exchange starts over.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r, false)
	if ok && h.store.Delete(key) {
		h.log.Log(logger.LogEntry{Level: "info", Message: "session reset: " + key, Service: serviceName})
	}
	h.metrics.ActiveSessions.Set(float64(h.store.Len()))
	w.WriteHeader(http.StatusNoContent)
}
